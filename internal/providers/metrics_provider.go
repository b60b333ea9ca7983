package providers

import (
	"qrmanager/internal/structures"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncFramesRead()
	IncFramesDropped()
	IncDecodeErrors()
	IncCodesConfirmed()
	IncPersistFailures()
	ObservePersistenceDuration(duration time.Duration)
	ObserveScanDuration(duration time.Duration)
	SetFrameQueueDepth(depth int)
	IncCacheHits()
	IncCacheMisses()
}

type MetricsProvider struct {
	framesRead          prometheus.Counter
	framesDropped       prometheus.Counter
	decodeErrors        prometheus.Counter
	codesConfirmed      prometheus.Counter
	persistFailures     prometheus.Counter
	persistenceDuration prometheus.Histogram
	scanDuration        prometheus.Histogram
	frameQueueDepth     prometheus.Gauge
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
}

func (m *MetricsProvider) IncFramesRead() {
	m.framesRead.Inc()
}

func (m *MetricsProvider) IncFramesDropped() {
	m.framesDropped.Inc()
}

func (m *MetricsProvider) IncDecodeErrors() {
	m.decodeErrors.Inc()
}

func (m *MetricsProvider) IncCodesConfirmed() {
	m.codesConfirmed.Inc()
}

func (m *MetricsProvider) IncPersistFailures() {
	m.persistFailures.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) ObserveScanDuration(duration time.Duration) {
	m.scanDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) SetFrameQueueDepth(depth int) {
	m.frameQueueDepth.Set(float64(depth))
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		framesRead: promauto.NewCounter(prometheus.CounterOpts{
			Name: "qrscan_frames_read_total",
			Help: "Total number of frames read from video sources",
		}),

		framesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "qrscan_frames_dropped_total",
			Help: "Total number of frames dropped because the frame queue stayed full",
		}),

		decodeErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "qrscan_decode_errors_total",
			Help: "Total number of frames that failed to decode",
		}),

		codesConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "qrscan_codes_confirmed_total",
			Help: "Total number of distinct codes confirmed by scans",
		}),

		persistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "qrscan_persist_failures_total",
			Help: "Total number of code updates that failed to persist",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "qrscan_persistence_duration_seconds",
			Help:    "Duration of metadata store read-modify-write cycles in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		scanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "qrscan_scan_duration_seconds",
			Help:    "Duration of whole scans in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),

		frameQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "qrscan_frame_queue_depth",
			Help: "Current number of frames waiting for a decode worker",
		}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "qrscan_render_cache_hits_total",
			Help: "Total number of render cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "qrscan_render_cache_misses_total",
			Help: "Total number of render cache misses",
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncFramesRead()                               {}
func (n *noopMetrics) IncFramesDropped()                            {}
func (n *noopMetrics) IncDecodeErrors()                             {}
func (n *noopMetrics) IncCodesConfirmed()                           {}
func (n *noopMetrics) IncPersistFailures()                          {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)   {}
func (n *noopMetrics) ObserveScanDuration(_ time.Duration)          {}
func (n *noopMetrics) SetFrameQueueDepth(_ int)                     {}
func (n *noopMetrics) IncCacheHits()                                {}
func (n *noopMetrics) IncCacheMisses()                              {}
