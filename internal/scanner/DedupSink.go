package scanner

import (
	"io"
	"qrmanager/internal/providers"
	"sync"
)

// DedupSink forwards each distinct code at most once per scan. A code is
// written to the scan log before it is queued for persistence, so the log
// always holds every code the updater will ever see.
type DedupSink struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string
	log     io.Writer
	queue   *codeQueue
	stats   *Stats
	metrics providers.MetricsProviderInterface
	logger  providers.Logger
}

func newDedupSink(log io.Writer, queue *codeQueue, stats *Stats, metrics providers.MetricsProviderInterface, logger providers.Logger) *DedupSink {
	return &DedupSink{
		seen:    make(map[string]struct{}),
		log:     log,
		queue:   queue,
		stats:   stats,
		metrics: metrics,
		logger:  logger,
	}
}

// Offer reports whether code was seen for the first time in this scan.
func (d *DedupSink) Offer(code string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[code]; ok {
		return false
	}
	if _, err := io.WriteString(d.log, code+"\n"); err != nil {
		d.logger.Errorf(providers.TypeScan, "Failed to append %s to scan log: %s", code, err)
		return false
	}
	d.seen[code] = struct{}{}
	d.order = append(d.order, code)
	d.queue.Put(code)

	d.stats.CodesSeen.Inc()
	d.metrics.IncCodesConfirmed()
	d.logger.Infof(providers.TypeScan, "New code found: %s", code)
	return true
}

func (d *DedupSink) Seen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// Codes returns the accepted codes in the order they were first offered.
func (d *DedupSink) Codes() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.order...)
}
