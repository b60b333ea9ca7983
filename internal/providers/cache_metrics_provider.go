package providers

import "qrmanager/internal/structures"

// MetricsImageCache counts hits and misses of the image cache. Sets are
// passed through; re-rendering the same code is what the counters expose.
type MetricsImageCache struct {
	inner   ImageCacheInterface
	metrics MetricsProviderInterface
}

func (c *MetricsImageCache) Get(code string, size int) ([]byte, bool) {
	png, ok := c.inner.Get(code, size)
	if ok {
		c.metrics.IncCacheHits()
	} else {
		c.metrics.IncCacheMisses()
	}
	return png, ok
}

func (c *MetricsImageCache) Set(code string, size int, png []byte) {
	c.inner.Set(code, size, png)
}

// NewInstrumentedImageCache returns the image cache with hit/miss counters.
// A disabled cache is returned unwrapped so it does not report misses.
func NewInstrumentedImageCache(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) ImageCacheInterface {
	inner := NewImageCache(conf, logger)
	if _, off := inner.(*noopImageCache); off {
		return inner
	}
	return &MetricsImageCache{
		inner:   inner,
		metrics: metrics,
	}
}
