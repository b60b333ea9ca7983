package providers

import (
	"qrmanager/internal/structures"
	"strconv"

	"github.com/coocood/freecache"
)

// ImageCacheInterface holds encoded QR images keyed by code and pixel size.
type ImageCacheInterface interface {
	Get(code string, size int) ([]byte, bool)
	Set(code string, size int, png []byte)
}

type ImageCache struct {
	cache  *freecache.Cache
	ttl    int
	logger Logger
}

// freecache rejects entries larger than 1/1024 of its capacity, counting
// its entry header and the key.
const (
	freecacheEntryRatio = 1024
	entryOverhead       = 128
)

// imageBudget is an upper bound for one encoded image: a bilevel PNG of
// size x size pixels never exceeds one bit per pixel.
func imageBudget(size int) int {
	return size*size/8 + 1
}

// minCacheMB is the smallest cache that accepts an image of size pixels.
func minCacheMB(size int) int {
	bytes := (imageBudget(size) + entryOverhead) * freecacheEntryRatio
	return (bytes + 1<<20 - 1) >> 20
}

func imageKey(code string, size int) []byte {
	return []byte(code + "@" + strconv.Itoa(size))
}

// NewImageCache returns an in-memory cache of conf.Cache.Size megabytes,
// grown when that is too small to hold one image of conf.Render.Size pixels.
// Entries live conf.Cache.TTL, or until evicted when it is zero.
func NewImageCache(conf *structures.Config, logger Logger) ImageCacheInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeApp, "Image cache disabled")
		return &noopImageCache{}
	}

	sizeMB := conf.Cache.Size
	if need := minCacheMB(conf.Render.Size); sizeMB < need {
		logger.Warnf(TypeApp, "Image cache of %dMB cannot hold %dpx images, using %dMB", sizeMB, conf.Render.Size, need)
		sizeMB = need
	}
	logger.Infof(TypeApp, "Image cache initialized: %dMB, ttl %s", sizeMB, conf.Cache.TTL)

	return &ImageCache{
		cache:  freecache.NewCache(sizeMB << 20),
		ttl:    int(conf.Cache.TTL.Seconds()),
		logger: logger,
	}
}

func (c *ImageCache) Get(code string, size int) ([]byte, bool) {
	png, err := c.cache.Get(imageKey(code, size))
	if err != nil {
		return nil, false
	}
	return png, true
}

func (c *ImageCache) Set(code string, size int, png []byte) {
	if err := c.cache.Set(imageKey(code, size), png, c.ttl); err != nil {
		c.logger.Debugf(TypeScan, "Image for %s not cached: %s", code, err)
	}
}

type noopImageCache struct{}

func (n *noopImageCache) Get(_ string, _ int) ([]byte, bool) { return nil, false }
func (n *noopImageCache) Set(_ string, _ int, _ []byte)      {}
