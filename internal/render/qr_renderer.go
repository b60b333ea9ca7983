package render

import (
	"fmt"
	"os"
	"qrmanager/internal/providers"
	"qrmanager/internal/scanner/interfaces"
	"qrmanager/internal/structures"

	"github.com/skip2/go-qrcode"
)

// QRRenderer draws a code back into a PNG QR symbol. Encoded images are
// cached by code and size, so re-scanning a video encodes nothing new.
type QRRenderer struct {
	size   int
	cache  providers.ImageCacheInterface
	logger providers.Logger
}

func NewQRRenderer(conf *structures.Config, cache providers.ImageCacheInterface, logger providers.Logger) interfaces.RendererInterface {
	return &QRRenderer{
		size:   conf.Render.Size,
		cache:  cache,
		logger: logger,
	}
}

func (r *QRRenderer) Render(code, path string) error {
	png, err := r.encode(code)
	if err != nil {
		return err
	}
	return os.WriteFile(path, png, 0644)
}

func (r *QRRenderer) encode(code string) ([]byte, error) {
	if png, ok := r.cache.Get(code, r.size); ok {
		return png, nil
	}

	q, err := qrcode.New(code, qrcode.High)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", code, err)
	}
	png, err := q.PNG(r.size)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", code, err)
	}
	r.cache.Set(code, r.size, png)
	r.logger.Debugf(providers.TypeScan, "Rendered %s (%d bytes)", code, len(png))
	return png, nil
}
