package interfaces

import "qrmanager/internal/models"

// FrameSourceInterface reads frames of one video sequentially.
// Read returns io.EOF once the stream is exhausted.
type FrameSourceInterface interface {
	FPS() float64
	Seek(frameIndex int) error
	Read() (*models.Frame, error)
	Close() error
}

type SourceOpenerInterface interface {
	Open(path string) (FrameSourceInterface, error)
}
