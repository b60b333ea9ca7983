package interfaces

import "qrmanager/internal/models"

// DecoderInterface extracts the raw text of every machine-readable symbol
// found in a frame. An empty result with a nil error means nothing was found.
type DecoderInterface interface {
	Decode(frame *models.Frame) ([]string, error)
}
