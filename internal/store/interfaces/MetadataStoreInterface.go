package interfaces

import "qrmanager/internal/models"

// MetadataStoreInterface is the durable channel -> video -> codes document.
// Every method takes the store lock; Update is the only read-modify-write path.
type MetadataStoreInterface interface {
	Load() (*models.Document, error)
	Save(doc *models.Document) error
	// Update reloads the document, applies fn and saves it when fn reports a
	// change. Nothing is written if fn returns an error.
	Update(fn func(doc *models.Document) (bool, error)) error
	View(fn func(doc *models.Document) error) error
	FixLegacyFormat() (bool, error)
	EnsureVideo(channel string, seed models.VideoSeed) (*models.VideoEntry, error)
	DeleteChannel(channel string) (bool, error)
}
