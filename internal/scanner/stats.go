package scanner

import (
	"qrmanager/internal/models"

	"go.uber.org/atomic"
)

// Stats are the per-scan counters, updated concurrently by the producer,
// the workers and the updater.
type Stats struct {
	FramesRead      atomic.Int64
	FramesSkipped   atomic.Int64
	FramesDropped   atomic.Int64
	FramesDecoded   atomic.Int64
	DecodeErrors    atomic.Int64
	CodesSeen       atomic.Int64
	CodesPersisted  atomic.Int64
	PersistFailures atomic.Int64
}

func (s *Stats) Snapshot() models.ScanStats {
	return models.ScanStats{
		FramesRead:      s.FramesRead.Load(),
		FramesSkipped:   s.FramesSkipped.Load(),
		FramesDropped:   s.FramesDropped.Load(),
		FramesDecoded:   s.FramesDecoded.Load(),
		DecodeErrors:    s.DecodeErrors.Load(),
		CodesSeen:       s.CodesSeen.Load(),
		CodesPersisted:  s.CodesPersisted.Load(),
		PersistFailures: s.PersistFailures.Load(),
	}
}
