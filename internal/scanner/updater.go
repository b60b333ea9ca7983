package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"qrmanager/internal/models"
	"qrmanager/internal/providers"
	"qrmanager/internal/scanner/interfaces"
	storeInterfaces "qrmanager/internal/store/interfaces"
	"sync"
	"time"
)

// persistenceUpdater is the single consumer of the code queue. Every code is
// written to the store through one Update call, so a concurrent scan of
// another video never loses this one's writes.
type persistenceUpdater struct {
	queue    *codeQueue
	store    storeInterfaces.MetadataStoreInterface
	renderer interfaces.RendererInterface
	channel  string
	seed     models.VideoSeed
	imageDir string
	stats    *Stats
	metrics  providers.MetricsProviderInterface
	logger   providers.Logger
	done     sync.WaitGroup
}

func (u *persistenceUpdater) Start() {
	u.done.Add(1)
	go u.run()
}

// Wait returns after the queue has been closed and every pending code handled.
func (u *persistenceUpdater) Wait() {
	u.done.Wait()
}

func (u *persistenceUpdater) run() {
	defer u.done.Done()
	for {
		code, ok := u.queue.Take()
		if !ok {
			return
		}
		start := time.Now()
		stored, err := u.persist(code)
		if err != nil {
			u.stats.PersistFailures.Inc()
			u.metrics.IncPersistFailures()
			u.logger.Errorf(providers.TypeScan, "Failed to persist code %s for %s/%s: %s", code, u.channel, u.seed.VideoID, err)
			continue
		}
		u.metrics.ObservePersistenceDuration(time.Since(start))
		if stored {
			u.stats.CodesPersisted.Inc()
		}
	}
}

func (u *persistenceUpdater) persist(code string) (bool, error) {
	stored := false
	err := u.store.Update(func(doc *models.Document) (bool, error) {
		ch, _ := doc.UpsertChannel(u.channel)
		video, _ := ch.UpsertVideo(u.seed)
		if video.HasCode(code) {
			u.logger.Debugf(providers.TypeScan, "Code %s already stored for %s", code, u.seed.VideoID)
			return false, nil
		}

		image := video.NextImageName()
		if err := os.MkdirAll(u.imageDir, 0755); err != nil {
			return false, err
		}
		if err := u.renderer.Render(code, filepath.Join(u.imageDir, image)); err != nil {
			return false, fmt.Errorf("render %s: %w", image, err)
		}
		video.AppendCode(code, image)
		stored = true

		u.logger.Infof(providers.TypeScan, "Stored code %s as %s (%d total)", code, image, video.TotalCodes)
		return true, nil
	})
	return stored && err == nil, err
}
