package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"qrmanager/internal/controllers"
	"qrmanager/internal/models"
	"qrmanager/internal/providers"
	scannerInterfaces "qrmanager/internal/scanner/interfaces"
	storeInterfaces "qrmanager/internal/store/interfaces"
	"qrmanager/internal/structures"
	"strconv"
	"time"

	"github.com/gookit/validate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var ErrInvalidJob = errors.New("invalid scan job")

type App struct {
	conf         *structures.Config
	logger       providers.Logger
	store        storeInterfaces.MetadataStoreInterface
	scanner      scannerInterfaces.ScannerInterface
	health       *controllers.HealthController
	StatusServer *http.Server
}

// NewApp runs the one-time store migration and, when metrics are enabled,
// starts the /metrics and /health listener. Close must be called to stop it.
func NewApp(conf *structures.Config, logger providers.Logger, store storeInterfaces.MetadataStoreInterface, scanner scannerInterfaces.ScannerInterface, health *controllers.HealthController) (*App, error) {
	logger.Infof(providers.TypeApp, "Starting %s", conf.AppName)

	fixed, err := store.FixLegacyFormat()
	if err != nil {
		return nil, fmt.Errorf("legacy migration: %w", err)
	}
	if fixed {
		logger.Infof(providers.TypeApp, "Metadata store migrated to the current format")
	}

	app := &App{
		conf:    conf,
		logger:  logger,
		store:   store,
		scanner: scanner,
		health:  health,
	}
	if conf.Metrics.Enabled {
		app.startStatusServer()
	}
	return app, nil
}

func (a *App) startStatusServer() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", a.health.Health)
	addr := a.conf.Metrics.Host + ":" + strconv.Itoa(a.conf.Metrics.Port)
	a.StatusServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		a.logger.Infof(providers.TypeApp, "Serving /metrics and /health on %s", addr)
		if err := a.StatusServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Errorf(providers.TypeApp, "Status server error: %s", err)
		}
	}()
}

// Scan registers the video under its channel and scans it. The video id is
// the sanitized title; images and scan output go to <dataDir>/<channel>/<id>.
func (a *App) Scan(job structures.ScanJob) (*models.ScanResult, error) {
	v := validate.Struct(&job)
	if !v.Validate() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidJob, v.Errors)
	}

	videoID := models.SanitizeTitle(job.Title)
	uploadDate := models.NormalizeUploadDate(job.UploadDate)
	dataPath := filepath.ToSlash(filepath.Join(job.Channel, videoID))
	outputDir := filepath.Join(a.conf.Store.DataDir, job.Channel, videoID)

	if _, err := a.store.EnsureVideo(job.Channel, models.VideoSeed{
		VideoID:    videoID,
		UploadDate: uploadDate,
		DataPath:   dataPath,
	}); err != nil {
		return nil, fmt.Errorf("register video %s: %w", videoID, err)
	}

	a.logger.Infof(providers.TypeApp, "Scanning %s for %s/%s", job.VideoPath, job.Channel, videoID)
	return a.scanner.RunScan(models.ScanRequest{
		VideoPath:  job.VideoPath,
		OutputDir:  outputDir,
		Channel:    job.Channel,
		VideoID:    videoID,
		DataPath:   dataPath,
		UploadDate: uploadDate,
	})
}

func (a *App) Close() error {
	var err error
	if a.StatusServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = a.StatusServer.Shutdown(ctx)
	}
	a.logger.Infof(providers.TypeApp, "gracefully stopped")
	a.logger.Close()
	return err
}
