package scanner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"qrmanager/internal/models"
	"qrmanager/internal/providers"
	"qrmanager/internal/scanner/interfaces"
	storeInterfaces "qrmanager/internal/store/interfaces"
	"qrmanager/internal/structures"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
)

var (
	ErrSourceOpen = errors.New("cannot open video source")

	errFrameQueueFull = errors.New("frame queue full")
)

type scanState int

const (
	stateOpen scanState = iota
	stateSeek
	stateStreaming
	stateDraining
	stateJoined
)

func (s scanState) String() string {
	switch s {
	case stateOpen:
		return "OPEN"
	case stateSeek:
		return "SEEK"
	case stateStreaming:
		return "STREAMING"
	case stateDraining:
		return "DRAINING"
	case stateJoined:
		return "JOINED"
	default:
		return "UNKNOWN"
	}
}

type Scanner struct {
	conf     *structures.Config
	store    storeInterfaces.MetadataStoreInterface
	opener   interfaces.SourceOpenerInterface
	decoder  interfaces.DecoderInterface
	renderer interfaces.RendererInterface
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
}

func NewScanner(conf *structures.Config, store storeInterfaces.MetadataStoreInterface, opener interfaces.SourceOpenerInterface, decoder interfaces.DecoderInterface, renderer interfaces.RendererInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) interfaces.ScannerInterface {
	return &Scanner{
		conf:     conf,
		store:    store,
		opener:   opener,
		decoder:  decoder,
		renderer: renderer,
		logger:   logger,
		metrics:  metrics,
	}
}

// scanRun is the state owned by a single RunScan call. Nothing in it is
// shared with other scans except the store.
type scanRun struct {
	id       string
	state    scanState
	stats    *Stats
	frames   *frameQueue
	codes    *codeQueue
	sink     *DedupSink
	workers  *workerPool
	updater  *persistenceUpdater
	progress *progressReporter
}

// RunScan streams the video at req.VideoPath through the decode pipeline and
// persists every new code under req.Channel/req.VideoID. Only a failure to
// open the source or to create the scan log is returned as an error. Frame,
// persistence and read-back failures are logged and counted.
func (s *Scanner) RunScan(req models.ScanRequest) (*models.ScanResult, error) {
	start := time.Now()
	run := &scanRun{id: uuid.NewString(), state: stateOpen, stats: &Stats{}}
	s.logger.Infof(providers.TypeScan, "Scan %s: %s state, video %s for %s/%s", run.id, run.state, req.VideoPath, req.Channel, req.VideoID)

	source, err := s.opener.Open(req.VideoPath)
	if err != nil {
		s.logger.Errorf(providers.TypeScan, "Scan %s: cannot open %s: %s", run.id, req.VideoPath, err)
		return nil, fmt.Errorf("%w: %s: %s", ErrSourceOpen, req.VideoPath, err)
	}

	logPath := filepath.Join(req.OutputDir, scanLogName)
	logFile, err := createScanLog(logPath)
	if err != nil {
		source.Close()
		return nil, fmt.Errorf("scan log %s: %w", logPath, err)
	}

	s.assemble(run, req, logFile)
	run.updater.Start()
	run.workers.Start()
	run.progress.Start()

	s.transition(run, stateSeek)
	s.seek(run, source)

	s.transition(run, stateStreaming)
	s.stream(run, source)

	s.transition(run, stateDraining)
	if err := source.Close(); err != nil {
		s.logger.Warnf(providers.TypeScan, "Scan %s: closing source: %s", run.id, err)
	}
	run.frames.Close()
	run.workers.Wait()

	s.transition(run, stateJoined)
	run.codes.Close()
	run.updater.Wait()
	run.progress.Stop()
	if err := logFile.Close(); err != nil {
		s.logger.Warnf(providers.TypeScan, "Scan %s: closing scan log: %s", run.id, err)
	}

	codes, err := ReadScanLog(logPath)
	if err != nil {
		codes = run.sink.Codes()
		s.logger.Errorf(providers.TypeScan, "Scan %s: cannot read back %s, reporting %d codes from memory: %s", run.id, logPath, len(codes), err)
	}
	if summary, err := WriteSummary(req.OutputDir, req.VideoID, codes); err != nil {
		s.logger.Errorf(providers.TypeScan, "Scan %s: writing summary: %s", run.id, err)
	} else {
		s.logger.Debugf(providers.TypeScan, "Scan %s: summary written to %s", run.id, summary)
	}
	s.removeVideo(run, req.VideoPath)

	elapsed := time.Since(start)
	s.metrics.ObserveScanDuration(elapsed)
	stats := run.stats.Snapshot()
	s.logger.Infof(providers.TypeScan, "Scan %s finished in %s: %d frames read, %d dropped, %d decode errors, %d codes found, %d stored",
		run.id, elapsed.Round(time.Millisecond), stats.FramesRead, stats.FramesDropped, stats.DecodeErrors, len(codes), stats.CodesPersisted)

	return &models.ScanResult{
		ScanID:     run.id,
		Video:      req.VideoID,
		CodesFound: codes,
		Stats:      stats,
	}, nil
}

func (s *Scanner) assemble(run *scanRun, req models.ScanRequest, log io.Writer) {
	run.frames = newFrameQueue(s.conf.Scanner.QueueSize)
	run.codes = newCodeQueue()
	run.sink = newDedupSink(log, run.codes, run.stats, s.metrics, s.logger)
	run.workers = &workerPool{
		size:    s.conf.Scanner.Workers,
		frames:  run.frames,
		decoder: s.decoder,
		sink:    run.sink,
		stats:   run.stats,
		metrics: s.metrics,
		logger:  s.logger,
	}
	run.updater = &persistenceUpdater{
		queue:    run.codes,
		store:    s.store,
		renderer: s.renderer,
		channel:  req.Channel,
		seed: models.VideoSeed{
			VideoID:    req.VideoID,
			UploadDate: req.UploadDate,
			DataPath:   req.DataPath,
		},
		imageDir: filepath.Join(req.OutputDir, s.conf.Render.ImageDir),
		stats:    run.stats,
		metrics:  s.metrics,
		logger:   s.logger,
	}
	run.progress = &progressReporter{
		scanID:   run.id,
		interval: s.conf.Scanner.ProgressInterval,
		stats:    run.stats,
		frames:   run.frames,
		codes:    run.codes,
		logger:   s.logger,
	}
}

func (s *Scanner) transition(run *scanRun, next scanState) {
	s.logger.Debugf(providers.TypeScan, "Scan %s: %s -> %s", run.id, run.state, next)
	run.state = next
}

func (s *Scanner) seek(run *scanRun, source interfaces.FrameSourceInterface) {
	skip := int(float64(s.conf.Scanner.SkipSeconds) * source.FPS())
	if skip <= 0 {
		return
	}
	if err := source.Seek(skip); err != nil {
		s.logger.Warnf(providers.TypeScan, "Scan %s: cannot skip %d frames: %s", run.id, skip, err)
		return
	}
	run.stats.FramesSkipped.Add(int64(skip))
	s.logger.Infof(providers.TypeScan, "Scan %s: skipped first %d frames (%ds)", run.id, skip, s.conf.Scanner.SkipSeconds)
}

func (s *Scanner) stream(run *scanRun, source interfaces.FrameSourceInterface) {
	for {
		frame, err := source.Read()
		if err != nil {
			if err != io.EOF {
				s.logger.Warnf(providers.TypeScan, "Scan %s: read failed after %d frames, ending stream: %s", run.id, run.stats.FramesRead.Load(), err)
			}
			return
		}
		run.stats.FramesRead.Inc()
		s.metrics.IncFramesRead()

		if !s.enqueue(run, frame) {
			run.stats.FramesDropped.Inc()
			s.metrics.IncFramesDropped()
			s.logger.Warnf(providers.TypeScan, "Scan %s: frame %d dropped, queue full", run.id, frame.Index)
		}
		s.metrics.SetFrameQueueDepth(run.frames.Len())
	}
}

// enqueue waits PutTimeout for room, then once more after RetryDelay.
func (s *Scanner) enqueue(run *scanRun, frame *models.Frame) bool {
	operation := func() error {
		if run.frames.Put(frame, s.conf.Scanner.PutTimeout) {
			return nil
		}
		return errFrameQueueFull
	}
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(s.conf.Scanner.RetryDelay), 1)
	return backoff.Retry(operation, policy) == nil
}

func (s *Scanner) removeVideo(run *scanRun, path string) {
	if !s.conf.Scanner.RemoveVideo {
		return
	}
	if err := os.Remove(path); err != nil {
		s.logger.Warnf(providers.TypeScan, "Scan %s: cannot remove video %s: %s", run.id, path, err)
		return
	}
	s.logger.Infof(providers.TypeScan, "Scan %s: removed video %s", run.id, path)
}

func createScanLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.Create(path)
}
