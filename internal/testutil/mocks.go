package testutil

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"qrmanager/internal/models"
	"qrmanager/internal/providers"
	"qrmanager/internal/scanner/interfaces"
	"strings"
	"sync"
	"time"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (e LogEntry) Message() string {
	return fmt.Sprintf(e.Format, e.Args...)
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Contains reports whether any entry at level has a message containing substr.
func (m *MockLogger) Contains(level, substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Logs {
		if e.Level == level && strings.Contains(e.Message(), substr) {
			return true
		}
	}
	return false
}

// MockCompressor implements the store compressor with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

// MockMetrics implements providers.MetricsProviderInterface with counters.
type MockMetrics struct {
	mu              sync.Mutex
	FramesRead      int
	FramesDropped   int
	DecodeErrors    int
	CodesConfirmed  int
	PersistFailures int
	Persists        int
	Scans           int
	CacheHits       int
	CacheMisses     int
}

func (m *MockMetrics) IncFramesRead()      { m.mu.Lock(); m.FramesRead++; m.mu.Unlock() }
func (m *MockMetrics) IncFramesDropped()   { m.mu.Lock(); m.FramesDropped++; m.mu.Unlock() }
func (m *MockMetrics) IncDecodeErrors()    { m.mu.Lock(); m.DecodeErrors++; m.mu.Unlock() }
func (m *MockMetrics) IncCodesConfirmed()  { m.mu.Lock(); m.CodesConfirmed++; m.mu.Unlock() }
func (m *MockMetrics) IncPersistFailures() { m.mu.Lock(); m.PersistFailures++; m.mu.Unlock() }
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	m.Persists++
	m.mu.Unlock()
}
func (m *MockMetrics) ObserveScanDuration(_ time.Duration) { m.mu.Lock(); m.Scans++; m.mu.Unlock() }
func (m *MockMetrics) SetFrameQueueDepth(_ int)            {}
func (m *MockMetrics) IncCacheHits()                       { m.mu.Lock(); m.CacheHits++; m.mu.Unlock() }
func (m *MockMetrics) IncCacheMisses()                     { m.mu.Lock(); m.CacheMisses++; m.mu.Unlock() }

// TextImage is a fake frame payload carrying the texts a MockDecoder "finds".
type TextImage struct {
	image.Image
	Texts []string
}

// NewTextFrame builds a frame whose image decodes to texts under MockDecoder.
func NewTextFrame(index int, texts ...string) *models.Frame {
	return &models.Frame{
		Index: index,
		Image: TextImage{Image: image.NewGray(image.Rect(0, 0, 1, 1)), Texts: texts},
	}
}

// MockFrameSource replays a fixed list of frames. A failed Seek leaves the
// position unchanged.
type MockFrameSource struct {
	mu        sync.Mutex
	Frames    []*models.Frame
	Rate      float64
	pos       int
	SeekedTo  int
	SeekErr   error
	Closed    bool
	ReadDelay time.Duration
}

func (m *MockFrameSource) FPS() float64 { return m.Rate }

func (m *MockFrameSource) Seek(frameIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SeekedTo = frameIndex
	if m.SeekErr != nil {
		return m.SeekErr
	}
	m.pos = frameIndex
	return nil
}

func (m *MockFrameSource) Read() (*models.Frame, error) {
	if m.ReadDelay > 0 {
		time.Sleep(m.ReadDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pos >= len(m.Frames) {
		return nil, io.EOF
	}
	f := m.Frames[m.pos]
	m.pos++
	return f, nil
}

func (m *MockFrameSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

func (m *MockFrameSource) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Closed
}

// MockOpener hands out Source, or fails with Err.
type MockOpener struct {
	Source *MockFrameSource
	Err    error
	Paths  []string
}

func (m *MockOpener) Open(path string) (interfaces.FrameSourceInterface, error) {
	m.Paths = append(m.Paths, path)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Source, nil
}

// MockDecoder returns the texts carried by TextImage frames.
type MockDecoder struct {
	Delay   time.Duration
	FailOn  map[int]bool
	PanicOn map[int]bool
	mu      sync.Mutex
	Calls   int
}

var ErrDecode = errors.New("decode failed")

func (m *MockDecoder) Decode(frame *models.Frame) ([]string, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}
	if m.PanicOn[frame.Index] {
		panic("corrupt frame")
	}
	if m.FailOn[frame.Index] {
		return nil, ErrDecode
	}
	if ti, ok := frame.Image.(TextImage); ok {
		return ti.Texts, nil
	}
	return nil, nil
}

func (m *MockDecoder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// MockRenderer writes the code as the file body, or fails for codes in FailFor.
type MockRenderer struct {
	mu      sync.Mutex
	FailFor map[string]bool
	Paths   []string
}

var ErrRender = errors.New("render failed")

func (m *MockRenderer) Render(code, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailFor[code] {
		return ErrRender
	}
	m.Paths = append(m.Paths, path)
	return os.WriteFile(path, []byte(code), 0644)
}
