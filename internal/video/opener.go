package video

import (
	"fmt"
	"io"
	"qrmanager/internal/models"
	"qrmanager/internal/providers"
	"qrmanager/internal/scanner/interfaces"

	"gocv.io/x/gocv"
)

type Opener struct {
	logger providers.Logger
}

func NewOpener(logger providers.Logger) interfaces.SourceOpenerInterface {
	return &Opener{logger: logger}
}

func (o *Opener) Open(path string) (interfaces.FrameSourceInterface, error) {
	capture, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video capture: %w", err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("video capture is not opened: %s", path)
	}

	src := &gocvSource{
		capture: capture,
		img:     gocv.NewMat(),
		fps:     capture.Get(gocv.VideoCaptureFPS),
	}
	o.logger.Debugf(providers.TypeScan, "Opened %s: %.2f fps, %.0f frames", path, src.fps, capture.Get(gocv.VideoCaptureFrameCount))
	return src, nil
}

// gocvSource reads frames through OpenCV. It is used by the producer
// goroutine only and is not safe for concurrent use.
type gocvSource struct {
	capture *gocv.VideoCapture
	img     gocv.Mat
	fps     float64
	next    int
}

func (s *gocvSource) FPS() float64 {
	return s.fps
}

// Seek moves to frameIndex. When the capture lands elsewhere, for example
// past the end of a short video, it is rewound and reading restarts at the
// first frame.
func (s *gocvSource) Seek(frameIndex int) error {
	pos, err := seekFrames(s.capture, frameIndex)
	s.next = pos
	return err
}

type positioner interface {
	Get(prop gocv.VideoCaptureProperties) float64
	Set(prop gocv.VideoCaptureProperties, param float64)
}

// seekFrames returns the frame the capture is positioned on afterwards.
func seekFrames(p positioner, frameIndex int) (int, error) {
	p.Set(gocv.VideoCapturePosFrames, float64(frameIndex))
	pos := int(p.Get(gocv.VideoCapturePosFrames))
	if pos == frameIndex {
		return pos, nil
	}

	p.Set(gocv.VideoCapturePosFrames, 0)
	rewound := int(p.Get(gocv.VideoCapturePosFrames))
	if rewound != 0 {
		return rewound, fmt.Errorf("seek to frame %d landed on %d, rewind landed on %d", frameIndex, pos, rewound)
	}
	return 0, fmt.Errorf("seek to frame %d landed on %d, rewound to start", frameIndex, pos)
}

func (s *gocvSource) Read() (*models.Frame, error) {
	if ok := s.capture.Read(&s.img); !ok || s.img.Empty() {
		return nil, io.EOF
	}
	// ToImage copies the pixels, so img can be reused for the next read.
	picture, err := s.img.ToImage()
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", s.next, err)
	}
	frame := &models.Frame{Index: s.next, Image: picture}
	s.next++
	return frame, nil
}

func (s *gocvSource) Close() error {
	if err := s.img.Close(); err != nil {
		return err
	}
	return s.capture.Close()
}
