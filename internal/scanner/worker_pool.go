package scanner

import (
	"fmt"
	"qrmanager/internal/models"
	"qrmanager/internal/providers"
	"qrmanager/internal/scanner/interfaces"
	"sync"
)

type workerPool struct {
	size    int
	frames  *frameQueue
	decoder interfaces.DecoderInterface
	sink    *DedupSink
	stats   *Stats
	metrics providers.MetricsProviderInterface
	logger  providers.Logger
	wg      sync.WaitGroup
}

func (p *workerPool) Start() {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
}

// Wait returns once the frame queue is closed and every worker has drained it.
func (p *workerPool) Wait() {
	p.wg.Wait()
}

func (p *workerPool) run(id int) {
	defer p.wg.Done()
	for frame := range p.frames.Frames() {
		p.metrics.SetFrameQueueDepth(p.frames.Len())
		texts, err := p.decode(frame)
		if err != nil {
			p.stats.DecodeErrors.Inc()
			p.metrics.IncDecodeErrors()
			p.logger.Warnf(providers.TypeScan, "Worker %d: frame %d dropped: %s", id, frame.Index, err)
			continue
		}
		p.stats.FramesDecoded.Inc()
		for _, text := range texts {
			code := models.NormalizeCode(text)
			if !models.IsValidCode(code) {
				continue
			}
			p.sink.Offer(code)
		}
	}
}

func (p *workerPool) decode(frame *models.Frame) (texts []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return p.decoder.Decode(frame)
}
