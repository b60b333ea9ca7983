package scanner

import (
	"qrmanager/internal/providers"
	"time"

	"github.com/roylee0704/gron"
)

// progressReporter periodically logs the counters of a running scan.
type progressReporter struct {
	scanID   string
	interval time.Duration
	stats    *Stats
	frames   *frameQueue
	codes    *codeQueue
	logger   providers.Logger
	cron     *gron.Cron
}

func (p *progressReporter) Start() {
	if p.interval <= 0 {
		return
	}
	p.cron = gron.New()
	p.cron.AddFunc(gron.Every(p.interval), p.report)
	p.cron.Start()
}

func (p *progressReporter) Stop() {
	if p.cron != nil {
		p.cron.Stop()
	}
}

func (p *progressReporter) report() {
	s := p.stats.Snapshot()
	p.logger.Infof(providers.TypeScan, "Scan %s: read=%d dropped=%d decoded=%d codes=%d stored=%d frame_queue=%d code_queue=%d",
		p.scanID, s.FramesRead, s.FramesDropped, s.FramesDecoded, s.CodesSeen, s.CodesPersisted, p.frames.Len(), p.codes.Len())
}
