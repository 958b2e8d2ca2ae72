package dimmer

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/lightdimmer/internal/metrics"
)

// DefaultInterval keeps color changes smooth without spinning a core.
const DefaultInterval = 2 * time.Millisecond

// Runner drives a Controller from a ticker until its context ends.
type Runner struct {
	ctl      *Controller
	interval time.Duration
}

func NewRunner(ctl *Controller, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Runner{ctl: ctl, interval: interval}
}

// Run boots the controller and cycles it. It returns nil once ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	if !r.ctl.booted {
		r.ctl.Boot()
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	overruns := 0
	for {
		select {
		case <-ctx.Done():
			log.Info().Uint64("cycles", r.ctl.cycle).Msg("control loop stopped")
			return nil
		case <-ticker.C:
			start := time.Now()
			r.ctl.Cycle()
			metrics.Cycles.Inc()
			if time.Since(start) > r.interval {
				metrics.CycleOverruns.Inc()
				overruns++
				if overruns == 1 || overruns%1000 == 0 {
					log.Warn().Dur("took", time.Since(start)).Int("overruns", overruns).Msg("control cycle overran its interval")
				}
			}
		}
	}
}
