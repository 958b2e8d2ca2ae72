package led

import (
	"context"
	"fmt"
	"time"

	"github.com/coreman2200/lightdimmer/internal/color"
)

// Step is one frame of the wiring self-test.
type Step struct {
	Name  string
	Color color.Sample
}

// SelfTest lights each channel alone, then all of them, then blanks the
// output. The main step is left out when no main strip is wired.
func SelfTest(withMain bool) []Step {
	steps := []Step{
		{Name: "red", Color: color.Sample{R: 255}},
		{Name: "green", Color: color.Sample{G: 255}},
		{Name: "blue", Color: color.Sample{B: 255}},
	}
	if withMain {
		steps = append(steps, Step{Name: "main", Color: color.Sample{M: 255}})
	}
	return append(steps,
		Step{Name: "half", Color: color.Sample{R: 128, G: 128, B: 128, M: 128}},
		Step{Name: "full", Color: color.Sample{R: 255, G: 255, B: 255, M: 255}},
		Step{Name: "off"},
	)
}

// RunSelfTest shows every step for hold. onStep, if set, is called before
// each step is written.
func RunSelfTest(ctx context.Context, o *Output, steps []Step, hold time.Duration, onStep func(i int, s Step)) error {
	for i, s := range steps {
		if onStep != nil {
			onStep(i, s)
		}
		if err := o.Set(s.Color); err != nil {
			return fmt.Errorf("step %s: %w", s.Name, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(hold):
		}
	}
	return nil
}
