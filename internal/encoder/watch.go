package encoder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
)

// pollTimeout bounds each WaitForEdge so watchers notice cancellation.
const pollTimeout = 100 * time.Millisecond

// Pins of a KY-040 style encoder. SW is optional.
type Pins struct {
	CLK gpio.PinIn
	DT  gpio.PinIn
	SW  gpio.PinIn
}

// Watcher debounces the encoder pins and pushes events to a Queue.
type Watcher struct {
	pins     Pins
	queue    *Queue
	debounce time.Duration
	now      func() time.Time

	wg sync.WaitGroup
}

// NewWatcher configures the pins as pulled-up inputs with edge detection.
func NewWatcher(p Pins, q *Queue, debounce time.Duration) (*Watcher, error) {
	if p.CLK == nil || p.DT == nil {
		return nil, fmt.Errorf("encoder needs CLK and DT pins")
	}
	if err := p.CLK.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("encoder CLK %s: %w", p.CLK, err)
	}
	if err := p.DT.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("encoder DT %s: %w", p.DT, err)
	}
	if p.SW != nil {
		if err := p.SW.In(gpio.PullUp, gpio.FallingEdge); err != nil {
			return nil, fmt.Errorf("encoder SW %s: %w", p.SW, err)
		}
	}
	return &Watcher{pins: p, queue: q, debounce: debounce, now: time.Now}, nil
}

// decodeRotation maps a CLK transition to a direction. Only the falling edge
// of CLK counts; DT leads CLK when turning right.
func decodeRotation(clk, dt gpio.Level) Event {
	if clk != gpio.Low {
		return None
	}
	if dt == gpio.High {
		return RotatedRight
	}
	return RotatedLeft
}

// Watch starts one goroutine per input. They exit when ctx is done; Wait
// blocks until they have.
func (w *Watcher) Watch(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop(ctx, w.pins.CLK, func() Event {
			return decodeRotation(w.pins.CLK.Read(), w.pins.DT.Read())
		})
	}()
	if w.pins.SW != nil {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.loop(ctx, w.pins.SW, func() Event {
				if w.pins.SW.Read() == gpio.Low {
					return Pressed
				}
				return None
			})
		}()
	}
}

func (w *Watcher) Wait() { w.wg.Wait() }

func (w *Watcher) loop(ctx context.Context, pin gpio.PinIn, decode func() Event) {
	var last time.Time
	for {
		if ctx.Err() != nil {
			return
		}
		if !pin.WaitForEdge(pollTimeout) {
			continue
		}
		e := decode()
		if e == None {
			continue
		}
		t := w.now()
		if !last.IsZero() && t.Sub(last) < w.debounce {
			continue
		}
		last = t
		if !w.queue.Push(e) {
			log.Debug().Str("event", e.String()).Msg("encoder queue full; event dropped")
		}
	}
}
