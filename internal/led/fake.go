package led

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/lightdimmer/internal/color"
)

// Fake records every frame. Useful for headless runs and tests.
type Fake struct {
	mu     sync.Mutex
	Count  int
	Last   []byte
	Err    error
	Quiet  bool
	closed bool
}

func (d *Fake) Write(rgb []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errors.New("fake strip closed")
	}
	if d.Err != nil {
		return d.Err
	}
	d.Count++
	d.Last = append(d.Last[:0], rgb...)
	if !d.Quiet && len(rgb) >= 3 {
		log.Debug().Int("frame", d.Count).Str("rgb", color.Sample{R: rgb[0], G: rgb[1], B: rgb[2]}.RGBHex()).Msg("strip")
	}
	return nil
}

func (d *Fake) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Frames returns the number of successful writes.
func (d *Fake) Frames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Count
}

// FakeChannel records the last level written.
type FakeChannel struct {
	mu     sync.Mutex
	Level  uint8
	Writes int
}

func (c *FakeChannel) Set(level uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Level = level
	c.Writes++
	return nil
}

func (c *FakeChannel) Close() error { return nil }
