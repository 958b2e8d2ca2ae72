// Package led drives the RGB strip and the main (white) strip.
package led

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/lightdimmer/internal/color"
)

// Driver abstracts an RGB strip.
type Driver interface {
	// Write pushes an RGB frame to hardware. len(rgb) must be 3*N.
	Write(rgb []byte) error
	// Close releases resources.
	Close() error
}

// Channel drives a single-intensity output such as the main strip.
type Channel interface {
	Set(level uint8) error
	Close() error
}

// Output is the live output device: every pixel of the strip shows the same
// RGB color and the main channel carries M. Without a main channel M is
// remembered but never written.
type Output struct {
	strip  Driver
	pixels int
	main   Channel

	frame []byte
	cur   color.Sample
	dirty bool
}

func NewOutput(strip Driver, pixels int, main Channel) (*Output, error) {
	if strip == nil {
		return nil, errors.New("output needs a strip driver")
	}
	if pixels < 1 {
		return nil, fmt.Errorf("strip needs at least one pixel, got %d", pixels)
	}
	return &Output{strip: strip, pixels: pixels, main: main, frame: make([]byte, 3*pixels), dirty: true}, nil
}

// Set records c as the output state and writes whatever changed. A failed
// write is retried on the next Set.
func (o *Output) Set(c color.Sample) error {
	prev := o.cur
	o.cur = c
	force := o.dirty
	o.dirty = false

	var errs []error
	if force || c.R != prev.R || c.G != prev.G || c.B != prev.B {
		for i := 0; i < o.pixels; i++ {
			o.frame[3*i+0], o.frame[3*i+1], o.frame[3*i+2] = c.R, c.G, c.B
		}
		if err := o.strip.Write(o.frame); err != nil {
			errs = append(errs, fmt.Errorf("strip: %w", err))
		}
	}
	if o.main != nil && (force || c.M != prev.M) {
		if err := o.main.Set(c.M); err != nil {
			errs = append(errs, fmt.Errorf("main: %w", err))
		}
	}
	if len(errs) > 0 {
		o.dirty = true
		return errors.Join(errs...)
	}
	return nil
}

// Get returns the last color passed to Set.
func (o *Output) Get() color.Sample { return o.cur }

// HasMain reports whether a main channel is wired.
func (o *Output) HasMain() bool { return o.main != nil }

// Close blanks and releases the outputs.
func (o *Output) Close() error {
	for i := range o.frame {
		o.frame[i] = 0
	}
	var errs []error
	if err := o.strip.Write(o.frame); err != nil {
		log.Warn().Err(err).Msg("blanking strip failed")
	}
	if err := o.strip.Close(); err != nil {
		errs = append(errs, err)
	}
	if o.main != nil {
		if err := o.main.Set(0); err != nil {
			log.Warn().Err(err).Msg("blanking main failed")
		}
		if err := o.main.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
