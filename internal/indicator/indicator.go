// Package indicator shows the selected patch number on a single 7-segment
// digit. All timing is driven by Update so nothing ever sleeps.
package indicator

import (
	"time"

	"github.com/rs/zerolog/log"
)

type mode int

const (
	idle mode = iota
	showing
	blinking
)

// Display is a notify-only patch digit.
type Display struct {
	seg Segments
	now func() time.Time

	value int
	mode  mode
	lit   bool
	until time.Time

	blinksLeft int
	on, off    time.Duration

	written uint8
	dirty   bool
}

func New(seg Segments) *Display {
	return &Display{seg: seg, now: time.Now, dirty: true}
}

// WithClock replaces the time source.
func (d *Display) WithClock(now func() time.Time) *Display {
	d.now = now
	return d
}

// Set changes the digit. It is not shown until Show or Blink.
func (d *Display) Set(v int) { d.value = v }

// Value returns the last digit passed to Set.
func (d *Display) Value() int { return d.value }

// Show lights the digit for dur. A non-positive dur keeps it lit until the
// next Show or Blink.
func (d *Display) Show(dur time.Duration) {
	d.mode = showing
	d.lit = true
	d.until = time.Time{}
	if dur > 0 {
		d.until = d.now().Add(dur)
	}
	d.flush()
}

// Blink flashes the digit n times, then blanks it.
func (d *Display) Blink(n int, on, off time.Duration) {
	if n <= 0 {
		return
	}
	d.mode = blinking
	d.blinksLeft = n
	d.on, d.off = on, off
	d.lit = true
	d.until = d.now().Add(on)
	d.flush()
}

// Busy reports whether a timed show or blink is still running.
func (d *Display) Busy() bool {
	switch d.mode {
	case showing:
		return !d.until.IsZero()
	case blinking:
		return true
	default:
		return false
	}
}

// Lit reports whether the digit is currently on.
func (d *Display) Lit() bool { return d.lit }

// Update advances the timers. Call once per control cycle.
func (d *Display) Update() {
	now := d.now()
	switch d.mode {
	case showing:
		if !d.until.IsZero() && !now.Before(d.until) {
			d.mode = idle
			d.lit = false
		}
	case blinking:
		for d.mode == blinking && !now.Before(d.until) {
			if d.lit {
				d.lit = false
				d.blinksLeft--
				if d.blinksLeft <= 0 {
					d.mode = idle
					break
				}
				d.until = d.until.Add(d.off)
			} else {
				d.lit = true
				d.until = d.until.Add(d.on)
			}
		}
	}
	d.flush()
}

func (d *Display) flush() {
	var mask uint8
	if d.lit {
		mask = Glyph(d.value)
	}
	if !d.dirty && mask == d.written {
		return
	}
	if err := d.seg.Write(mask); err != nil {
		log.Warn().Err(err).Msg("indicator write failed")
		return
	}
	d.written = mask
	d.dirty = false
}
