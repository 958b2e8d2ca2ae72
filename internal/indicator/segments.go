package indicator

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
)

// Segment bits, A in bit 0 through G in bit 6. DP is bit 7.
const (
	SegA uint8 = 1 << iota
	SegB
	SegC
	SegD
	SegE
	SegF
	SegG
	SegDP
)

var digits = [10]uint8{
	SegA | SegB | SegC | SegD | SegE | SegF,
	SegB | SegC,
	SegA | SegB | SegD | SegE | SegG,
	SegA | SegB | SegC | SegD | SegG,
	SegB | SegC | SegF | SegG,
	SegA | SegC | SegD | SegF | SegG,
	SegA | SegC | SegD | SegE | SegF | SegG,
	SegA | SegB | SegC,
	SegA | SegB | SegC | SegD | SegE | SegF | SegG,
	SegA | SegB | SegC | SegD | SegF | SegG,
}

// Glyph returns the segment mask of a decimal digit. Out of range digits
// show a lone G segment.
func Glyph(d int) uint8 {
	if d < 0 || d >= len(digits) {
		return SegG
	}
	return digits[d]
}

// Segments drives the physical display with a mask of lit segments.
type Segments interface {
	Write(mask uint8) error
}

// CommonMode is the wiring of the digit.
type CommonMode string

const (
	CommonCathode CommonMode = "cathode"
	CommonAnode   CommonMode = "anode"
)

// PinSegments drives one 7-segment digit wired straight to GPIO pins.
type PinSegments struct {
	pins [8]gpio.PinOut
	mode CommonMode
}

// NewPinSegments takes pins in A..G order, optionally followed by DP. DP is
// held off.
func NewPinSegments(pins []gpio.PinOut, mode CommonMode) (*PinSegments, error) {
	if len(pins) < 7 || len(pins) > 8 {
		return nil, fmt.Errorf("indicator needs 7 or 8 segment pins, got %d", len(pins))
	}
	switch mode {
	case CommonCathode, CommonAnode:
	default:
		return nil, fmt.Errorf("unknown indicator common mode %q", mode)
	}
	s := &PinSegments{mode: mode}
	for i, p := range pins {
		if p == nil {
			return nil, fmt.Errorf("indicator segment %d has no pin", i)
		}
		s.pins[i] = p
	}
	return s, s.Write(0)
}

func (s *PinSegments) level(on bool) gpio.Level {
	if s.mode == CommonAnode {
		return gpio.Level(!on)
	}
	return gpio.Level(on)
}

func (s *PinSegments) Write(mask uint8) error {
	mask &^= SegDP
	for i, p := range s.pins {
		if p == nil {
			continue
		}
		if err := p.Out(s.level(mask&(1<<i) != 0)); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
	}
	return nil
}

// LogSegments reports the displayed digit through the logger. Used when no
// display is wired.
type LogSegments struct {
	last uint8
}

func (l *LogSegments) Write(mask uint8) error {
	if mask == l.last {
		return nil
	}
	l.last = mask
	if mask == 0 {
		log.Debug().Msg("indicator blank")
		return nil
	}
	d := -1
	for i, g := range digits {
		if g == mask {
			d = i
			break
		}
	}
	log.Debug().Int("digit", d).Msg("indicator lit")
	return nil
}
