// Package pots turns raw potentiometer readings into dimmer channel values
// and decides whether the pots have been moved away from a baseline.
package pots

import (
	"github.com/coreman2200/lightdimmer/internal/color"
)

// ReadMax is the largest raw reading a Sampler returns (10-bit ADC scale).
const ReadMax = 1023

// Channel identifies one of the four potentiometers.
type Channel uint8

const (
	Red Channel = iota
	Green
	Blue
	Main
)

// Channels lists every channel in R, G, B, M order.
var Channels = [4]Channel{Red, Green, Blue, Main}

func (c Channel) String() string {
	switch c {
	case Red:
		return "R"
	case Green:
		return "G"
	case Blue:
		return "B"
	case Main:
		return "M"
	default:
		return "?"
	}
}

// Sampler returns one raw reading in [0, ReadMax] for a channel. Polarity is
// already normalized.
type Sampler interface {
	ReadChannel(ch Channel) uint16
}

// History is implemented by samplers that keep their recent readings, so a
// baseline can be averaged without reading the pots again. Recent returns up
// to n readings, oldest first, and may return fewer (or none) before enough
// have been taken.
type History interface {
	Recent(ch Channel, n int) []uint16
}

// Inverted wraps s so that readings become ReadMax - raw, for pots wired
// with reversed polarity. The recent readings of s are inverted too.
func Inverted(s Sampler) Sampler {
	return inverted{s}
}

type inverted struct{ s Sampler }

func invert(v uint16) uint16 {
	if v > ReadMax {
		v = ReadMax
	}
	return ReadMax - v
}

func (i inverted) ReadChannel(ch Channel) uint16 { return invert(i.s.ReadChannel(ch)) }

func (i inverted) Recent(ch Channel, n int) []uint16 {
	h, ok := i.s.(History)
	if !ok {
		return nil
	}
	vals := h.Recent(ch, n)
	for k, v := range vals {
		vals[k] = invert(v)
	}
	return vals
}

// ToChannel reduces a raw reading to 8 bits. Zero stays zero, 1..3 becomes
// 1 so a barely opened pot still lights, the rest is divided by four.
func ToChannel(v uint16) uint8 {
	if v == 0 {
		return 0
	} else if v < 4 {
		return 1
	}
	if v > ReadMax {
		v = ReadMax
	}
	return uint8(v >> 2)
}

// Average reads n samples and returns the rounded mean reduced to 8 bits.
func Average(read func() uint16, n int) uint8 {
	if n < 1 {
		n = 1
	}
	var sum uint64
	for i := 0; i < n; i++ {
		sum += uint64(read())
	}
	return ToChannel(uint16((sum + uint64(n)/2) / uint64(n)))
}

// Mean is Average over readings already taken. An empty slice averages to 0.
func Mean(vals []uint16) uint8 {
	if len(vals) == 0 {
		return 0
	}
	k := 0
	return Average(func() uint16 { v := vals[k]; k++; return v }, len(vals))
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

// Moved reports whether any compared channel of cur deviates from base by
// more than maxDev. M is only compared when withMain is set.
func Moved(cur, base color.Sample, maxDev uint8, withMain bool) bool {
	return absDiff(cur.R, base.R) > maxDev ||
		absDiff(cur.G, base.G) > maxDev ||
		absDiff(cur.B, base.B) > maxDev ||
		(withMain && absDiff(cur.M, base.M) > maxDev)
}
