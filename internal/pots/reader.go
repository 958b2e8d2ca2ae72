package pots

import "github.com/coreman2200/lightdimmer/internal/color"

// Reader samples all four pots.
type Reader struct {
	sampler Sampler
	// Deadbands zero a channel whose live value is <= the bound. A zero bound
	// disables the clamp.
	deadbands [4]uint8
	samples   int
}

// NewReader builds a Reader. samples is the number of reads averaged per
// channel when computing a baseline.
func NewReader(s Sampler, deadbands [4]uint8, samples int) *Reader {
	if samples < 1 {
		samples = 1
	}
	return &Reader{sampler: s, deadbands: deadbands, samples: samples}
}

// Read takes one live sample of every channel with deadbands applied.
func (r *Reader) Read() color.Sample {
	var c [4]uint8
	for i, ch := range Channels {
		v := ToChannel(r.sampler.ReadChannel(ch))
		if b := r.deadbands[i]; b > 0 && v <= b {
			v = 0
		}
		c[i] = v
	}
	return color.Sample{R: c[0], G: c[1], B: c[2], M: c[3]}
}

// Average computes a baseline: every channel averaged over the configured
// number of reads. Deadbands are not applied. A sampler with History is
// averaged over the readings it already holds; the pots are only read anew
// when it has none.
func (r *Reader) Average() color.Sample {
	h, _ := r.sampler.(History)
	var c [4]uint8
	for i, ch := range Channels {
		if h != nil {
			if vals := h.Recent(ch, r.samples); len(vals) > 0 {
				c[i] = Mean(vals)
				continue
			}
		}
		ch := ch
		c[i] = Average(func() uint16 { return r.sampler.ReadChannel(ch) }, r.samples)
	}
	return color.Sample{R: c[0], G: c[1], B: c[2], M: c[3]}
}
