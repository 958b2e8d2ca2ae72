package color

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// RGBHexLen is the length of "#RRGGBB".
	RGBHexLen = 7
	// RGBMHexLen is the length of "#RRGGBBMM".
	RGBMHexLen = 9
)

var ErrInvalidHex = errors.New("invalid hex value")

// Sample is one reading (or setting) of the four dimmer channels.
// M is the brightness of the main (white) light strip.
type Sample struct {
	R uint8 `json:"r" yaml:"r"`
	G uint8 `json:"g" yaml:"g"`
	B uint8 `json:"b" yaml:"b"`
	M uint8 `json:"m" yaml:"m"`
}

// New unpacks a 0xRRGGBBMM value.
func New(v uint32) Sample {
	return Sample{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), M: uint8(v)}
}

// Value packs the sample as 0xRRGGBBMM.
func (s Sample) Value() uint32 {
	return uint32(s.R)<<24 | uint32(s.G)<<16 | uint32(s.B)<<8 | uint32(s.M)
}

// WithRGB returns s with the RGB channels taken from o; M is kept.
func (s Sample) WithRGB(o Sample) Sample {
	s.R, s.G, s.B = o.R, o.G, o.B
	return s
}

// WithMain returns s with the main channel replaced.
func (s Sample) WithMain(m uint8) Sample {
	s.M = m
	return s
}

// Channels returns the channels in R, G, B, M order.
func (s Sample) Channels() [4]uint8 {
	return [4]uint8{s.R, s.G, s.B, s.M}
}

// Hex formats the sample as "#rrggbbmm" (lower case).
func (s Sample) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", s.R, s.G, s.B, s.M)
}

// RGBHex formats the RGB part as "#rrggbb".
func (s Sample) RGBHex() string {
	return fmt.Sprintf("#%02x%02x%02x", s.R, s.G, s.B)
}

func (s Sample) String() string {
	return s.Hex()
}

// Serialize returns the storage representation: Value in big-endian order,
// which is R, G, B, M.
func (s Sample) Serialize() []byte {
	return binary.BigEndian.AppendUint32(nil, s.Value())
}

// Deserialize decodes the storage representation. Short input leaves the
// missing channels at zero.
func Deserialize(b []byte) Sample {
	var raw [4]byte
	copy(raw[:], b)
	return New(binary.BigEndian.Uint32(raw[:]))
}
