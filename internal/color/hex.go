package color

import "fmt"

// hexValue decodes a run of hex digits (no prefix), most significant digit
// first. Upper and lower case are accepted.
func hexValue(s string) (uint32, bool) {
	var v uint32
	for i := 0; i < len(s); i++ {
		c := s[i]
		var d uint32
		switch {
		case c >= '0' && c <= '9':
			d = uint32(c - '0')
		case c >= 'A' && c <= 'F':
			d = uint32(c-'A') + 10
		case c >= 'a' && c <= 'f':
			d = uint32(c-'a') + 10
		default:
			return 0, false
		}
		v = v<<4 | d
	}
	return v, true
}

// ParseRGB parses "#RRGGBB". The returned sample has M = 0; callers decide
// what to do with the main channel.
func ParseRGB(s string) (Sample, error) {
	if len(s) != RGBHexLen || s[0] != '#' {
		return Sample{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	v, ok := hexValue(s[1:])
	if !ok {
		return Sample{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	return New(v << 8), nil
}

// ParseRGBM parses "#RRGGBBMM"; the last two digits are the main channel.
func ParseRGBM(s string) (Sample, error) {
	if len(s) != RGBMHexLen || s[0] != '#' {
		return Sample{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	rgb, err := ParseRGB(s[:RGBHexLen])
	if err != nil {
		return Sample{}, err
	}
	m, ok := hexValue(s[RGBHexLen:])
	if !ok {
		return Sample{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	return rgb.WithMain(uint8(m)), nil
}

// Parse accepts either form.
func Parse(s string) (sample Sample, hasMain bool, err error) {
	switch len(s) {
	case RGBHexLen:
		sample, err = ParseRGB(s)
		return sample, false, err
	case RGBMHexLen:
		sample, err = ParseRGBM(s)
		return sample, true, err
	default:
		return Sample{}, false, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
}
