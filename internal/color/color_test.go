package color_test

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	. "github.com/coreman2200/lightdimmer/internal/color"
)

var TestValueIsExpectedSample = []struct {
	Value  uint32
	Expect Sample
}{
	{0xFF112233, Sample{R: 0xFF, G: 0x11, B: 0x22, M: 0x33}},
	{0x002A4434, Sample{R: 0x00, G: 0x2A, B: 0x44, M: 0x34}},
	{0xAB3B8835, Sample{R: 0xAB, G: 0x3B, B: 0x88, M: 0x35}},
	{0x00000000, Sample{}},
}

var TestParseCases = []struct {
	In      string
	Expect  Sample
	HasMain bool
	Valid   bool
}{
	{"#AABBCC", Sample{R: 0xAA, G: 0xBB, B: 0xCC}, false, true},
	{"#aabbcc", Sample{R: 0xAA, G: 0xBB, B: 0xCC}, false, true},
	{"#AABBCCDD", Sample{R: 0xAA, G: 0xBB, B: 0xCC, M: 0xDD}, true, true},
	{"#0a0B0c0D", Sample{R: 0x0A, G: 0x0B, B: 0x0C, M: 0x0D}, true, true},
	{"#ZZZZZZ", Sample{}, false, false},
	{"#AABBCG", Sample{}, false, false},
	{"#AABBCCDG", Sample{}, false, false},
	{"AABBCCD", Sample{}, false, false},
	{"xAABBCCDD", Sample{}, false, false},
	{"#AABBC", Sample{}, false, false},
	{"#AABBCCD", Sample{}, false, false},
	{"", Sample{}, false, false},
}

func TestSampleValue(t *testing.T) {
	for k, v := range TestValueIsExpectedSample {
		t.Run("Given value"+strconv.Itoa(k), func(t *testing.T) {
			s := New(v.Value)
			assert.Equal(t, v.Expect, s, "should unpack channels")
			assert.Equal(t, v.Value, s.Value(), "should pack back")
		})
	}
}

func TestParse(t *testing.T) {
	for _, v := range TestParseCases {
		t.Run(v.In, func(t *testing.T) {
			s, hasMain, err := Parse(v.In)
			if !v.Valid {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidHex))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, v.Expect, s)
			assert.Equal(t, v.HasMain, hasMain)
		})
	}
}

func TestHexFormatting(t *testing.T) {
	s := Sample{R: 0xAA, G: 0x0B, B: 0xCC, M: 0x01}
	assert.Equal(t, "#aa0bcc01", s.Hex())
	assert.Equal(t, "#aa0bcc", s.RGBHex())
}

func TestWithRGBKeepsMain(t *testing.T) {
	s := Sample{R: 1, G: 2, B: 3, M: 4}.WithRGB(Sample{R: 9, G: 8, B: 7, M: 6})
	assert.Equal(t, Sample{R: 9, G: 8, B: 7, M: 4}, s)
}

func TestSerializeRoundTrip(t *testing.T) {
	s := Sample{R: 10, G: 20, B: 30, M: 40}
	assert.Equal(t, []byte{10, 20, 30, 40}, s.Serialize())
	assert.Equal(t, s, Deserialize(s.Serialize()))
	assert.Equal(t, Sample{R: 10}, Deserialize([]byte{10}))
}

func TestPackedFormMatchesStorage(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Uint32().Draw(t, "value")
		s := New(v)
		if s.Value() != v {
			t.Fatalf("%08x unpacked to %v packs to %08x", v, s, s.Value())
		}
		b := s.Serialize()
		if want := []byte{s.R, s.G, s.B, s.M}; string(b) != string(want) {
			t.Fatalf("%v stored as % x, want % x", s, b, want)
		}
		if Deserialize(b) != s {
			t.Fatalf("% x decoded to %v", b, Deserialize(b))
		}
	})
}

func TestRGBHexRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := "#" + rapid.StringMatching(`[0-9a-fA-F]{6}`).Draw(t, "hex")
		s, err := ParseRGB(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got := s.RGBHex(); got != strings.ToLower(in) {
			t.Fatalf("round trip %q -> %q", in, got)
		}
	})
}

func TestRGBMHexRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := "#" + rapid.StringMatching(`[0-9a-fA-F]{8}`).Draw(t, "hex")
		s, err := ParseRGBM(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got := s.Hex(); got != strings.ToLower(in) {
			t.Fatalf("round trip %q -> %q", in, got)
		}
		rgb, err := ParseRGB(in[:RGBHexLen])
		if err != nil {
			t.Fatalf("parse rgb part %q: %v", in[:RGBHexLen], err)
		}
		if rgb.WithMain(s.M) != s {
			t.Fatalf("rgbm %v does not decompose into rgb %v + main %02x", s, rgb, s.M)
		}
	})
}

func TestRGBRejectsWrongLength(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		body := rapid.StringMatching(`[0-9a-f]{0,12}`).Draw(t, "body")
		if len(body) == 6 {
			t.Skip("valid length")
		}
		if _, err := ParseRGB("#" + body); err == nil {
			t.Fatalf("expected failure for %q", "#"+body)
		}
	})
}

func TestRGBRejectsNonHex(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pos := rapid.IntRange(0, 5).Draw(t, "pos")
		bad := rapid.SampledFrom([]byte("gGzZ# -xX!")).Draw(t, "bad")
		body := []byte("a1b2c3")
		body[pos] = bad
		if _, err := ParseRGB("#" + string(body)); err == nil {
			t.Fatalf("expected failure for %q", "#"+string(body))
		}
	})
}
