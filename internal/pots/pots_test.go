package pots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/coreman2200/lightdimmer/internal/color"
)

func TestToChannel(t *testing.T) {
	cases := []struct {
		in   uint16
		want uint8
	}{
		{0, 0}, {1, 1}, {2, 1}, {3, 1}, {4, 1}, {7, 1}, {8, 2},
		{512, 128}, {1020, 255}, {1023, 255}, {5000, 255},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ToChannel(c.in), "ToChannel(%d)", c.in)
	}
}

func TestAverageRounds(t *testing.T) {
	seq := []uint16{10, 11}
	i := 0
	read := func() uint16 { v := seq[i%len(seq)]; i++; return v }
	// mean 10.5 rounds to 11, 11>>2 = 2
	if got := Average(read, 2); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}

	seq = []uint16{1023, 1023, 1022}
	i = 0
	// mean 1022.67 rounds to 1023
	if got := Average(read, 3); got != 255 {
		t.Fatalf("expected 255, got %d", got)
	}

	seq = []uint16{0, 0, 0, 2}
	i = 0
	// mean 0.5 rounds up to 1 -> minimum visible level
	if got := Average(read, 4); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestAverageNonPositiveCount(t *testing.T) {
	calls := 0
	read := func() uint16 { calls++; return 400 }
	if got := Average(read, 0); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	if calls != 1 {
		t.Fatalf("expected a single read, got %d", calls)
	}
}

func TestMovedSameSampleNeverMoves(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := color.New(rapid.Uint32().Draw(t, "sample"))
		d := rapid.Uint8().Draw(t, "dev")
		if Moved(s, s, d, true) {
			t.Fatalf("Moved(%v, %v, %d) = true", s, s, d)
		}
	})
}

func TestMovedStrictThreshold(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := color.New(rapid.Uint32().Draw(t, "base"))
		d := rapid.Uint8Range(0, 254).Draw(t, "dev")
		ch := rapid.IntRange(0, 3).Draw(t, "channel")

		c := base.Channels()
		var atEdge, beyond [4]uint8 = c, c
		if int(c[ch])+int(d)+1 <= 255 {
			atEdge[ch] = c[ch] + d
			beyond[ch] = c[ch] + d + 1
		} else if int(c[ch])-int(d)-1 >= 0 {
			atEdge[ch] = c[ch] - d
			beyond[ch] = c[ch] - d - 1
		} else {
			t.Skip("no room for a deviation of d+1 on this channel")
		}
		edge := color.Sample{R: atEdge[0], G: atEdge[1], B: atEdge[2], M: atEdge[3]}
		over := color.Sample{R: beyond[0], G: beyond[1], B: beyond[2], M: beyond[3]}

		if Moved(edge, base, d, true) {
			t.Fatalf("deviation == %d must not trip", d)
		}
		if !Moved(over, base, d, true) {
			t.Fatalf("deviation %d on channel %d must trip", d+1, ch)
		}
	})
}

func TestMovedIgnoresMainWhenDisabled(t *testing.T) {
	base := color.Sample{R: 10, G: 10, B: 10, M: 10}
	cur := color.Sample{R: 10, G: 10, B: 10, M: 200}
	assert.True(t, Moved(cur, base, 5, true))
	assert.False(t, Moved(cur, base, 5, false))

	cur.G = 16
	assert.True(t, Moved(cur, base, 5, false))
}

type fixedSampler [4]uint16

func (f fixedSampler) ReadChannel(ch Channel) uint16 { return f[ch] }

func TestReaderAppliesDeadbandsToLiveReadsOnly(t *testing.T) {
	s := fixedSampler{12, 400, 20, 1023}
	r := NewReader(s, [4]uint8{3, 0, 4, 0}, 4)

	live := r.Read()
	assert.Equal(t, color.Sample{R: 0, G: 100, B: 5, M: 255}, live)

	avg := r.Average()
	assert.Equal(t, color.Sample{R: 3, G: 100, B: 5, M: 255}, avg)
}

func TestInverted(t *testing.T) {
	s := Inverted(fixedSampler{0, 1023, 23, 2000})
	assert.Equal(t, uint16(1023), s.ReadChannel(Red))
	assert.Equal(t, uint16(0), s.ReadChannel(Green))
	assert.Equal(t, uint16(1000), s.ReadChannel(Blue))
	assert.Equal(t, uint16(0), s.ReadChannel(Main))
}

// ringSampler keeps canned recent readings and counts live reads.
type ringSampler struct {
	recent [4][]uint16
	reads  int
}

func (s *ringSampler) ReadChannel(ch Channel) uint16 {
	s.reads++
	if r := s.recent[ch]; len(r) > 0 {
		return r[len(r)-1]
	}
	return 0
}

func (s *ringSampler) Recent(ch Channel, n int) []uint16 {
	r := s.recent[ch]
	if n < len(r) {
		r = r[len(r)-n:]
	}
	return append([]uint16(nil), r...)
}

func TestReaderAveragesHistoryWithoutReading(t *testing.T) {
	s := &ringSampler{recent: [4][]uint16{
		{1000, 400, 400},
		{8, 8},
		{1023},
		{0, 0, 0, 0, 0, 0},
	}}
	r := NewReader(s, [4]uint8{}, 2)

	assert.Equal(t, color.Sample{R: 100, G: 2, B: 255, M: 0}, r.Average())
	assert.Zero(t, s.reads, "history is enough, the pots are not read")
}

func TestReaderAverageFallsBackWithoutHistory(t *testing.T) {
	s := &ringSampler{recent: [4][]uint16{{400}, nil, {1023}, nil}}
	r := NewReader(s, [4]uint8{}, 3)

	avg := r.Average()
	assert.Equal(t, uint8(100), avg.R)
	assert.Equal(t, uint8(0), avg.G)
	assert.Equal(t, 6, s.reads, "only the empty channels are read")
}

func TestInvertedKeepsHistory(t *testing.T) {
	s := Inverted(&ringSampler{recent: [4][]uint16{{23, 1023}}})
	h, ok := s.(History)
	if !ok {
		t.Fatalf("inverted sampler lost its history")
	}
	assert.Equal(t, []uint16{1000, 0}, h.Recent(Red, 4))

	assert.Nil(t, Inverted(fixedSampler{}).(History).Recent(Red, 4))
}

func TestMean(t *testing.T) {
	assert.Equal(t, uint8(0), Mean(nil))
	assert.Equal(t, uint8(128), Mean([]uint16{511, 513}))
}
