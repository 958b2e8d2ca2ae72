package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func pushAll(r *Resync, q chan byte, s string) (dropped int) {
	for i := 0; i < len(s); i++ {
		if !r.Push(q, s[i]) {
			dropped++
		}
	}
	return dropped
}

func drain(p *Parser, q chan byte) []Action {
	var out []Action
	for {
		select {
		case b := <-q:
			if a, ok := p.Feed(b); ok {
				out = append(out, a)
			}
		default:
			return out
		}
	}
}

func TestResyncNeverSplicesAcrossAGap(t *testing.T) {
	q := make(chan byte, 5)
	var r Resync
	var p Parser

	assert.Zero(t, pushAll(&r, q, "#AABB"))
	assert.Equal(t, 2, pushAll(&r, q, "CC"))
	assert.True(t, r.Skipping())
	assert.Empty(t, drain(&p, q))

	// dropping byte by byte would leave "#AABBDD", a valid color
	assert.Equal(t, 2, pushAll(&r, q, "DD\n"))
	assert.False(t, r.Skipping())
	got := drain(&p, q)
	if assert.Len(t, got, 1) {
		assert.Equal(t, Invalid, got[0].Kind)
	}

	got = nil
	for _, b := range []byte("#010203\n") {
		assert.True(t, r.Push(q, b))
		got = append(got, drain(&p, q)...)
	}
	if assert.Len(t, got, 1) {
		assert.Equal(t, SetColor, got[0].Kind)
		assert.Equal(t, "#010203", got[0].Line)
	}
}

func TestResyncWaitsForRoomToCloseTheLine(t *testing.T) {
	q := make(chan byte, 3)
	var r Resync
	var p Parser

	pushAll(&r, q, "#AAB")
	assert.True(t, r.Skipping())
	// no room for the closing pair: the next line is lost too
	assert.False(t, r.Push(q, Terminator))
	assert.True(t, r.Skipping())

	drain(&p, q)
	assert.Equal(t, 6, pushAll(&r, q, "#ABCDE"), "still discarding")
	assert.True(t, r.Push(q, Terminator))
	got := drain(&p, q)
	if assert.Len(t, got, 1) {
		assert.Equal(t, Invalid, got[0].Kind)
	}
}

func TestResyncOnlyDeliversWholeLines(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lines := rapid.SliceOfN(rapid.StringMatching(`#[0-9A-F]{6}([0-9A-F]{2})?`), 1, 20).Draw(t, "lines")
		sent := map[string]bool{}
		var stream []byte
		for _, l := range lines {
			sent[l] = true
			stream = append(stream, l...)
			stream = append(stream, Terminator)
		}
		q := make(chan byte, rapid.IntRange(2, 12).Draw(t, "cap"))
		var r Resync
		var p Parser
		var got []Action
		for _, b := range stream {
			r.Push(q, b)
			if rapid.Bool().Draw(t, "drain") {
				got = append(got, drain(&p, q)...)
			}
		}
		got = append(got, drain(&p, q)...)
		for _, a := range got {
			if a.Kind == SetColor && !sent[a.Line] {
				t.Fatalf("parsed %q, which was never sent", a.Line)
			}
		}
	})
}
