package serial

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/lightdimmer/internal/protocol"
)

type pipePort struct {
	r *io.PipeReader
	w *io.PipeWriter

	mu  sync.Mutex
	out bytes.Buffer
}

func newPipePort() *pipePort {
	r, w := io.Pipe()
	return &pipePort{r: r, w: w}
}

func (p *pipePort) Read(b []byte) (int, error) { return p.r.Read(b) }
func (p *pipePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.Write(b)
}
func (p *pipePort) Close() error { return p.r.Close() }

func TestStreamPumpsBytes(t *testing.T) {
	port := newPipePort()
	s := New("pipe", port, 16)
	assert.Equal(t, "pipe", s.Name())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	_, err := port.w.Write([]byte("#AABBCC\n"))
	require.NoError(t, err)

	var got []byte
	deadline := time.After(2 * time.Second)
	for len(got) < 8 {
		select {
		case b := <-s.In():
			got = append(got, b)
		case <-deadline:
			t.Fatalf("timed out, got %q", got)
		}
	}
	assert.Equal(t, "#AABBCC\n", string(got))

	_, err = s.Write([]byte("ok\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "ok\r\n", port.out.String())

	cancel()
	require.NoError(t, s.Close())
}

func readN(t *testing.T, s *Stream, n int) []byte {
	t.Helper()
	var got []byte
	deadline := time.After(2 * time.Second)
	for len(got) < n {
		select {
		case b := <-s.In():
			got = append(got, b)
		case <-deadline:
			t.Fatalf("timed out, got %q", got)
		}
	}
	return got
}

func parseAll(p *protocol.Parser, b []byte) []protocol.Action {
	var out []protocol.Action
	for _, c := range b {
		if a, ok := p.Feed(c); ok {
			out = append(out, a)
		}
	}
	return out
}

func TestStreamOverrunDiscardsTheDamagedLine(t *testing.T) {
	port := newPipePort()
	s := New("pipe", port, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		port.w.Close()
		s.Close()
	}()
	s.Start(ctx)

	_, err := port.w.Write([]byte("#AABBCCDD\n"))
	require.NoError(t, err)
	// returns once the pump is done with the first chunk
	_, err = port.w.Write([]byte("0"))
	require.NoError(t, err)

	var p protocol.Parser
	assert.Empty(t, parseAll(&p, readN(t, s, 4)))

	_, err = port.w.Write([]byte("99\n"))
	require.NoError(t, err)
	got := parseAll(&p, readN(t, s, 2))
	require.Len(t, got, 1)
	assert.Equal(t, protocol.Invalid, got[0].Kind, "fragments must not join into %q", got[0].Line)

	got = nil
	for _, b := range []byte("#010203\n") {
		_, err = port.w.Write([]byte{b})
		require.NoError(t, err)
		got = append(got, parseAll(&p, readN(t, s, 1))...)
	}
	require.Len(t, got, 1)
	assert.Equal(t, protocol.SetColor, got[0].Kind)
	assert.Equal(t, "#010203", got[0].Line)
}

type scripted struct {
	io.Reader
	written bytes.Buffer
}

func (s *scripted) Write(p []byte) (int, error) { return s.written.Write(p) }

func TestExchangeCollectsLines(t *testing.T) {
	rw := &scripted{Reader: strings.NewReader("Current Color: #01020304\r\nR: 1\r\nG: 2\r\n")}
	lines, err := Exchange(context.Background(), rw, []byte("g"), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "g", rw.written.String())
	assert.Equal(t, []string{"Current Color: #01020304", "R: 1", "G: 2"}, lines)
}

func TestExchangeStopsAfterWindow(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	rw := &scripted{Reader: r}
	go func() { _, _ = w.Write([]byte("Invalid hex value!\r\n")) }()

	start := time.Now()
	lines, err := Exchange(context.Background(), rw, []byte("#ZZZZZZ\n"), 200*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []string{"Invalid hex value!"}, lines)
	assert.Less(t, time.Since(start), 2*time.Second)
}
