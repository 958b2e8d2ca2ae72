// Package serial moves bytes between a serial port and the control loop.
package serial

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tarm/serial"

	"github.com/coreman2200/lightdimmer/internal/protocol"
)

// DefaultBuffer holds more than a full line plus a few commands.
const DefaultBuffer = 256

// readTimeout lets the pump notice cancellation on an idle line.
const readTimeout = 100 * time.Millisecond

// Stream pumps bytes from a port into a channel and writes replies back.
type Stream struct {
	name string
	rwc  io.ReadWriteCloser
	in   chan byte

	wmu sync.Mutex
	wg  sync.WaitGroup
}

// New wraps rwc. buffer must hold at least two bytes; smaller values get
// DefaultBuffer.
func New(name string, rwc io.ReadWriteCloser, buffer int) *Stream {
	if buffer < 2 {
		buffer = DefaultBuffer
	}
	return &Stream{name: name, rwc: rwc, in: make(chan byte, buffer)}
}

// Open opens a serial device such as /dev/ttyUSB0.
func Open(device string, baud int) (*Stream, error) {
	p, err := serial.OpenPort(&serial.Config{Name: device, Baud: baud, ReadTimeout: readTimeout})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}
	return New(device, p, DefaultBuffer), nil
}

// Dial opens a raw port for host-side tools. A read with nothing to return
// gives up after timeout.
func Dial(device string, baud int, timeout time.Duration) (io.ReadWriteCloser, error) {
	p, err := serial.OpenPort(&serial.Config{Name: device, Baud: baud, ReadTimeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}
	return p, nil
}

func (s *Stream) Name() string { return s.name }

// In is drained by the control loop.
func (s *Stream) In() <-chan byte { return s.in }

// Write sends a reply. Safe for concurrent use.
func (s *Stream) Write(p []byte) (int, error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.rwc.Write(p)
}

// Start runs the read pump until ctx is done or the port fails. A byte that
// arrives while the channel is full is dropped along with the rest of its
// line, which then reaches the reader as an invalid line.
func (s *Stream) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.pump(ctx)
	}()
}

func (s *Stream) pump(ctx context.Context) {
	buf := make([]byte, 64)
	var line protocol.Resync
	dropped := 0
	for ctx.Err() == nil {
		n, err := s.rwc.Read(buf)
		for _, b := range buf[:n] {
			if !line.Push(s.in, b) {
				dropped++
			}
		}
		if dropped > 0 && !line.Skipping() {
			log.Warn().Str("port", s.name).Int("dropped", dropped).Msg("serial input overrun")
			dropped = 0
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			// idle line with a read timeout
			if n == 0 {
				select {
				case <-ctx.Done():
				case <-time.After(readTimeout):
				}
			}
		default:
			if ctx.Err() == nil {
				log.Error().Err(err).Str("port", s.name).Msg("serial read failed")
			}
			return
		}
	}
}

// Close stops the pump by closing the port and waits for it.
func (s *Stream) Close() error {
	err := s.rwc.Close()
	s.wg.Wait()
	return err
}

// Exchange writes cmd and collects the reply lines that arrive within
// window. Line endings are stripped.
func Exchange(ctx context.Context, rw io.ReadWriter, cmd []byte, window time.Duration) ([]string, error) {
	if _, err := rw.Write(cmd); err != nil {
		return nil, fmt.Errorf("write command: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(rw)
		for sc.Scan() {
			select {
			case lines <- strings.TrimRight(sc.Text(), "\r"):
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	var out []string
	for {
		select {
		case l := <-lines:
			out = append(out, l)
		case err := <-errc:
			return out, err
		case <-ctx.Done():
			return out, nil
		}
	}
}
