// Package hw opens the host peripherals and provides simulated stand-ins.
package hw

import (
	"fmt"
	"math/rand"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/coreman2200/lightdimmer/internal/pots"
)

// Init loads the periph host drivers.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}
	return nil
}

// Pin resolves a pin by name ("GPIO17", "17", "P1_11").
func Pin(name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, fmt.Errorf("empty pin name")
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("unknown pin %q", name)
	}
	return p, nil
}

// Pins resolves several pins, failing on the first unknown one.
func Pins(names ...string) ([]gpio.PinIO, error) {
	out := make([]gpio.PinIO, 0, len(names))
	for _, n := range names {
		p, err := Pin(n)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// SimSampler is a set of virtual pots. Readings wobble by up to Jitter
// counts like a real ADC.
type SimSampler struct {
	mu     sync.Mutex
	pos    [4]uint16
	jitter int
	rnd    *rand.Rand
}

func NewSimSampler(pos [4]uint16, jitter int, seed int64) *SimSampler {
	s := &SimSampler{jitter: jitter, rnd: rand.New(rand.NewSource(seed))}
	for i, p := range pos {
		s.pos[i] = clampRead(int(p))
	}
	return s
}

func clampRead(v int) uint16 {
	if v < 0 {
		return 0
	}
	if v > pots.ReadMax {
		return pots.ReadMax
	}
	return uint16(v)
}

// Turn moves a virtual pot to an absolute position.
func (s *SimSampler) Turn(ch pots.Channel, pos int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos[ch] = clampRead(pos)
}

// Position returns the knob position without jitter.
func (s *SimSampler) Position(ch pots.Channel) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos[ch]
}

func (s *SimSampler) ReadChannel(ch pots.Channel) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := int(s.pos[ch])
	if s.jitter > 0 {
		v += s.rnd.Intn(2*s.jitter+1) - s.jitter
	}
	return clampRead(v)
}
