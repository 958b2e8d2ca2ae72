package hw

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"

	"github.com/coreman2200/lightdimmer/internal/pots"
)

// ADCSampler reads the four pots from analog pins and scales each reading
// to [0, pots.ReadMax].
//
// Conversions are slow (a single-shot ADS1115 read sleeps for the whole
// conversion), so they run on a pump goroutine started with Start.
// ReadChannel and Recent only return what the pump last stored.
type ADCSampler struct {
	pins [4]analog.PinADC
	min  [4]int32
	span [4]int32

	mu     sync.Mutex
	last   [4]uint16
	failed [4]bool
	ring   [4][]uint16
	next   [4]int
	filled [4]int

	wg sync.WaitGroup
}

// NewADCSampler takes pins in R, G, B, M order. history is the number of
// readings kept per channel for Recent.
func NewADCSampler(pins [4]analog.PinADC, history int) (*ADCSampler, error) {
	if history < 1 {
		history = 1
	}
	s := &ADCSampler{pins: pins}
	for i, p := range pins {
		if p == nil {
			return nil, fmt.Errorf("pot %s has no adc pin", pots.Channels[i])
		}
		lo, hi := p.Range()
		if hi.Raw <= lo.Raw {
			return nil, fmt.Errorf("pot %s: empty adc range", pots.Channels[i])
		}
		// pots are wired between ground and the reference, negative
		// readings are noise
		if lo.Raw < 0 {
			lo.Raw = 0
		}
		s.min[i] = lo.Raw
		s.span[i] = hi.Raw - lo.Raw
		s.ring[i] = make([]uint16, history)
	}
	return s, nil
}

func (s *ADCSampler) scale(i int, raw int32) uint16 {
	v := int64(raw-s.min[i]) * pots.ReadMax / int64(s.span[i])
	switch {
	case v < 0:
		return 0
	case v > pots.ReadMax:
		return pots.ReadMax
	default:
		return uint16(v)
	}
}

// Start primes every channel with one conversion, then keeps converting
// round-robin until ctx is done.
func (s *ADCSampler) Start(ctx context.Context) {
	s.poll()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for ctx.Err() == nil {
			s.poll()
		}
	}()
}

// Wait blocks until the pump started by Start has returned.
func (s *ADCSampler) Wait() { s.wg.Wait() }

// poll converts each channel once. On a read error the channel keeps its
// previous value and the error is logged once until the pin recovers.
func (s *ADCSampler) poll() {
	for i, p := range s.pins {
		smp, err := p.Read()
		s.mu.Lock()
		if err != nil {
			if !s.failed[i] {
				log.Warn().Err(err).Str("pot", pots.Channels[i].String()).Msg("adc read failed; holding last value")
				s.failed[i] = true
			}
			s.mu.Unlock()
			continue
		}
		s.failed[i] = false
		v := s.scale(i, smp.Raw)
		s.last[i] = v
		s.ring[i][s.next[i]] = v
		s.next[i] = (s.next[i] + 1) % len(s.ring[i])
		if s.filled[i] < len(s.ring[i]) {
			s.filled[i]++
		}
		s.mu.Unlock()
	}
}

// ReadChannel returns the latest converted reading without touching the bus.
func (s *ADCSampler) ReadChannel(ch pots.Channel) uint16 {
	i := int(ch)
	if i < 0 || i >= len(s.pins) {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last[i]
}

// Recent returns up to n of the newest readings of ch, oldest first.
func (s *ADCSampler) Recent(ch pots.Channel, n int) []uint16 {
	i := int(ch)
	if i < 0 || i >= len(s.pins) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > s.filled[i] {
		n = s.filled[i]
	}
	size := len(s.ring[i])
	out := make([]uint16, n)
	for k := 0; k < n; k++ {
		out[k] = s.ring[i][(s.next[i]-n+k+size)%size]
	}
	return out
}

func (s *ADCSampler) Close() error {
	for _, p := range s.pins {
		if err := p.Halt(); err != nil {
			return err
		}
	}
	return nil
}

// ADCConfig selects the ADS1115 and its channels.
type ADCConfig struct {
	Bus      string
	Address  uint16
	Channels [4]int
	MaxVolts float64
	Freq     physic.Frequency
	// History is the number of readings per channel kept for averaging.
	History int
}

var adsChannels = []ads1x15.Channel{ads1x15.Channel0, ads1x15.Channel1, ads1x15.Channel2, ads1x15.Channel3}

// OpenADS1115 opens the ADC on an I²C bus and returns a sampler plus a
// closer for the bus.
func OpenADS1115(c ADCConfig) (*ADCSampler, func() error, error) {
	bus, err := i2creg.Open(c.Bus)
	if err != nil {
		return nil, nil, fmt.Errorf("open i2c %q: %w", c.Bus, err)
	}
	opts := ads1x15.DefaultOpts
	if c.Address != 0 {
		opts.I2cAddress = c.Address
	}
	dev, err := ads1x15.NewADS1115(bus, &opts)
	if err != nil {
		_ = bus.Close()
		return nil, nil, fmt.Errorf("ads1115: %w", err)
	}
	maxV := physic.ElectricPotential(c.MaxVolts * float64(physic.Volt))
	if maxV <= 0 {
		maxV = 3300 * physic.MilliVolt
	}
	freq := c.Freq
	if freq <= 0 {
		freq = 860 * physic.Hertz
	}
	var pins [4]analog.PinADC
	for i, n := range c.Channels {
		if n < 0 || n >= len(adsChannels) {
			_ = bus.Close()
			return nil, nil, fmt.Errorf("pot %s: adc channel %d out of range", pots.Channels[i], n)
		}
		p, err := dev.PinForChannel(adsChannels[n], maxV, freq, ads1x15.BestQuality)
		if err != nil {
			_ = bus.Close()
			return nil, nil, fmt.Errorf("pot %s: %w", pots.Channels[i], err)
		}
		pins[i] = p
	}
	s, err := NewADCSampler(pins, c.History)
	if err != nil {
		_ = bus.Close()
		return nil, nil, err
	}
	return s, bus.Close, nil
}
