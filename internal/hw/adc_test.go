package hw

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"

	"github.com/coreman2200/lightdimmer/internal/pots"
)

// convBus answers every conversion register read with raw.
type convBus struct{ raw int16 }

func (b *convBus) String() string                   { return "convBus" }
func (b *convBus) SetSpeed(f physic.Frequency) error { return nil }
func (b *convBus) Tx(addr uint16, w, r []byte) error {
	if len(r) == 2 {
		binary.BigEndian.PutUint16(r, uint16(b.raw))
	}
	return nil
}

func openTestADS1115(t *testing.T, bus *i2ctest.Record, history int) *ADCSampler {
	t.Helper()
	opts := ads1x15.DefaultOpts
	dev, err := ads1x15.NewADS1115(bus, &opts)
	require.NoError(t, err)
	var pins [4]analog.PinADC
	for i := range pins {
		p, err := dev.PinForChannel(adsChannels[i], 3300*physic.MilliVolt, 860*physic.Hertz, ads1x15.BestQuality)
		require.NoError(t, err)
		pins[i] = p
	}
	s, err := NewADCSampler(pins, history)
	require.NoError(t, err)
	return s
}

func TestADS1115ReadsStayOffTheLoop(t *testing.T) {
	const interval = 2 * time.Millisecond
	bus := &i2ctest.Record{Bus: &convBus{raw: 32767}}
	s := openTestADS1115(t, bus, 16)
	r := pots.NewReader(s, [4]uint8{}, 16)

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		s.Wait()
	}()
	s.Start(ctx)

	// the pump has run a full pass before Start returns
	require.Equal(t, uint16(pots.ReadMax), s.ReadChannel(pots.Red))

	for i := 0; i < 50; i++ {
		start := time.Now()
		live := r.Read()
		if d := time.Since(start); d >= interval/2 {
			t.Fatalf("live read took %v", d)
		}
		start = time.Now()
		base := r.Average()
		if d := time.Since(start); d >= interval/2 {
			t.Fatalf("baseline average took %v", d)
		}
		require.Equal(t, uint8(255), live.G)
		require.Equal(t, uint8(255), base.M)
	}
}

func TestADCPumpStopsWithContext(t *testing.T) {
	bus := &i2ctest.Record{Bus: &convBus{raw: 100}}
	s := openTestADS1115(t, bus, 4)
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("pump did not stop")
	}
}
