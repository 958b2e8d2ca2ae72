package led

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"
)

// pixelDev is satisfied by nrzled.Dev and screen.Dev.
type pixelDev interface {
	Write(pixels []byte) (int, error)
	Halt() error
}

// PixelStrip writes frames to an addressable pixel device.
type PixelStrip struct {
	dev    pixelDev
	closer func() error
}

func (s *PixelStrip) Write(rgb []byte) error {
	if _, err := s.dev.Write(rgb); err != nil {
		return err
	}
	return nil
}

func (s *PixelStrip) Close() error {
	err := s.dev.Halt()
	if s.closer != nil {
		if cerr := s.closer(); err == nil {
			err = cerr
		}
	}
	return err
}

// OpenNRZ opens a WS281x strip on an SPI port ("" for the first one).
func OpenNRZ(port string, pixels int, freq physic.Frequency) (*PixelStrip, error) {
	p, err := spireg.Open(port)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", port, err)
	}
	if freq <= 0 {
		freq = 2500 * physic.KiloHertz
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: pixels,
		Channels:  3,
		Freq:      freq,
	})
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	if err := d.Halt(); err != nil {
		_ = p.Close()
		return nil, err
	}
	return &PixelStrip{dev: d, closer: p.Close}, nil
}

// NewScreen prints the strip as colored blocks on the terminal.
func NewScreen(pixels int) *PixelStrip {
	return &PixelStrip{dev: screen.New(pixels)}
}
