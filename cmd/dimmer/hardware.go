package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/lightdimmer/internal/config"
	"github.com/coreman2200/lightdimmer/internal/encoder"
	"github.com/coreman2200/lightdimmer/internal/hw"
	"github.com/coreman2200/lightdimmer/internal/indicator"
	"github.com/coreman2200/lightdimmer/internal/led"
	"github.com/coreman2200/lightdimmer/internal/pots"
)

// peripherals are the opened device adapters.
type peripherals struct {
	sampler  pots.Sampler
	adc      *hw.ADCSampler
	strip    led.Driver
	main     led.Channel
	segments indicator.Segments
	encoder  *encoder.Watcher
	sim      bool

	closers []func() error
}

func (p *peripherals) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// openPeripherals opens the configured hardware. In "auto" mode a failure
// falls back to simulated adapters; the returned error is then the reason.
func openPeripherals(cfg *config.Config, events *encoder.Queue) (*peripherals, error) {
	if cfg.Hardware == "sim" {
		return openSim(cfg), nil
	}
	p, err := openReal(cfg, events)
	if err == nil {
		return p, nil
	}
	if cfg.Hardware == "real" {
		return nil, err
	}
	log.Warn().Err(err).Msg("hardware init failed; falling back to SIM")
	return openSim(cfg), err
}

func openSim(cfg *config.Config) *peripherals {
	p := &peripherals{
		sampler:  hw.NewSimSampler(cfg.Sim.Pots, cfg.Sim.Jitter, time.Now().UnixNano()),
		segments: &indicator.LogSegments{},
		sim:      true,
	}
	if cfg.Strip.Type == "sim" {
		p.strip = led.NewScreen(cfg.Strip.LEDs)
	} else {
		p.strip = &led.Fake{}
	}
	if cfg.Channels.EnableMain {
		p.main = &led.FakeChannel{}
	}
	return p
}

func hz(v int64) physic.Frequency { return physic.Frequency(v) * physic.Hertz }

func openReal(cfg *config.Config, events *encoder.Queue) (p *peripherals, err error) {
	if err := hw.Init(); err != nil {
		return nil, err
	}
	p = &peripherals{}
	defer func() {
		if err != nil {
			_ = p.Close()
			p = nil
		}
	}()

	adc, closeBus, err := hw.OpenADS1115(hw.ADCConfig{
		Bus:      cfg.ADC.Bus,
		Address:  cfg.ADC.Address,
		Channels: cfg.ADC.Channels,
		MaxVolts: cfg.ADC.MaxVolts,
		History:  cfg.Movement.AverageSamples,
	})
	if err != nil {
		return p, err
	}
	p.closers = append(p.closers, closeBus, adc.Close)
	p.sampler = adc
	p.adc = adc

	switch cfg.Strip.Type {
	case "pwm":
		pins, err := hw.Pins(cfg.Strip.Pins...)
		if err != nil {
			return p, fmt.Errorf("strip: %w", err)
		}
		strip, err := led.NewPWMStrip(pins[0], pins[1], pins[2], hz(cfg.Strip.FreqHz))
		if err != nil {
			return p, err
		}
		p.strip = strip
	case "addressable":
		strip, err := led.OpenNRZ(cfg.Strip.SPIPort, cfg.Strip.LEDs, hz(cfg.Strip.FreqHz))
		if err != nil {
			return p, err
		}
		p.strip = strip
	default:
		p.strip = led.NewScreen(cfg.Strip.LEDs)
	}
	p.closers = append(p.closers, p.strip.Close)

	if cfg.Channels.EnableMain && cfg.Main.Pin != "" {
		pin, err := hw.Pin(cfg.Main.Pin)
		if err != nil {
			return p, fmt.Errorf("main: %w", err)
		}
		ch, err := led.NewPWMChannel(pin, hz(cfg.Main.FreqHz))
		if err != nil {
			return p, err
		}
		p.main = ch
		p.closers = append(p.closers, ch.Close)
	}

	if len(cfg.Indicator.Pins) > 0 {
		pins, err := hw.Pins(cfg.Indicator.Pins...)
		if err != nil {
			return p, fmt.Errorf("indicator: %w", err)
		}
		outs := make([]gpio.PinOut, len(pins))
		for i, pin := range pins {
			outs[i] = pin
		}
		seg, err := indicator.NewPinSegments(outs, indicator.CommonMode(cfg.Indicator.CommonMode))
		if err != nil {
			return p, err
		}
		p.segments = seg
	} else {
		p.segments = &indicator.LogSegments{}
	}

	if cfg.Encoder.CLK != "" {
		var enc encoder.Pins
		if enc.CLK, err = hw.Pin(cfg.Encoder.CLK); err != nil {
			return p, fmt.Errorf("encoder clk: %w", err)
		}
		if enc.DT, err = hw.Pin(cfg.Encoder.DT); err != nil {
			return p, fmt.Errorf("encoder dt: %w", err)
		}
		if cfg.Encoder.SW != "" {
			if enc.SW, err = hw.Pin(cfg.Encoder.SW); err != nil {
				return p, fmt.Errorf("encoder sw: %w", err)
			}
		}
		if p.encoder, err = encoder.NewWatcher(enc, events, cfg.Encoder.Debounce); err != nil {
			return p, err
		}
	}
	return p, nil
}
