package led

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// DefaultPWMFreq is fast enough to avoid visible flicker on LED strips.
const DefaultPWMFreq = 1 * physic.KiloHertz

// duty maps an 8-bit level to a PWM duty cycle.
func duty(level uint8) gpio.Duty {
	return gpio.Duty(int64(level) * int64(gpio.DutyMax) / 255)
}

// PWMChannel drives one MOSFET gate with hardware or software PWM.
type PWMChannel struct {
	pin  gpio.PinOut
	freq physic.Frequency
}

func NewPWMChannel(pin gpio.PinOut, freq physic.Frequency) (*PWMChannel, error) {
	if pin == nil {
		return nil, fmt.Errorf("pwm channel has no pin")
	}
	if freq <= 0 {
		freq = DefaultPWMFreq
	}
	return &PWMChannel{pin: pin, freq: freq}, nil
}

func (c *PWMChannel) Set(level uint8) error {
	switch level {
	case 0:
		return c.pin.Out(gpio.Low)
	case 255:
		return c.pin.Out(gpio.High)
	}
	if err := c.pin.PWM(duty(level), c.freq); err != nil {
		return fmt.Errorf("pwm %s: %w", c.pin, err)
	}
	return nil
}

func (c *PWMChannel) Close() error { return c.pin.Halt() }

// PWMStrip is an analog (non addressable) RGB strip on three PWM pins.
type PWMStrip struct {
	ch [3]*PWMChannel
}

func NewPWMStrip(r, g, b gpio.PinOut, freq physic.Frequency) (*PWMStrip, error) {
	var s PWMStrip
	for i, p := range []gpio.PinOut{r, g, b} {
		c, err := NewPWMChannel(p, freq)
		if err != nil {
			return nil, fmt.Errorf("strip channel %d: %w", i, err)
		}
		s.ch[i] = c
	}
	return &s, nil
}

// Write uses the first pixel of the frame.
func (s *PWMStrip) Write(rgb []byte) error {
	if len(rgb) < 3 {
		return fmt.Errorf("short frame: %d bytes", len(rgb))
	}
	for i, c := range s.ch {
		if err := c.Set(rgb[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *PWMStrip) Close() error {
	for _, c := range s.ch {
		if err := c.Close(); err != nil {
			return err
		}
	}
	return nil
}
