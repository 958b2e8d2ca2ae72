package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Channels switches the per-installation channel features.
type Channels struct {
	EnableMain bool `yaml:"enable_main"`
	InvertPots bool `yaml:"invert_pots"`
	// Deadbands in R, G, B, M order. A live reading <= the bound reads as 0.
	Deadbands [4]uint8 `yaml:"deadbands,flow"`
}

type Movement struct {
	MaxDeviation   uint8 `yaml:"max_deviation"`
	AverageSamples int   `yaml:"average_samples"`
}

type Loop struct {
	Interval time.Duration `yaml:"interval"`
	// MaxPortBytes bounds the bytes drained from each port per cycle.
	MaxPortBytes int `yaml:"max_port_bytes"`
}

type Patches struct {
	Path     string `yaml:"path"`
	BaseAddr int64  `yaml:"base_addr"`
}

type Serial struct {
	Port string `yaml:"port"` // e.g. /dev/ttyUSB0, empty disables
	Baud int    `yaml:"baud"`
}

type Strip struct {
	Type    string   `yaml:"type"`                // "pwm" | "addressable" | "sim"
	LEDs    int      `yaml:"leds"`
	Pins    []string `yaml:"pins,flow,omitempty"` // pwm: R, G, B
	SPIPort string   `yaml:"spi_port,omitempty"`
	FreqHz  int64    `yaml:"freq_hz,omitempty"`
}

type Main struct {
	Pin    string `yaml:"pin"`
	FreqHz int64  `yaml:"freq_hz,omitempty"`
}

type ADC struct {
	Bus      string  `yaml:"i2c_bus"`
	Address  uint16  `yaml:"address"`
	Channels [4]int  `yaml:"channels,flow"`
	MaxVolts float64 `yaml:"max_volts"`
}

type Encoder struct {
	CLK      string        `yaml:"clk"`
	DT       string        `yaml:"dt"`
	SW       string        `yaml:"sw"`
	Debounce time.Duration `yaml:"debounce"`
}

type Indicator struct {
	CommonMode  string        `yaml:"common_mode"`         // "anode" | "cathode"
	Pins        []string      `yaml:"pins,flow,omitempty"` // A..G[,DP]
	DisplayTime time.Duration `yaml:"display_time"`
	SaveBlinks  int           `yaml:"save_blinks"`
	BlinkOn     time.Duration `yaml:"blink_on"`
	BlinkOff    time.Duration `yaml:"blink_off"`
}

type Monitor struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type Sim struct {
	Pots   [4]uint16 `yaml:"pots,flow"`
	Jitter int       `yaml:"jitter"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" | "json"
}

type Boot struct {
	Banner        bool     `yaml:"banner"`
	Authors       []string `yaml:"authors,omitempty"`
	License       string   `yaml:"license,omitempty"`
	Documentation string   `yaml:"documentation,omitempty"`
}

type Config struct {
	// Hardware "auto" tries the real peripherals and falls back to sim.
	Hardware string `yaml:"hardware"` // "auto" | "real" | "sim"

	Channels  Channels  `yaml:"channels"`
	Movement  Movement  `yaml:"movement"`
	Loop      Loop      `yaml:"loop"`
	Patches   Patches   `yaml:"patches"`
	Serial    Serial    `yaml:"serial"`
	Strip     Strip     `yaml:"strip"`
	Main      Main      `yaml:"main"`
	ADC       ADC       `yaml:"adc"`
	Encoder   Encoder   `yaml:"encoder"`
	Indicator Indicator `yaml:"indicator"`
	Monitor   Monitor   `yaml:"monitor"`
	Sim       Sim       `yaml:"sim"`
	Log       Log       `yaml:"log"`
	Boot      Boot      `yaml:"boot"`
}

// Default is a Raspberry Pi with an ADS1115, an analog RGB strip and a main
// strip on PWM pins.
func Default() Config {
	return Config{
		Hardware: "auto",
		Channels: Channels{EnableMain: true},
		Movement: Movement{MaxDeviation: 5, AverageSamples: 16},
		Loop:     Loop{Interval: 2 * time.Millisecond, MaxPortBytes: 64},
		Patches:  Patches{Path: "patches.eeprom"},
		Serial:   Serial{Baud: 9600},
		Strip: Strip{
			Type: "pwm",
			LEDs: 1,
			Pins: []string{"GPIO12", "GPIO13", "GPIO18"},
		},
		Main: Main{Pin: "GPIO19"},
		ADC:  ADC{Address: 0x48, Channels: [4]int{0, 1, 2, 3}, MaxVolts: 3.3},
		Encoder: Encoder{
			CLK:      "GPIO5",
			DT:       "GPIO6",
			SW:       "GPIO26",
			Debounce: 2 * time.Millisecond,
		},
		Indicator: Indicator{
			CommonMode:  "anode",
			Pins:        []string{"GPIO4", "GPIO17", "GPIO27", "GPIO22", "GPIO23", "GPIO24", "GPIO25"},
			DisplayTime: 2 * time.Second,
			SaveBlinks:  3,
			BlinkOn:     250 * time.Millisecond,
			BlinkOff:    250 * time.Millisecond,
		},
		Monitor: Monitor{Addr: ":8080"},
		Sim:     Sim{Pots: [4]uint16{512, 512, 512, 512}, Jitter: 2},
		Log:     Log{Level: "info", Format: "console"},
		Boot: Boot{
			Banner:        true,
			Authors:       []string{"lightdimmer contributors"},
			License:       "MIT",
			Documentation: "https://github.com/coreman2200/lightdimmer",
		},
	}
}

var ErrInvalid = errors.New("invalid config")

func invalid(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, a...))
}

// Validate checks the values the control loop depends on.
func (c *Config) Validate() error {
	switch c.Hardware {
	case "auto", "real", "sim":
	default:
		return invalid("hardware %q", c.Hardware)
	}
	if c.Movement.AverageSamples < 1 {
		return invalid("movement.average_samples must be >= 1")
	}
	if c.Loop.Interval <= 0 {
		return invalid("loop.interval must be positive")
	}
	if c.Loop.MaxPortBytes < 1 {
		return invalid("loop.max_port_bytes must be >= 1")
	}
	if c.Patches.Path == "" {
		return invalid("patches.path is empty")
	}
	if c.Patches.BaseAddr < 0 {
		return invalid("patches.base_addr is negative")
	}
	if c.Strip.LEDs < 1 {
		return invalid("strip.leds must be >= 1")
	}
	switch c.Strip.Type {
	case "pwm":
		if c.Hardware != "sim" && len(c.Strip.Pins) != 3 {
			return invalid("pwm strip needs 3 pins, got %d", len(c.Strip.Pins))
		}
	case "addressable", "sim":
	default:
		return invalid("strip.type %q", c.Strip.Type)
	}
	for i, n := range c.ADC.Channels {
		if n < 0 || n > 3 {
			return invalid("adc.channels[%d] = %d", i, n)
		}
	}
	switch c.Indicator.CommonMode {
	case "anode", "cathode":
	default:
		return invalid("indicator.common_mode %q", c.Indicator.CommonMode)
	}
	if n := len(c.Indicator.Pins); n != 0 && n != 7 && n != 8 {
		return invalid("indicator needs 7 or 8 pins, got %d", n)
	}
	if c.Indicator.SaveBlinks < 0 {
		return invalid("indicator.save_blinks is negative")
	}
	if c.Serial.Port != "" && c.Serial.Baud <= 0 {
		return invalid("serial.baud must be positive")
	}
	return nil
}

// Load reads a YAML file on top of Default.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
