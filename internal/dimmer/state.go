package dimmer

import (
	"time"

	"github.com/coreman2200/lightdimmer/internal/color"
	"github.com/coreman2200/lightdimmer/internal/diagnostics"
)

// State of the arbitration machine.
type State int

const (
	// Held keeps the output at an adopted color until the pots move.
	Held State = iota
	// Live tracks the pots every cycle.
	Live
)

func (s State) String() string {
	if s == Live {
		return "live"
	}
	return "held"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Status is a copy of the controller state handed to observers.
type Status struct {
	State    State        `json:"state"`
	Output   color.Sample `json:"output"`
	Hex      string       `json:"hex"`
	Baseline color.Sample `json:"baseline"`
	Patch    int          `json:"patch"`
	Credits  bool         `json:"credits"`
	Cycle    uint64       `json:"cycle"`
}

// same compares everything but the cycle counter.
func (s Status) same(o Status) bool {
	s.Cycle, o.Cycle = 0, 0
	return s == o
}

// Hooks are called from the control goroutine. They must not block.
type Hooks struct {
	OnStatus func(Status)
	OnDiag   func(diagnostics.Diagnostic)
}

// Settings are the runtime switches of the controller.
type Settings struct {
	EnableMain   bool
	MaxDeviation uint8
	MaxPortBytes int

	DisplayTime time.Duration
	SaveBlinks  int
	BlinkOn     time.Duration
	BlinkOff    time.Duration

	// Banner is written to every port at boot.
	Banner string
	// CreditsText is written to the requesting port when the credits run.
	CreditsText string
}

func DefaultSettings() Settings {
	return Settings{
		EnableMain:   true,
		MaxDeviation: 5,
		MaxPortBytes: 64,
		DisplayTime:  2 * time.Second,
		SaveBlinks:   3,
		BlinkOn:      250 * time.Millisecond,
		BlinkOff:     250 * time.Millisecond,
	}
}
