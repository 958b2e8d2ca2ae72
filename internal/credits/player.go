// Package credits plays the easter egg animation over the RGB strip.
//
// The player never blocks: the control loop calls Tick once per cycle and
// the player emits at most one frame through its hooks.
package credits

import (
	"errors"
	"time"

	"github.com/coreman2200/lightdimmer/internal/color"
)

// Program is one animation: an envelope per RGB channel.
type Program struct {
	Name      string   `json:"name" yaml:"name"`
	DurationS float64  `json:"durationS" yaml:"duration_s"`
	R         Envelope `json:"r" yaml:"r"`
	G         Envelope `json:"g" yaml:"g"`
	B         Envelope `json:"b" yaml:"b"`
}

// Frame returns the RGB color at t. M is left at zero.
func (p Program) Frame(t float64) color.Sample {
	return color.Sample{R: p.R.Byte(t), G: p.G.Byte(t), B: p.B.Byte(t)}
}

// PlayerState enumerates player states.
type PlayerState string

const (
	Idle    PlayerState = "idle"
	Running PlayerState = "running"
)

// Hooks are the callbacks into the output stage.
type Hooks struct {
	// Frame is called with each new RGB frame while running.
	Frame func(rgb color.Sample)
	// Done is called once with the RGB color that was showing at Start.
	Done func(prior color.Sample)
}

// Player owns the credits timeline.
type Player struct {
	State PlayerState

	prog  Program
	prior color.Sample
	start time.Time
	last  color.Sample
	hooks Hooks
}

func NewPlayer(prog Program, h Hooks) (*Player, error) {
	if prog.DurationS <= 0 {
		return nil, errors.New("credits program has no duration")
	}
	return &Player{State: Idle, prog: prog, hooks: h}, nil
}

// Start begins playback at now. prior is restored when the program ends.
// Starting while running restarts the timeline but keeps the first prior.
func (p *Player) Start(now time.Time, prior color.Sample) {
	if p.State != Running {
		p.prior = prior
	}
	p.State = Running
	p.start = now
	p.last = p.prog.Frame(0)
	if p.hooks.Frame != nil {
		p.hooks.Frame(p.last)
	}
}

// Tick advances to now. It returns false once the player is idle.
func (p *Player) Tick(now time.Time) bool {
	if p.State != Running {
		return false
	}
	t := now.Sub(p.start).Seconds()
	if t >= p.prog.DurationS {
		p.Stop()
		return false
	}
	if f := p.prog.Frame(t); f != p.last {
		p.last = f
		if p.hooks.Frame != nil {
			p.hooks.Frame(f)
		}
	}
	return true
}

// Stop ends playback early and restores the prior color.
func (p *Player) Stop() {
	if p.State != Running {
		return
	}
	p.State = Idle
	if p.hooks.Done != nil {
		p.hooks.Done(p.prior)
	}
}

// Active reports whether the animation is running.
func (p *Player) Active() bool { return p.State == Running }

// Default is a short red, green, blue chase that fades through white.
func Default() Program {
	pulse := func(at float64) Envelope {
		return Envelope{Keys: []Keyframe{
			{T: 0, V: 0},
			{T: at, V: 0, Ease: "smooth"},
			{T: at + 0.5, V: 255, Ease: "smooth"},
			{T: at + 1.0, V: 0},
			{T: 3.5, V: 0, Ease: "cubic"},
			{T: 4.25, V: 255, Ease: "cubic"},
			{T: 5.0, V: 0},
		}}
	}
	return Program{
		Name:      "credits",
		DurationS: 5.0,
		R:         pulse(0),
		G:         pulse(1.0),
		B:         pulse(2.0),
	}
}
