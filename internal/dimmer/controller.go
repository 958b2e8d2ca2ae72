// Package dimmer is the control loop: it arbitrates between the pots and an
// adopted color, services the programming ports and the patch encoder, and
// drives the output.
//
// A Controller is owned by one goroutine. Inputs from other goroutines reach
// it through channels that Cycle drains without blocking.
package dimmer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/lightdimmer/internal/color"
	"github.com/coreman2200/lightdimmer/internal/credits"
	"github.com/coreman2200/lightdimmer/internal/diagnostics"
	"github.com/coreman2200/lightdimmer/internal/encoder"
	"github.com/coreman2200/lightdimmer/internal/metrics"
	"github.com/coreman2200/lightdimmer/internal/patch"
	"github.com/coreman2200/lightdimmer/internal/pots"
	"github.com/coreman2200/lightdimmer/internal/protocol"
)

// Pots is the live and averaged view of the four potentiometers.
type Pots interface {
	Read() color.Sample
	Average() color.Sample
}

// Output is the live output device.
type Output interface {
	Set(color.Sample) error
	Get() color.Sample
}

// Indicator is the patch digit.
type Indicator interface {
	Set(int)
	Show(time.Duration)
	Blink(n int, on, off time.Duration)
	Busy() bool
	Update()
}

// Port is one programming byte stream. In is drained without blocking; Out
// receives report lines.
type Port struct {
	Name string
	In   <-chan byte
	Out  io.Writer
}

type port struct {
	Port
	parser protocol.Parser
	closed bool
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Pots      Pots
	Output    Output
	Bank      *patch.Bank
	Events    encoder.Source
	Indicator Indicator
	// Credits is the easter egg animation; nil disables it.
	Credits *credits.Program
	Hooks   Hooks
	// Now defaults to time.Now.
	Now func() time.Time
}

type Controller struct {
	cfg Settings

	pots    Pots
	out     Output
	bank    *patch.Bank
	events  encoder.Source
	ind     Indicator
	credits *credits.Player
	hooks   Hooks
	now     func() time.Time

	ports []*port

	state    State
	baseline color.Sample
	booted   bool
	cycle    uint64

	outputFailing bool
	last          Status
	published     bool
}

func New(d Deps, s Settings) (*Controller, error) {
	switch {
	case d.Pots == nil:
		return nil, errors.New("dimmer needs pots")
	case d.Output == nil:
		return nil, errors.New("dimmer needs an output")
	case d.Bank == nil:
		return nil, errors.New("dimmer needs a patch bank")
	case d.Indicator == nil:
		return nil, errors.New("dimmer needs an indicator")
	}
	if s.MaxPortBytes < 1 {
		s.MaxPortBytes = 1
	}
	c := &Controller{
		cfg:    s,
		pots:   d.Pots,
		out:    d.Output,
		bank:   d.Bank,
		events: d.Events,
		ind:    d.Indicator,
		hooks:  d.Hooks,
		now:    d.Now,
		state:  Held,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.events == nil {
		c.events = encoder.NewQueue(1)
	}
	if d.Credits != nil {
		p, err := credits.NewPlayer(*d.Credits, credits.Hooks{
			Frame: func(rgb color.Sample) { c.setOutput(c.out.Get().WithRGB(rgb)) },
			Done:  c.creditsDone,
		})
		if err != nil {
			return nil, fmt.Errorf("credits: %w", err)
		}
		c.credits = p
	}
	return c, nil
}

// AddPort registers a programming port. Call before Boot.
func (c *Controller) AddPort(p Port) {
	c.ports = append(c.ports, &port{Port: p})
}

// Boot loads the patches, adopts patch 0 and takes the first baseline.
func (c *Controller) Boot() {
	if c.cfg.Banner != "" {
		for _, p := range c.ports {
			c.write(p, c.cfg.Banner)
		}
	}

	if err := c.bank.LoadAll(); err != nil {
		log.Error().Err(err).Msg("loading patches failed; starting dark")
		c.diag(diagnostics.New(diagnostics.Err, diagnostics.BootPatchLoad, "Patch bank could not be loaded").
			With("error", err.Error()))
	}

	c.setOutput(c.masked(c.bank.Current()))
	c.ind.Set(0)
	c.ind.Show(c.cfg.DisplayTime)
	c.baseline = c.pots.Average()
	c.state = Held
	c.booted = true
	metrics.Held.Set(1)
	metrics.PatchIndex.Set(0)

	log.Info().Str("output", c.out.Get().Hex()).Str("baseline", c.baseline.Hex()).Msg("dimmer booted")
	c.diag(diagnostics.New(diagnostics.Info, diagnostics.BootDone, "Booted on patch 0").
		With("output", c.out.Get().Hex()))
	c.publish()
}

// Cycle runs one control pass: sample, arbitrate, output, protocol,
// navigation and save, display. It never blocks.
func (c *Controller) Cycle() {
	if !c.booted {
		c.Boot()
	}
	c.cycle++

	if c.credits != nil && c.credits.Active() {
		c.credits.Tick(c.now())
		c.updateIndicator()
		c.publish()
		return
	}

	reading := c.masked(c.pots.Read())
	switch c.state {
	case Held:
		if pots.Moved(reading, c.baseline, c.cfg.MaxDeviation, c.cfg.EnableMain) {
			c.transition(Live, "movement")
			c.setOutput(reading)
		}
	case Live:
		c.setOutput(reading)
	}

	c.servicePorts()
	if c.credits == nil || !c.credits.Active() {
		c.serviceEncoder()
	}
	c.updateIndicator()
	c.publish()
}

func (c *Controller) updateIndicator() {
	if c.ind.Busy() {
		c.ind.Update()
	}
}

// masked keeps the current main level when the main channel is disabled.
func (c *Controller) masked(s color.Sample) color.Sample {
	if !c.cfg.EnableMain {
		s.M = c.out.Get().M
	}
	return s
}

// adopt makes col authoritative and measures movement from the pots' current
// position.
func (c *Controller) adopt(col color.Sample, cause string) {
	c.setOutput(c.masked(col))
	c.baseline = c.pots.Average()
	c.transition(Held, cause)
}

func (c *Controller) transition(to State, cause string) {
	if to == c.state {
		return
	}
	log.Debug().Str("from", c.state.String()).Str("to", to.String()).Str("cause", cause).Msg("state change")
	c.state = to
	metrics.Transitions.WithLabelValues(to.String(), cause).Inc()
	if to == Held {
		metrics.Held.Set(1)
	} else {
		metrics.Held.Set(0)
		c.diag(diagnostics.New(diagnostics.Info, diagnostics.StateLive, "Pots took over the output"))
	}
}

func (c *Controller) setOutput(col color.Sample) {
	if err := c.out.Set(col); err != nil {
		metrics.OutputErrors.Inc()
		if !c.outputFailing {
			c.outputFailing = true
			log.Warn().Err(err).Str("color", col.Hex()).Msg("output write failed")
			c.diag(diagnostics.New(diagnostics.Err, diagnostics.OutputFailed, "Output write failed").
				With("error", err.Error()))
		}
		return
	}
	if c.outputFailing {
		c.outputFailing = false
		log.Info().Msg("output recovered")
		c.diag(diagnostics.New(diagnostics.Info, diagnostics.OutputRecovered, "Output write recovered"))
	}
	metrics.Output.WithLabelValues("r").Set(float64(col.R))
	metrics.Output.WithLabelValues("g").Set(float64(col.G))
	metrics.Output.WithLabelValues("b").Set(float64(col.B))
	metrics.Output.WithLabelValues("m").Set(float64(col.M))
}

func (c *Controller) servicePorts() {
	for _, p := range c.ports {
		if c.credits != nil && c.credits.Active() {
			return
		}
		c.drain(p)
	}
}

func (c *Controller) drain(p *port) {
	if p.closed || p.In == nil {
		return
	}
	for i := 0; i < c.cfg.MaxPortBytes; i++ {
		select {
		case b, ok := <-p.In:
			if !ok {
				p.closed = true
				log.Debug().Str("port", p.Name).Msg("port closed")
				return
			}
			a, done := p.parser.Feed(b)
			if !done {
				continue
			}
			c.handle(p, a)
			if a.Kind == protocol.ShowCredits {
				// the rest waits until the animation is over
				return
			}
		default:
			return
		}
	}
}

func (c *Controller) handle(p *port, a protocol.Action) {
	metrics.Commands.WithLabelValues(p.Name, a.Kind.String()).Inc()
	switch a.Kind {
	case protocol.Query:
		if p.Out != nil {
			if err := protocol.Report(p.Out, c.out.Get()); err != nil {
				log.Warn().Err(err).Str("port", p.Name).Msg("report failed")
			}
		}
	case protocol.SetColor:
		col := a.Color
		if !a.HasMain {
			col.M = c.out.Get().M
		}
		c.adopt(col, "protocol")
		log.Info().Str("port", p.Name).Str("color", c.out.Get().Hex()).Msg("color programmed")
		c.diag(diagnostics.New(diagnostics.Info, diagnostics.ProtoSetColor, "Color programmed").
			With("port", p.Name).With("color", c.out.Get().Hex()))
	case protocol.Invalid:
		if p.Out != nil {
			if err := protocol.ReportInvalid(p.Out); err != nil {
				log.Warn().Err(err).Str("port", p.Name).Msg("report failed")
			}
		}
		log.Debug().Str("port", p.Name).Str("line", strconv.Quote(a.Line)).Msg("invalid hex value")
		c.diag(diagnostics.New(diagnostics.Warn, diagnostics.ProtoInvalidHex, "Invalid hex value").
			With("port", p.Name).With("line", a.Line))
	case protocol.ShowCredits:
		if c.credits == nil {
			return
		}
		if c.cfg.CreditsText != "" {
			c.write(p, c.cfg.CreditsText)
		}
		c.credits.Start(c.now(), c.out.Get())
		c.diag(diagnostics.New(diagnostics.Info, diagnostics.CreditsStarted, "Credits started").With("port", p.Name))
	}
}

func (c *Controller) creditsDone(prior color.Sample) {
	c.setOutput(c.out.Get().WithRGB(prior))
	c.diag(diagnostics.New(diagnostics.Info, diagnostics.CreditsFinished, "Credits finished"))
}

func (c *Controller) serviceEncoder() {
	switch e := c.events.Next(); e {
	case encoder.Pressed:
		c.save()
	case encoder.RotatedLeft:
		c.navigate(patch.Previous)
	case encoder.RotatedRight:
		c.navigate(patch.Next)
	}
}

func (c *Controller) navigate(dir patch.Direction) {
	idx, err := c.bank.Select(dir)
	if err != nil {
		log.Debug().Err(err).Str("direction", dir.String()).Int("patch", idx).Msg("navigation ignored")
		return
	}
	c.adopt(c.bank.Current(), "patch")
	c.ind.Set(idx)
	c.ind.Show(c.cfg.DisplayTime)
	metrics.PatchIndex.Set(float64(idx))
	log.Info().Int("patch", idx).Str("color", c.out.Get().Hex()).Msg("patch loaded")
	c.diag(diagnostics.New(diagnostics.Info, diagnostics.PatchSelected, "Patch loaded").
		With("patch", idx).With("color", c.out.Get().Hex()))
}

func (c *Controller) save() {
	cur := c.out.Get()
	idx := c.bank.Cursor()
	if err := c.bank.SaveCurrent(cur); err != nil {
		metrics.PatchSaves.WithLabelValues("error").Inc()
		log.Error().Err(err).Int("patch", idx).Msg("saving patch failed")
		c.diag(diagnostics.New(diagnostics.Err, diagnostics.PatchSaveFailed, "Patch save failed").
			With("patch", idx).With("error", err.Error()))
	} else {
		metrics.PatchSaves.WithLabelValues("ok").Inc()
		log.Info().Int("patch", idx).Str("color", cur.Hex()).Msg("patch saved")
		c.diag(diagnostics.New(diagnostics.Info, diagnostics.PatchSaved, "Patch saved").
			With("patch", idx).With("color", cur.Hex()))
	}
	c.ind.Blink(c.cfg.SaveBlinks, c.cfg.BlinkOn, c.cfg.BlinkOff)
}

func (c *Controller) write(p *port, s string) {
	if p.Out == nil {
		return
	}
	if _, err := io.WriteString(p.Out, s); err != nil {
		log.Warn().Err(err).Str("port", p.Name).Msg("port write failed")
	}
}

func (c *Controller) diag(d diagnostics.Diagnostic) {
	if c.hooks.OnDiag != nil {
		c.hooks.OnDiag(d)
	}
}

// Status returns a snapshot of the controller.
func (c *Controller) Status() Status {
	out := c.out.Get()
	return Status{
		State:    c.state,
		Output:   out,
		Hex:      out.Hex(),
		Baseline: c.baseline,
		Patch:    c.bank.Cursor(),
		Credits:  c.credits != nil && c.credits.Active(),
		Cycle:    c.cycle,
	}
}

// State returns the arbitration state.
func (c *Controller) State() State { return c.state }

// Baseline returns the movement reference.
func (c *Controller) Baseline() color.Sample { return c.baseline }

func (c *Controller) publish() {
	if c.hooks.OnStatus == nil {
		return
	}
	s := c.Status()
	if c.published && s.same(c.last) {
		return
	}
	c.last = s
	c.published = true
	c.hooks.OnStatus(s)
}
