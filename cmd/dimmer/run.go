package main

import (
	"context"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/lightdimmer/internal/config"
	"github.com/coreman2200/lightdimmer/internal/credits"
	"github.com/coreman2200/lightdimmer/internal/diagnostics"
	"github.com/coreman2200/lightdimmer/internal/dimmer"
	"github.com/coreman2200/lightdimmer/internal/encoder"
	"github.com/coreman2200/lightdimmer/internal/indicator"
	"github.com/coreman2200/lightdimmer/internal/led"
	"github.com/coreman2200/lightdimmer/internal/monitor"
	"github.com/coreman2200/lightdimmer/internal/patch"
	"github.com/coreman2200/lightdimmer/internal/pots"
	"github.com/coreman2200/lightdimmer/internal/serial"
)

func newRunCmd(o *options) *cobra.Command {
	var monitorAddr string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Boot the dimmer and run the control loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("monitor") {
				cfg.Monitor.Enabled = monitorAddr != ""
				cfg.Monitor.Addr = monitorAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&monitorAddr, "monitor", "", "serve the status monitor on this address (overrides config)")
	return cmd
}

func settings(cfg *config.Config) dimmer.Settings {
	s := dimmer.Settings{
		EnableMain:   cfg.Channels.EnableMain,
		MaxDeviation: cfg.Movement.MaxDeviation,
		MaxPortBytes: cfg.Loop.MaxPortBytes,
		DisplayTime:  cfg.Indicator.DisplayTime,
		SaveBlinks:   cfg.Indicator.SaveBlinks,
		BlinkOn:      cfg.Indicator.BlinkOn,
		BlinkOff:     cfg.Indicator.BlinkOff,
		CreditsText:  dimmer.CreditsText(cfg.Boot.Authors),
	}
	if cfg.Boot.Banner {
		s.Banner = dimmer.Banner(cfg.Boot.Authors, cfg.Boot.License, cfg.Boot.Documentation, buildTime())
	}
	return s
}

// buildTime is the commit time stamped by the go tool, or the binary's
// modification time for builds outside a repository.
func buildTime() time.Time {
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
					return t
				}
			}
		}
	}
	if exe, err := os.Executable(); err == nil {
		if fi, err := os.Stat(exe); err == nil {
			return fi.ModTime()
		}
	}
	return time.Now()
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := encoder.NewQueue(encoder.DefaultQueueSize)
	periph, hwErr := openPeripherals(cfg, events)
	if periph == nil {
		return hwErr
	}
	defer func() {
		if err := periph.Close(); err != nil {
			log.Warn().Err(err).Msg("closing peripherals")
		}
	}()

	if periph.adc != nil {
		periph.adc.Start(ctx)
		defer func() {
			cancel()
			periph.adc.Wait()
		}()
	}

	sampler := periph.sampler
	if cfg.Channels.InvertPots {
		sampler = pots.Inverted(sampler)
	}
	reader := pots.NewReader(sampler, cfg.Channels.Deadbands, cfg.Movement.AverageSamples)

	out, err := led.NewOutput(periph.strip, cfg.Strip.LEDs, periph.main)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			log.Warn().Err(err).Msg("blanking output")
		}
	}()

	store, err := patch.NewFileStorage(cfg.Patches.Path, cfg.Patches.BaseAddr)
	if err != nil {
		return err
	}

	var hooks dimmer.Hooks
	var mon *monitor.State
	if cfg.Monitor.Enabled {
		mon = monitor.NewState()
		hooks.OnStatus = mon.PublishStatus
		hooks.OnDiag = mon.PushDiag
		if hwErr != nil {
			mon.PushDiag(diagnostics.New(diagnostics.Warn, diagnostics.HardwareFallback, "Hardware unavailable; running simulated").
				With("error", hwErr.Error()))
		}
	}

	prog := credits.Default()
	ctl, err := dimmer.New(dimmer.Deps{
		Pots:      reader,
		Output:    out,
		Bank:      patch.NewBank(store),
		Events:    events,
		Indicator: indicator.New(periph.segments),
		Credits:   &prog,
		Hooks:     hooks,
	}, settings(cfg))
	if err != nil {
		return err
	}

	if cfg.Serial.Port != "" {
		port, err := serial.Open(cfg.Serial.Port, cfg.Serial.Baud)
		if err != nil {
			log.Warn().Err(err).Str("port", cfg.Serial.Port).Msg("serial port unavailable; continuing without it")
		} else {
			port.Start(ctx)
			defer port.Close()
			ctl.AddPort(dimmer.Port{Name: "serial", In: port.In(), Out: port})
			log.Info().Str("port", port.Name()).Int("baud", cfg.Serial.Baud).Msg("serial port open")
		}
	}

	errc := make(chan error, 1)
	if mon != nil {
		ctl.AddPort(mon.Console().Port())
		go func() { errc <- mon.Serve(ctx, cfg.Monitor.Addr) }()
	}

	if periph.encoder != nil {
		periph.encoder.Watch(ctx)
		defer func() {
			cancel()
			periph.encoder.Wait()
		}()
	}

	log.Info().
		Bool("sim", periph.sim).
		Str("patches", store.Path()).
		Bool("main", cfg.Channels.EnableMain).
		Dur("interval", cfg.Loop.Interval).
		Msg("dimmer starting")

	runErr := make(chan error, 1)
	go func() { runErr <- dimmer.NewRunner(ctl, cfg.Loop.Interval).Run(ctx) }()

	select {
	case err := <-runErr:
		return err
	case err := <-errc:
		if err != nil {
			log.Error().Err(err).Msg("monitor stopped")
			cancel()
			<-runErr
			return err
		}
		return <-runErr
	}
}
