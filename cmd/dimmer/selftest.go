package main

import (
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/lightdimmer/internal/encoder"
	"github.com/coreman2200/lightdimmer/internal/indicator"
	"github.com/coreman2200/lightdimmer/internal/led"
)

func newSelftestCmd(o *options) *cobra.Command {
	var hold time.Duration
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Step through every output channel and indicator digit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			periph, err := openPeripherals(cfg, encoder.NewQueue(1))
			if periph == nil {
				return err
			}
			defer periph.Close()

			out, err := led.NewOutput(periph.strip, cfg.Strip.LEDs, periph.main)
			if err != nil {
				return err
			}
			defer out.Close()

			ind := indicator.New(periph.segments)
			steps := led.SelfTest(out.HasMain())
			return led.RunSelfTest(ctx, out, steps, hold, func(i int, s led.Step) {
				ind.Set(i % 10)
				ind.Show(0)
				log.Info().Int("step", i).Str("name", s.Name).Str("color", s.Color.Hex()).Msg("self test")
			})
		},
	}
	cmd.Flags().DurationVar(&hold, "hold", time.Second, "how long each step is shown")
	return cmd
}
