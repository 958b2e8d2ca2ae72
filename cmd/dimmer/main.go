// Command dimmer runs the light dimmer controller and its host-side tools.
package main

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/lightdimmer/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath string
	sim        bool
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "dimmer",
		Short:         "Multi-channel light dimmer with stored patches",
		SilenceUsage: true,
	}
	o.bind(root)
	root.AddCommand(
		newRunCmd(o),
		newPatchesCmd(o),
		newSendCmd(o),
		newSelftestCmd(o),
	)
	return root
}

func (o *options) bind(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", "dimmer.yaml", "path to the YAML config")
	pf.BoolVar(&o.sim, "sim", false, "simulate every peripheral")
	pf.StringVar(&o.logLevel, "log-level", "", "debug | info | warn | error (overrides config)")
	pf.StringVar(&o.logFormat, "log-format", "", "console | json (overrides config)")
}

// load reads the config file, applies the flags that were set explicitly and
// configures logging. A missing default config file is not an error.
func (o *options) load(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	cfg, err := config.Load(o.configPath)
	missing := false
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || flags.Changed("config") {
			return nil, err
		}
		d := config.Default()
		cfg, missing = &d, true
	}

	if flags.Changed("sim") && o.sim {
		cfg.Hardware = "sim"
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	setupLogging(cfg.Log)

	if missing {
		log.Warn().Str("path", o.configPath).Msg("config not found; using defaults")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(c config.Log) {
	zerolog.TimeFieldFormat = time.RFC3339
	if c.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	lvl, err := zerolog.ParseLevel(c.Level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
