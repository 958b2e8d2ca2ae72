package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/coreman2200/lightdimmer/internal/protocol"
	"github.com/coreman2200/lightdimmer/internal/serial"
)

// commandBytes turns a command line argument into protocol bytes: "g" and
// "credits" are single-byte commands, anything else is sent as a line.
func commandBytes(arg string) []byte {
	switch arg {
	case string(protocol.QueryByte):
		return []byte{protocol.QueryByte}
	case "credits":
		return []byte{protocol.CreditsByte}
	}
	return append([]byte(arg), protocol.Terminator)
}

func newSendCmd(o *options) *cobra.Command {
	var (
		port   string
		baud   int
		window time.Duration
	)
	cmd := &cobra.Command{
		Use:   "send <g|credits|#RRGGBB[MM]>",
		Short: "Send a protocol command to a dimmer and print its reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("port") {
				port = cfg.Serial.Port
			}
			if !cmd.Flags().Changed("baud") {
				baud = cfg.Serial.Baud
			}
			if port == "" {
				return fmt.Errorf("no serial port: pass --port or set serial.port")
			}
			rw, err := serial.Dial(port, baud, window)
			if err != nil {
				return err
			}
			defer rw.Close()

			lines, err := serial.Exchange(cmd.Context(), rw, commandBytes(args[0]), window)
			for _, l := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "serial device (defaults to serial.port)")
	cmd.Flags().IntVarP(&baud, "baud", "b", 9600, "baud rate (defaults to serial.baud)")
	cmd.Flags().DurationVarP(&window, "window", "w", 500*time.Millisecond, "how long to collect reply lines")
	return cmd
}
