package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coreman2200/lightdimmer/internal/color"
	"github.com/coreman2200/lightdimmer/internal/config"
	"github.com/coreman2200/lightdimmer/internal/patch"
)

func newPatchesCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patches",
		Short: "Inspect or edit the stored patches offline",
	}
	cmd.AddCommand(newPatchesListCmd(o), newPatchesSetCmd(o))
	return cmd
}

func openStorage(cfg *config.Config) (*patch.FileStorage, error) {
	return patch.NewFileStorage(cfg.Patches.Path, cfg.Patches.BaseAddr)
}

func newPatchesListCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the stored patches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load(cmd)
			if err != nil {
				return err
			}
			st, err := openStorage(cfg)
			if err != nil {
				return err
			}
			bank := patch.NewBank(st)
			if err := bank.LoadAll(); err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SLOT\tCOLOR\tR\tG\tB\tM")
			for i, c := range bank.Slots() {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%d\n", i, c.Hex(), c.R, c.G, c.B, c.M)
			}
			return w.Flush()
		},
	}
}

func newPatchesSetCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "set <slot> <#RRGGBB[MM]>",
		Short: "Write one patch slot",
		Long:  "Write one patch slot. With six hex digits the slot's stored main level is kept.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("slot %q: %w", args[0], err)
			}
			c, hasMain, err := color.Parse(args[1])
			if err != nil {
				return err
			}
			cfg, err := o.load(cmd)
			if err != nil {
				return err
			}
			st, err := openStorage(cfg)
			if err != nil {
				return err
			}
			if !hasMain {
				prev, err := st.Load(slot)
				if err != nil {
					return err
				}
				c.M = prev.M
			}
			if err := st.Save(slot, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "patch %d = %s\n", slot, c.Hex())
			return nil
		},
	}
}
