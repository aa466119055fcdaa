package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/lootable/internal/game/currency"
	"github.com/cory-johannsen/lootable/internal/game/pocket"
)

func newPocketCmd(opts *options) *cobra.Command {
	var cr float64
	cmd := &cobra.Command{
		Use:   "pocket",
		Short: "Roll pocket change for a creature",
		Long: `Roll pocket change with the configured pocket_change settings. Examples:

  lootable pocket --cr 5
  lootable pocket --cr 0 --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.load()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			g := pocket.Generate(cr, e.cfg.PocketChange.Settings(), e.src)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Outcome: %s\n", g.Roll.Outcome)
			if g.Penniless() || g.Amount.IsZero() {
				fmt.Fprintln(out, "No coin")
				return nil
			}
			fmt.Fprintf(out, "Coins: %s (%.2f gp)\n", g.Amount, g.Amount.GoldValue())
			return nil
		},
	}
	cmd.Flags().Float64Var(&cr, "cr", 0, "challenge rating")
	return cmd
}

func newDecomposeCmd(opts *options) *cobra.Command {
	var cp, minimum int
	cmd := &cobra.Command{
		Use:   "decompose",
		Short: "Split a copper amount into a random coin mix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cp < 0 {
				return fmt.Errorf("--cp must not be negative, got %d", cp)
			}
			e, err := opts.load()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			a := currency.Decompose(cp, minimum, e.src)
			fmt.Fprintf(cmd.OutOrStdout(), "Coins: %s (%d cp)\n", a, a.CopperValue())
			return nil
		},
	}
	cmd.Flags().IntVar(&cp, "cp", 0, "amount in copper")
	cmd.Flags().IntVar(&minimum, "min", 0, "minimum coin floor in copper")
	return cmd
}

func newDistributeCmd(opts *options) *cobra.Command {
	var gold float64
	var trace bool
	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Split a gold value into a random coin mix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if gold < 0 {
				return fmt.Errorf("--gp must not be negative, got %g", gold)
			}
			e, err := opts.load()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			d := currency.DistributeGold(gold, e.src)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Coins: %s (%.2f gp)\n", d.Amount, d.Amount.GoldValue())
			if trace {
				for _, step := range d.Steps {
					fmt.Fprintf(out, "  %s\n", step)
				}
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&gold, "gp", 0, "value in gold")
	cmd.Flags().BoolVar(&trace, "trace", false, "print the distribution steps")
	return cmd
}
