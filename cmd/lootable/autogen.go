package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/lootable/internal/engine"
	"github.com/cory-johannsen/lootable/internal/game/treasure"
	"github.com/cory-johannsen/lootable/internal/host"
)

func newAutogenCmd(opts *options) *cobra.Command {
	var (
		minValue, maxValue, coinPct float64
		sources                     []string
	)
	cmd := &cobra.Command{
		Use:   "autogen",
		Short: "Compose a treasure pile worth at least a gold value",
		Long: `Autogenerate a treasure pile from the default treasure sources. Examples:

  lootable autogen --min 500
  lootable autogen --min 500 --max 800 --coin-pct 50 --source gems --source art`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if minValue <= 0 {
				return fmt.Errorf("--min must be positive, got %g", minValue)
			}
			if maxValue > 0 && maxValue < minValue {
				return fmt.Errorf("--max %g is below --min %g", maxValue, minValue)
			}
			e, err := opts.load()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			reg, err := engine.LoadItems(e.cfg.Catalog, e.logger)
			if err != nil {
				return err
			}
			catalogs, err := engine.Catalogs(e.cfg.Catalog, e.logger)
			if err != nil {
				return err
			}
			eng, err := engine.Build(e.cfg.Scripting, reg, catalogs, e.src, e.logger)
			if err != nil {
				return err
			}
			defer eng.Close()

			settings := e.cfg.TreasurePile.Settings()
			if len(sources) > 0 {
				settings.DefaultSources = sources
			}
			mem := host.NewMemory()
			composer := treasure.NewComposer(func() treasure.Settings { return settings }, eng.Processor,
				treasure.Host{Actors: mem, Ledger: mem, Inventory: mem, Journals: mem}, e.src, e.logger)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			all, err := eng.Sources.Tables(ctx)
			if err != nil {
				return err
			}
			s := composer.NewSession()
			report, err := s.Autogenerate(ctx, treasure.AutogenInput{
				Min:            minValue,
				Max:            maxValue,
				CoinPercentage: treasure.ClampCoinPercentage(coinPct, settings.CoinPercentage),
				Eligible:       treasure.EligibleSources(all, settings.DefaultSources),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.Notice != nil {
				if errors.Is(report.Notice, treasure.ErrNoEligibleSources) {
					return report.Notice
				}
				fmt.Fprintf(out, "Notice: %v\n", report.Notice)
			}
			for _, line := range treasure.RenderLines(s.Entries()) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintf(out, "Total: %.2f gp after %d draws (%d rolled back)\n", report.Value, report.Attempts, report.Rollbacks)
			return nil
		},
	}
	cmd.Flags().Float64Var(&minValue, "min", 0, "minimum pile value in gp")
	cmd.Flags().Float64Var(&maxValue, "max", 0, "maximum pile value in gp (0 = unbounded)")
	cmd.Flags().Float64Var(&coinPct, "coin-pct", 0, "share of the minimum seeded as coin (0 = configured default)")
	cmd.Flags().StringSliceVar(&sources, "source", nil, "source id to draw from (repeatable; defaults to treasure_pile.default_tables)")
	return cmd
}
