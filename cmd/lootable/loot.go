package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/lootable/internal/engine"
	"github.com/cory-johannsen/lootable/internal/game/loot"
	"github.com/cory-johannsen/lootable/internal/game/rules"
)

func newMatchCmd(opts *options) *cobra.Command {
	var c rules.Candidate
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Find the loot rule for a creature",
		Long: `Match a creature against the configured random_loot rules. Examples:

  lootable match --type humanoid --tag goblinoid --cr 1
  lootable match --type "dragon, fiend" --cr 17`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.load()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			settings, err := e.cfg.RandomLoot.Settings()
			if err != nil {
				return err
			}
			c.Type = strings.ToLower(c.Type)
			c.Subtype = strings.ToLower(c.Subtype)
			c.Tag = strings.ToLower(c.Tag)

			out := cmd.OutOrStdout()
			r, ok := rules.FindMatch(c, settings.Rules)
			if !ok {
				fmt.Fprintln(out, "No rule matched")
				return nil
			}
			name := r.Name
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Fprintf(out, "Rule: %s\nSource: %s\n", name, r.SourceID)
			return nil
		},
	}
	cmd.Flags().StringVar(&c.Type, "type", "", "creature type")
	cmd.Flags().StringVar(&c.Subtype, "subtype", "", "creature subtype")
	cmd.Flags().StringVar(&c.Tag, "tag", "", "creature tag")
	cmd.Flags().Float64Var(&c.Power, "cr", 0, "challenge rating")
	return cmd
}

func newDrawCmd(opts *options) *cobra.Command {
	var times int
	var list bool
	cmd := &cobra.Command{
		Use:   "draw [table-id]",
		Short: "Draw from a roll table",
		Long: `Draw from a YAML or Lua roll table and print the consolidated results. Examples:

  lootable draw goblin-pockets
  lootable draw dragon-hoard --times 3
  lootable draw --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !list && len(args) == 0 {
				return fmt.Errorf("a table id is required unless --list is given")
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

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out := cmd.OutOrStdout()
			if list {
				tables, err := eng.Sources.Tables(ctx)
				if err != nil {
					return err
				}
				for _, t := range tables {
					fmt.Fprintf(out, "%s\t%s\n", t.ID, t.Name)
				}
				return nil
			}

			draws := make([][]loot.DrawResult, 0, times)
			for range max(times, 1) {
				results, err := eng.Processor.Draw(ctx, args[0])
				if err != nil {
					return err
				}
				draws = append(draws, results)
			}
			printResults(out, loot.Consolidate(loot.Flatten(draws...)))
			return nil
		},
	}
	cmd.Flags().IntVar(&times, "times", 1, "number of draws to combine")
	cmd.Flags().BoolVar(&list, "list", false, "list the available tables")
	return cmd
}

func printResults(out io.Writer, results []loot.DrawResult) {
	if len(results) == 0 {
		fmt.Fprintln(out, "Nothing")
		return
	}
	var total float64
	for _, r := range results {
		if r.Kind == loot.KindItem && r.Item != nil {
			v := loot.ValueOfItem(*r.Item, r.Quantity)
			total += v.Value
			fmt.Fprintf(out, "%d x %s (%s)\n", r.Quantity, r.Item.Name, v)
			continue
		}
		fmt.Fprintf(out, "%d x %s\n", r.Quantity, r.Text)
	}
	fmt.Fprintf(out, "Total: %.2f gp\n", total)
}
