// Package main is an offline command line for rolling coin, matching rules,
// drawing tables and composing treasure piles without a running host.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/lootable/internal/config"
	"github.com/cory-johannsen/lootable/internal/game/dice"
	"github.com/cory-johannsen/lootable/internal/observability"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
	envFile    string
	seed       uint64
}

// env is the per-invocation state built from options.
type env struct {
	cfg    config.Config
	logger *zap.Logger
	src    dice.Source
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "lootable",
		Short: "Offline loot generation",
		Long: `lootable rolls pocket change, matches creatures against loot rules,
draws roll tables and composes treasure piles from local content.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to configuration file (defaults and LOOTABLE_ environment when empty)")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "optional dotenv file")
	rootCmd.PersistentFlags().Uint64Var(&opts.seed, "seed", 0, "seed for reproducible rolls (0 = cryptographic)")

	rootCmd.AddCommand(newPocketCmd(opts))
	rootCmd.AddCommand(newDecomposeCmd(opts))
	rootCmd.AddCommand(newDistributeCmd(opts))
	rootCmd.AddCommand(newMatchCmd(opts))
	rootCmd.AddCommand(newDrawCmd(opts))
	rootCmd.AddCommand(newAutogenCmd(opts))
	return rootCmd
}

// load reads the dotenv file and configuration and builds the logger and
// random source.
func (o *options) load() (*env, error) {
	_ = godotenv.Load(o.envFile)

	var (
		cfg config.Config
		err error
	)
	if o.configPath == "" {
		cfg, err = config.LoadFromViper(config.NewViper())
	} else {
		cfg, err = config.Load(o.configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	src := dice.NewCryptoSource()
	if o.seed != 0 {
		src = dice.NewSeededSource(o.seed)
	}
	return &env{cfg: cfg, logger: logger, src: src}, nil
}
