package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cbegin/pianochords-go/internal/catalog"
	"github.com/cbegin/pianochords-go/internal/config"
	"github.com/cbegin/pianochords-go/internal/logger"
	"github.com/cbegin/pianochords-go/internal/optimizer"
)

var (
	cfg        config.Config
	log        *zap.SugaredLogger
	chordTable *catalog.Catalog

	logLevel    string
	catalogPath string
)

var rootCmd = &cobra.Command{
	Use:   "pianochords",
	Short: "Hand-friendly piano voicings for chord progressions",
	Long: `pianochords picks, for every chord of a progression, the voicing that
keeps the right hand closest to where it already is, and can play the
result, render it to WAV or MIDI, or serve it over HTTP.

Settings come from PIANOCHORDS_* environment variables; flags override them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("catalog") {
			cfg.CatalogPath = catalogPath
		}
		log, err = logger.New(cfg.LogLevel)
		if err != nil {
			return err
		}
		chordTable = catalog.Default()
		if cfg.CatalogPath != "" {
			chordTable, err = catalog.Load(cfg.CatalogPath)
			if err != nil {
				return err
			}
			log.Infow("catalog loaded", "path", cfg.CatalogPath, "chords", chordTable.Len())
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "chord table YAML replacing the built-in one")
	rootCmd.AddCommand(envCmd)
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "List the environment variables pianochords reads",
	RunE: func(cmd *cobra.Command, args []string) error {
		return config.Usage()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// progressionArg joins args so both `optimize C G Am` and
// `optimize "C, G, Am"` work.
func progressionArg(args []string) []string {
	var symbols []string
	for _, a := range args {
		symbols = append(symbols, optimizer.SplitSymbols(a)...)
	}
	return symbols
}

func optimizeArgs(args []string) ([]optimizer.Resolved, error) {
	symbols := progressionArg(args)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no chord symbols given")
	}
	resolved := optimizer.New(chordTable, optimizer.WithLogger(log)).Optimize(symbols)
	if len(resolved) == 0 {
		return nil, fmt.Errorf("none of %v is in the chord table", symbols)
	}
	return resolved, nil
}
