package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sleepwiki/ingredex"
	"github.com/sleepwiki/ingredex/internal/config"
	"github.com/sleepwiki/ingredex/internal/logger"
)

// app holds what every command needs once flags are applied.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

// loadApp loads the config, lets the command override it from its flags,
// validates the result and builds the logger.
func loadApp(cmd *cobra.Command, override func(*config.Config)) (*app, error) {
	cfg, err := config.Load(globalConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if globalLogLevel != "" {
		cfg.Log.Level = globalLogLevel
	}
	if globalLogFormat != "" {
		cfg.Log.Format = globalLogFormat
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Writer: cmd.ErrOrStderr(),
		Format: cfg.Log.Format,
		Level:  logger.ParseLevel(cfg.Log.Level),
	})

	return &app{cfg: cfg, logger: log, out: cmd.OutOrStdout()}, nil
}

// decoder returns a Decoder for the HTML file at path, configured from the
// decode section.
func (a *app) decoder(path string) (*ingredex.Decoder, error) {
	locator, err := a.cfg.Decode.NewLocator()
	if err != nil {
		return nil, err
	}

	dec := ingredex.Open(path).
		Locator(locator).
		MinCells(a.cfg.Decode.MinCells).
		ExcludeNavigation(a.cfg.Decode.Navigation()).
		Logger(a.logger)
	if !a.cfg.Decode.Fallback {
		dec = dec.WithoutFallback()
	}
	return dec, nil
}

// decodeFlags are shared by commands that decode the cached page.
type decodeFlags struct {
	input      string
	locator    string
	caption    string
	navigation string
	minCells   int
	noFallback bool
}

func (f *decodeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "HTML file to decode (default: cached page)")
	cmd.Flags().StringVar(&f.locator, "locator", "", "Table locator (caption, most-rows)")
	cmd.Flags().StringVar(&f.caption, "caption", "", "Select the table whose caption matches this expression")
	cmd.Flags().StringVar(&f.navigation, "exclude-navigation", "", "Skip tables in navigation (none, explicit, standard, aggressive)")
	cmd.Flags().IntVar(&f.minCells, "min-cells", 0, "Minimum cells for a data row")
	cmd.Flags().BoolVar(&f.noFallback, "no-fallback", false, "Fail instead of using the fallback dataset")
}

// apply copies the flags that were set onto cfg.
func (f *decodeFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("locator") {
		cfg.Decode.Locator = f.locator
	}
	if flags.Changed("caption") {
		cfg.Decode.Caption = f.caption
	}
	if flags.Changed("exclude-navigation") {
		cfg.Decode.ExcludeNavigation = f.navigation
	}
	if flags.Changed("min-cells") {
		cfg.Decode.MinCells = f.minCells
	}
	if f.noFallback {
		cfg.Decode.Fallback = false
	}
}

// inputPath returns the --input flag or the cached page.
func (f *decodeFlags) inputPath(cfg *config.Config) string {
	if f.input != "" {
		return f.input
	}
	return cfg.RawPath()
}
