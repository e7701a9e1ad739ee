// Package main provides the entry point for the ingredex CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"

	globalConfig    string
	globalLogLevel  string
	globalLogFormat string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ingredex",
		Short:         "Decode the Pokémon Sleep ingredient table into structured data",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globalConfig, "config", "c", "", "Config file (default: ingredex.yaml)")
	rootCmd.PersistentFlags().StringVar(&globalLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&globalLogFormat, "log-format", "", "Log format (pretty, json)")

	rootCmd.AddCommand(
		newDownloadCmd(),
		newParseCmd(),
		newAnalyzeCmd(),
		newQueryCmd(),
		newServeCmd(),
		newVersionCmd(),
	)

	return rootCmd
}
