package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sleepwiki/ingredex/internal/config"
	"github.com/sleepwiki/ingredex/internal/fetch"
)

type downloadFlags struct {
	url      string
	cacheDir string
}

func newDownloadCmd() *cobra.Command {
	var flags downloadFlags

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the wiki page into the cache",
		Long:  "Fetches the configured wiki page and stores the raw HTML with a metadata sidecar in the cache directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.url, "url", "u", "", "Page URL (default: from config)")
	cmd.Flags().StringVarP(&flags.cacheDir, "cache-dir", "d", "", "Cache directory (default: from config)")

	return cmd
}

func runDownload(cmd *cobra.Command, flags downloadFlags) error {
	a, err := loadApp(cmd, func(cfg *config.Config) {
		if flags.url != "" {
			cfg.Source.URL = flags.url
		}
		if flags.cacheDir != "" {
			cfg.Cache.Dir = flags.cacheDir
		}
	})
	if err != nil {
		return err
	}

	client := fetch.New(fetch.Options{
		UserAgent:     a.cfg.Source.UserAgent,
		Timeout:       a.cfg.Source.Timeout,
		RatePerSecond: a.cfg.Source.RatePerSecond,
		Burst:         a.cfg.Source.Burst,
	}, a.logger)

	page, err := client.Get(cmd.Context(), a.cfg.Source.URL)
	if err != nil {
		return fmt.Errorf("downloading page: %w", err)
	}

	cache := fetch.NewCache(a.cfg.Cache.Dir)
	if err := cache.Save(page); err != nil {
		return fmt.Errorf("saving page: %w", err)
	}

	fmt.Fprintf(a.out, "Downloaded %d bytes (%d %s)\n", page.Metadata.Size, page.Metadata.Status, page.Metadata.StatusText)
	fmt.Fprintf(a.out, "Page:     %s\n", cache.RawPath())
	fmt.Fprintf(a.out, "Metadata: %s\n", cache.MetadataPath())
	return nil
}
