package ingredex

import (
	"log/slog"

	"github.com/sleepwiki/ingredex/htmldoc"
	"github.com/sleepwiki/ingredex/patterns"
	"github.com/sleepwiki/ingredex/tables"
)

// decodeOptions holds configuration for a decoding pass.
type decodeOptions struct {
	// Table selection
	locator    tables.Locator
	navigation htmldoc.NavigationExclusionMode

	// Row handling
	classify tables.ClassifyConfig
	catalog  *patterns.Catalog

	// Substitute the fallback dataset on structural failures
	fallback bool

	logger *slog.Logger
}

// defaultOptions returns the default decoding options.
func defaultOptions() decodeOptions {
	return decodeOptions{
		locator:    tables.DefaultLocator(),
		navigation: htmldoc.NavigationExclusionNone, // every table is a candidate
		classify:   tables.DefaultClassifyConfig(),
		catalog:    patterns.Canonical(),
		fallback:   true,
		logger:     slog.New(slog.DiscardHandler),
	}
}

// clone creates a copy of decodeOptions. The catalog is copied so that a
// derived Decoder never shares entries with its parent.
func (o decodeOptions) clone() decodeOptions {
	newOpts := o
	if o.catalog != nil {
		newOpts.catalog = o.catalog.WithMinCells(o.catalog.MinCells)
	}
	return newOpts
}
