// Package config loads the ingredex configuration file.
//
// Values are resolved in order: built-in defaults, the YAML file, then
// INGREDEX_* environment variables. Command-line flags are applied by the
// commands themselves after Load returns.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/sleepwiki/ingredex/htmldoc"
	"github.com/sleepwiki/ingredex/internal/fetch"
	"github.com/sleepwiki/ingredex/internal/logger"
	"github.com/sleepwiki/ingredex/tables"
)

// DefaultFile is the config file read when no path is given.
const DefaultFile = "ingredex.yaml"

// DefaultURL is the wiki page listing estimated ingredient yields.
const DefaultURL = "https://wikiwiki.jp/poke_sleep/%E3%83%9D%E3%82%B1%E3%83%A2%E3%83%B3%E3%81%AE%E4%B8%80%E8%A6%A7/%E9%A3%9F%E6%9D%90%E7%8D%B2%E5%BE%97%E6%95%B0%E6%8E%A8%E5%AE%9A%E5%80%A4%E4%B8%80%E8%A6%A7/%E4%B8%80%E8%A6%A7%E8%A1%A8"

// Config is the complete ingredex configuration.
type Config struct {
	Source SourceConfig `yaml:"source"`
	Cache  CacheConfig  `yaml:"cache"`
	Output OutputConfig `yaml:"output"`
	Decode DecodeConfig `yaml:"decode"`
	Log    LogConfig    `yaml:"log"`
	Server ServerConfig `yaml:"server"`
}

// SourceConfig describes where the wiki page is downloaded from.
type SourceConfig struct {
	URL       string        `yaml:"url" validate:"required,url,startswith=http"`
	UserAgent string        `yaml:"user_agent" validate:"required"`
	Timeout   time.Duration `yaml:"timeout" validate:"gt=0"`
	// RatePerSecond throttles outgoing requests.
	RatePerSecond float64 `yaml:"rate_per_second" validate:"gt=0"`
	Burst         int     `yaml:"burst" validate:"gte=1"`
}

// CacheConfig holds the directory for the raw page and its metadata.
type CacheConfig struct {
	Dir string `yaml:"dir" validate:"required"`
}

// OutputConfig names the files written by the parse command. Empty paths
// disable the corresponding sink, except Entities.
type OutputConfig struct {
	Entities string `yaml:"entities" validate:"required"`
	Summary  string `yaml:"summary"`
	SQLite   string `yaml:"sqlite"`
	XLSX     string `yaml:"xlsx"`
}

// DecodeConfig tunes the decoder.
type DecodeConfig struct {
	MinCells          int    `yaml:"min_cells" validate:"gte=2"`
	Locator           string `yaml:"locator" validate:"locator"`
	Caption           string `yaml:"caption" validate:"omitempty,regex"`
	ExcludeNavigation string `yaml:"exclude_navigation" validate:"navigation"`
	Fallback          bool   `yaml:"fallback"`
}

// LogConfig controls the binaries' logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"omitempty,oneof=pretty json"`
}

// ServerConfig controls the read-only HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
	// Watch re-decodes the cached page when it changes.
	Watch bool `yaml:"watch"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			URL:           DefaultURL,
			UserAgent:     "ingredex/1.0 (+https://github.com/sleepwiki/ingredex)",
			Timeout:       30 * time.Second,
			RatePerSecond: 1,
			Burst:         1,
		},
		Cache: CacheConfig{Dir: "data"},
		Output: OutputConfig{
			Entities: filepath.Join("public", "pokemon-data.json"),
			Summary:  filepath.Join("data", "parse-summary.json"),
		},
		Decode: DecodeConfig{
			MinCells:          34,
			Locator:           tables.DefaultLocator().Name(),
			ExcludeNavigation: "none",
			Fallback:          true,
		},
		Log:    LogConfig{Level: "info", Format: logger.FormatPretty},
		Server: ServerConfig{Addr: "127.0.0.1:8080", Watch: true},
	}
}

// NewLocator returns the configured table locator. A non-empty Caption
// overrides Locator with a caption locator using that expression.
func (d DecodeConfig) NewLocator() (tables.Locator, error) {
	if d.Caption != "" {
		c, err := tables.CompileCaption(d.Caption)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	if l := tables.GetLocator(d.Locator); l != nil {
		return l, nil
	}
	return nil, fmt.Errorf("unknown locator %q", d.Locator)
}

// Navigation returns the configured navigation exclusion mode.
func (d DecodeConfig) Navigation() htmldoc.NavigationExclusionMode {
	mode, _ := htmldoc.ParseNavigationExclusion(d.ExcludeNavigation)
	return mode
}

// RawPath returns the path of the cached page.
func (c *Config) RawPath() string {
	return filepath.Join(c.Cache.Dir, fetch.RawFile)
}

// MetadataPath returns the path of the download metadata sidecar.
func (c *Config) MetadataPath() string {
	return filepath.Join(c.Cache.Dir, fetch.MetadataFile)
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing file is not an error; the defaults are
// used instead. An empty path means DefaultFile.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFile
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from INGREDEX_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("INGREDEX_SOURCE_URL", &c.Source.URL)
	str("INGREDEX_USER_AGENT", &c.Source.UserAgent)
	str("INGREDEX_CACHE_DIR", &c.Cache.Dir)
	str("INGREDEX_OUTPUT", &c.Output.Entities)
	str("INGREDEX_SQLITE", &c.Output.SQLite)
	str("INGREDEX_XLSX", &c.Output.XLSX)
	str("INGREDEX_LOCATOR", &c.Decode.Locator)
	str("INGREDEX_LOG_LEVEL", &c.Log.Level)
	str("INGREDEX_LOG_FORMAT", &c.Log.Format)
	str("INGREDEX_ADDR", &c.Server.Addr)

	if v, ok := lookup("INGREDEX_RATE"); ok && v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("INGREDEX_RATE: %w", err)
		}
		c.Source.RatePerSecond = rate
	}
	if v, ok := lookup("INGREDEX_FALLBACK"); ok && v != "" {
		fallback, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("INGREDEX_FALLBACK: %w", err)
		}
		c.Decode.Fallback = fallback
	}
	return nil
}

// Validate checks every field and reports all failures at once.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return formatError(err)
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report yaml keys rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("locator", func(fl validator.FieldLevel) bool {
		return tables.GetLocator(fl.Field().String()) != nil
	})
	_ = v.RegisterValidation("regex", func(fl validator.FieldLevel) bool {
		_, err := regexp.Compile(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("navigation", func(fl validator.FieldLevel) bool {
		_, ok := htmldoc.ParseNavigationExclusion(fl.Field().String())
		return ok
	})
	return v
}

func formatError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]error, 0, len(verrs))
	for _, e := range verrs {
		// Namespace is "Config.source.url"; drop the root type name.
		_, field, _ := strings.Cut(e.Namespace(), ".")
		msgs = append(msgs, fmt.Errorf("%s %s", field, friendlyMessage(e)))
	}
	return fmt.Errorf("invalid config: %w", errors.Join(msgs...))
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "url", "startswith":
		return "must be an http(s) URL"
	case "hostname_port":
		return "must be host:port"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be at least " + e.Param()
	case "locator":
		return "must be one of: " + strings.Join(tables.ListLocators(), ", ")
	case "regex":
		return "must be a valid regular expression"
	case "navigation":
		return "must be one of: none, explicit, standard, aggressive"
	default:
		return "is invalid"
	}
}
