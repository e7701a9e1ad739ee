package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sleepwiki/ingredex/htmldoc"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ingredex.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultURL, cfg.Source.URL)
	assert.Equal(t, 30*time.Second, cfg.Source.Timeout)
	assert.Equal(t, 34, cfg.Decode.MinCells)
	assert.Equal(t, "most-rows", cfg.Decode.Locator)
	assert.True(t, cfg.Decode.Fallback)
	assert.Equal(t, filepath.Join("data", "wiki-raw.html"), cfg.RawPath())
	assert.Equal(t, filepath.Join("data", "wiki-metadata.json"), cfg.MetadataPath())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
source:
  url: https://example.com/wiki
  timeout: 5s
  rate_per_second: 0.5
cache:
  dir: /tmp/cache
output:
  entities: out/entities.json
  sqlite: out/ingredex.db
decode:
  min_cells: 36
  locator: caption
  exclude_navigation: standard
  fallback: false
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/wiki", cfg.Source.URL)
	assert.Equal(t, 5*time.Second, cfg.Source.Timeout)
	assert.Equal(t, 0.5, cfg.Source.RatePerSecond)
	assert.Equal(t, 1, cfg.Source.Burst, "unset keys keep defaults")
	assert.Equal(t, "/tmp/cache", cfg.Cache.Dir)
	assert.Equal(t, "out/ingredex.db", cfg.Output.SQLite)
	assert.Equal(t, 36, cfg.Decode.MinCells)
	assert.False(t, cfg.Decode.Fallback)
	assert.Equal(t, htmldoc.NavigationExclusionStandard, cfg.Decode.Navigation())
	assert.Equal(t, "json", cfg.Log.Format)

	loc, err := cfg.Decode.NewLocator()
	require.NoError(t, err)
	assert.Equal(t, "caption", loc.Name())
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "source: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("INGREDEX_SOURCE_URL", "http://localhost:9000/page")
	t.Setenv("INGREDEX_CACHE_DIR", "/var/cache/ingredex")
	t.Setenv("INGREDEX_RATE", "2.5")
	t.Setenv("INGREDEX_FALLBACK", "false")
	t.Setenv("INGREDEX_LOG_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, "cache:\n  dir: from-file\n"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/page", cfg.Source.URL)
	assert.Equal(t, "/var/cache/ingredex", cfg.Cache.Dir, "env wins over file")
	assert.Equal(t, 2.5, cfg.Source.RatePerSecond)
	assert.False(t, cfg.Decode.Fallback)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("INGREDEX_RATE", "fast")

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INGREDEX_RATE")
}

func TestApplyEnv_EmptyValuesIgnored(t *testing.T) {
	cfg := Default()
	env := map[string]string{"INGREDEX_SOURCE_URL": "", "INGREDEX_FALLBACK": ""}

	err := cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultURL, cfg.Source.URL)
	assert.True(t, cfg.Decode.Fallback)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "non http url",
			mutate:  func(c *Config) { c.Source.URL = "ftp://example.com/x" },
			wantErr: "source.url must be an http(s) URL",
		},
		{
			name:    "zero rate",
			mutate:  func(c *Config) { c.Source.RatePerSecond = 0 },
			wantErr: "source.rate_per_second must be greater than 0",
		},
		{
			name:    "min cells too small",
			mutate:  func(c *Config) { c.Decode.MinCells = 1 },
			wantErr: "decode.min_cells must be at least 2",
		},
		{
			name:    "unknown locator",
			mutate:  func(c *Config) { c.Decode.Locator = "largest" },
			wantErr: "decode.locator must be one of: caption, most-rows",
		},
		{
			name:    "bad caption expression",
			mutate:  func(c *Config) { c.Decode.Caption = "(unclosed" },
			wantErr: "decode.caption must be a valid regular expression",
		},
		{
			name:    "unknown navigation mode",
			mutate:  func(c *Config) { c.Decode.ExcludeNavigation = "menus" },
			wantErr: "decode.exclude_navigation must be one of",
		},
		{
			name:    "log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log.format must be one of: pretty json",
		},
		{
			name:    "server addr",
			mutate:  func(c *Config) { c.Server.Addr = "localhost" },
			wantErr: "server.addr must be host:port",
		},
		{
			name:    "missing entities path",
			mutate:  func(c *Config) { c.Output.Entities = "" },
			wantErr: "output.entities is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsEveryField(t *testing.T) {
	cfg := Default()
	cfg.Source.Burst = 0
	cfg.Cache.Dir = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source.burst")
	assert.Contains(t, err.Error(), "cache.dir")
}

func TestNewLocator(t *testing.T) {
	d := Default().Decode

	loc, err := d.NewLocator()
	require.NoError(t, err)
	assert.Equal(t, "most-rows", loc.Name())

	d.Caption = "ポケモン"
	loc, err = d.NewLocator()
	require.NoError(t, err)
	assert.Equal(t, "caption", loc.Name())

	d.Caption = ""
	d.Locator = "nope"
	_, err = d.NewLocator()
	assert.Error(t, err)
}
