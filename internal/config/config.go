package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pfline/internal/logging"
	"pfline/internal/pfline"
	"pfline/internal/stamps"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load tolerances from a separate YAML file.
	// If both ToleranceFile and Tolerance are provided, Tolerance overrides ToleranceFile.
	ToleranceFile string           `yaml:"tolerance_file"`
	Tolerance     ToleranceConfig  `yaml:"tolerance"`
	Calendar      CalendarConfig   `yaml:"calendar"`
	Log           logging.Config   `yaml:"log"`
	API           APIConfig        `yaml:"api"`
	GridStatus    GridStatusConfig `yaml:"gridstatus"`
}

// ToleranceConfig bounds the consistency checks of the line builder.
type ToleranceConfig struct {
	RTol float64 `yaml:"rtol"`
	ATol float64 `yaml:"atol"`
	Zero float64 `yaml:"zero"`
}

// CalendarConfig sets how timestamps without explicit settings are read.
type CalendarConfig struct {
	Timezone string `yaml:"timezone"`
	Freq     string `yaml:"freq"`
}

type APIConfig struct {
	Port        string   `yaml:"port"`
	Env         string   `yaml:"env"`
	CORSOrigins []string `yaml:"cors_origins"`
	StaticDir   string   `yaml:"static_dir"`
}

type GridStatusConfig struct {
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Cache    bool          `yaml:"cache"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	// If tolerance_file is set, load it and merge in any explicit overrides from c.Tolerance.
	if c.ToleranceFile != "" {
		tolPath := c.ToleranceFile
		if !filepath.IsAbs(tolPath) {
			// Relative paths are tried next to the config file first, then relative to cwd.
			cand := filepath.Join(filepath.Dir(path), tolPath)
			if _, err := os.Stat(cand); err == nil {
				tolPath = cand
			}
		}
		loaded, err := loadToleranceFile(tolPath)
		if err != nil {
			return nil, err
		}
		c.Tolerance = MergeTolerance(loaded, c.Tolerance)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	def := pfline.DefaultTolerance
	c.Tolerance = MergeTolerance(ToleranceConfig{RTol: def.RTol, ATol: def.ATol, Zero: def.Zero}, c.Tolerance)
	if c.Calendar.Timezone == "" {
		c.Calendar.Timezone = "Europe/Berlin"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.API.Port == "" {
		c.API.Port = "8080"
	}
	if c.API.StaticDir == "" {
		c.API.StaticDir = "./web/dist"
	}
	if c.GridStatus.BaseURL == "" {
		c.GridStatus.BaseURL = "https://api.gridstatus.io"
	}
	if c.GridStatus.CacheTTL == 0 {
		c.GridStatus.CacheTTL = time.Hour
	}
}

// ApplyEnv overrides settings from API_PORT, API_ENV, LOG_LEVEL, STATIC_DIR
// and GRIDSTATUS_API_KEY when they are set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("API_PORT"); v != "" {
		c.API.Port = v
	}
	if v := os.Getenv("API_ENV"); v != "" {
		c.API.Env = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("STATIC_DIR"); v != "" {
		c.API.StaticDir = v
	}
	if v := os.Getenv("GRIDSTATUS_API_KEY"); v != "" {
		c.GridStatus.APIKey = v
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	t := c.Tolerance
	if t.RTol < 0 || t.ATol < 0 || t.Zero < 0 {
		return fmt.Errorf("tolerance values must not be negative (rtol=%g, atol=%g, zero=%g)", t.RTol, t.ATol, t.Zero)
	}
	if _, err := c.Calendar.Location(); err != nil {
		return fmt.Errorf("calendar config invalid: %w", err)
	}
	if c.Calendar.Freq != "" {
		if _, err := stamps.ParseFreq(c.Calendar.Freq); err != nil {
			return fmt.Errorf("calendar config invalid: %w", err)
		}
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("log.format must be 'json' or 'console'; got %q", c.Log.Format)
	}
	if c.GridStatus.CacheTTL < 0 {
		return errors.New("gridstatus.cache_ttl must not be negative")
	}
	return nil
}

// Builder returns a line builder using these tolerances.
func (t ToleranceConfig) Builder() pfline.Builder {
	return pfline.Builder{Tolerance: pfline.Tolerance{RTol: t.RTol, ATol: t.ATol, Zero: t.Zero}}
}

// Location loads the configured time zone.
func (c CalendarConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

type toleranceFileWrapper struct {
	Tolerance ToleranceConfig `yaml:"tolerance"`
}

func loadToleranceFile(path string) (ToleranceConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ToleranceConfig{}, err
	}
	var w toleranceFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return ToleranceConfig{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return w.Tolerance, nil
}

// MergeTolerance overlays non-zero fields from override onto base.
func MergeTolerance(base, override ToleranceConfig) ToleranceConfig {
	out := base
	if override.RTol != 0 {
		out.RTol = override.RTol
	}
	if override.ATol != 0 {
		out.ATol = override.ATol
	}
	if override.Zero != 0 {
		out.Zero = override.Zero
	}
	return out
}
