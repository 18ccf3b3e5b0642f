package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/ibeckermayer/xreader/internal/types"
)

const appName = "xreader"

// Environment variables that override file values
const (
	EnvAPIKey   = "XREADER_API_KEY"
	EnvEndpoint = "XREADER_ENDPOINT"
)

// Provider names for the summary section
const (
	ProviderEndpoint  = "endpoint"
	ProviderAnthropic = "anthropic"
)

// Fallback preferences used when the user has not written any.
const (
	DefaultInterests    = "design, art, products, technology, self improvement, creating, building"
	DefaultNotInterests = "jokes, memes, politics, religion, sports"
)

// Config holds all application configuration
type Config struct {
	Version     int               `toml:"version"`
	Preferences types.Preferences `toml:"preferences"`
	Scraping    ScrapingConfig    `toml:"scraping"`
	Summary     SummaryConfig     `toml:"summary"`
	Schedule    ScheduleConfig    `toml:"schedule"`
	Storage     StorageConfig     `toml:"storage"`
}

type ScrapingConfig struct {
	Headless        bool     `toml:"headless"`
	HomeURL         string   `toml:"home_url"`
	SettleDelay     Duration `toml:"settle_delay"`
	TeardownTimeout Duration `toml:"teardown_timeout"`
	PollInterval    Duration `toml:"poll_interval"`
	// InitialPosts is how many posts the first crawl collects on startup.
	InitialPosts    int      `toml:"initial_posts"`
	MaxPosts        int      `toml:"max_posts"`
	ForYouMaxPosts  int      `toml:"for_you_max_posts"`
	IdleSteps       int      `toml:"idle_steps"`
}

type SummaryConfig struct {
	Provider string   `toml:"provider"`
	Endpoint string   `toml:"endpoint"`
	APIKey   string   `toml:"api_key"`
	Model    string   `toml:"model"`
	Timeout  Duration `toml:"timeout"`
	// Days is how far back a chronological crawl reaches.
	Days int `toml:"days"`
}

type ScheduleConfig struct {
	// Times are "15:04" wall-clock times in Timezone.
	Times    []string `toml:"times"`
	Timezone string   `toml:"timezone"`
}

type StorageConfig struct {
	// DBPath defaults to history.db under the config dir when empty.
	DBPath string `toml:"db_path"`
}

// Duration is a time.Duration written as "200ms" in TOML
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Preferences: types.Preferences{
			Interests:    DefaultInterests,
			NotInterests: DefaultNotInterests,
		},
		Scraping: ScrapingConfig{
			Headless:        true,
			HomeURL:         "https://x.com/home",
			SettleDelay:     Duration{200 * time.Millisecond},
			TeardownTimeout: Duration{10 * time.Second},
			PollInterval:    Duration{300 * time.Millisecond},
			InitialPosts:    40,
			MaxPosts:        1500,
			ForYouMaxPosts:  300,
			IdleSteps:       25,
		},
		Summary: SummaryConfig{
			Provider: ProviderEndpoint,
			Model:    "claude-sonnet-4-20250514",
			Timeout:  Duration{2 * time.Minute},
			Days:     1,
		},
		Schedule: ScheduleConfig{
			Times:    []string{"07:00", "18:00"},
			Timezone: "Local",
		},
	}
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CacheDir returns the platform-appropriate cache directory
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, appName), nil
}

// DBPath resolves the history database location
func (c *Config) DBPath() (string, error) {
	if c.Storage.DBPath != "" {
		return c.Storage.DBPath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// Load reads config from the default location. A missing file yields the
// defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads config from path on top of the defaults, then applies
// .env and environment overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	// .env is optional
	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Summary.APIKey = v
	}
	if v := os.Getenv(EnvEndpoint); v != "" {
		c.Summary.Endpoint = v
	}
}

// Validate checks values that would otherwise fail deep inside a run
func (c *Config) Validate() error {
	switch c.Summary.Provider {
	case ProviderEndpoint, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown summary provider %q", c.Summary.Provider)
	}
	if c.Summary.Days < 1 {
		return fmt.Errorf("summary.days must be at least 1, got %d", c.Summary.Days)
	}
	if c.Scraping.MaxPosts < 1 {
		return fmt.Errorf("scraping.max_posts must be positive, got %d", c.Scraping.MaxPosts)
	}
	for name, n := range map[string]int{
		"scraping.initial_posts":     c.Scraping.InitialPosts,
		"scraping.for_you_max_posts": c.Scraping.ForYouMaxPosts,
		"scraping.idle_steps":        c.Scraping.IdleSteps,
	} {
		if n < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, n)
		}
	}
	for name, d := range map[string]time.Duration{
		"scraping.poll_interval":    c.Scraping.PollInterval.Duration,
		"scraping.teardown_timeout": c.Scraping.TeardownTimeout.Duration,
		"summary.timeout":           c.Summary.Timeout.Duration,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.Scraping.SettleDelay.Duration < 0 {
		return fmt.Errorf("scraping.settle_delay must not be negative, got %s", c.Scraping.SettleDelay.Duration)
	}
	for _, t := range c.Schedule.Times {
		if _, err := time.Parse("15:04", t); err != nil {
			return fmt.Errorf("invalid schedule time %q: %w", t, err)
		}
	}
	return nil
}

// Save writes config to the default location
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes config to path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
