package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "LISCRAPER_"

// Config holds all configuration options for the LinkedIn feed scraper
type Config struct {
	// Browser session settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Batch and pagination limits
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// Human-like delay ranges
	Pacing PacingConfig `yaml:"pacing" json:"pacing"`

	// Session launch limits
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Terminal presentation
	UI UIConfig `yaml:"ui" json:"ui"`
}

// BrowserConfig holds the Chrome session configuration
type BrowserConfig struct {
	Headless          bool          `yaml:"headless" json:"headless"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
	ExecPath          string        `yaml:"exec_path" json:"exec_path"`
	WindowWidth       int           `yaml:"window_width" json:"window_width"`
	WindowHeight      int           `yaml:"window_height" json:"window_height"`
	LoginTimeout      time.Duration `yaml:"login_timeout" json:"login_timeout"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
}

// ScrapeConfig bounds a logical request and each of its batches
type ScrapeConfig struct {
	MaxPosts         int           `yaml:"max_posts" json:"max_posts"`
	BatchSize        int           `yaml:"batch_size" json:"batch_size"`
	MaxAttempts      int           `yaml:"max_attempts" json:"max_attempts"`
	Overscan         int           `yaml:"overscan" json:"overscan"`
	BatchRetries     int           `yaml:"batch_retries" json:"batch_retries"`
	BetweenBatches   time.Duration `yaml:"between_batches" json:"between_batches"`
	BatchScopedDedup bool          `yaml:"batch_scoped_dedup" json:"batch_scoped_dedup"`
}

// DelayRange is an inclusive range a pause is drawn from
type DelayRange struct {
	Min time.Duration `yaml:"min" json:"min"`
	Max time.Duration `yaml:"max" json:"max"`
}

// PacingConfig holds the delay ranges keyed by pacing phase name
type PacingConfig struct {
	Enabled bool                  `yaml:"enabled" json:"enabled"`
	Seed    int64                 `yaml:"seed" json:"seed"`
	Phases  map[string]DelayRange `yaml:"phases" json:"phases"`
}

// RateLimitConfig limits how often a fresh authenticated session is opened
type RateLimitConfig struct {
	SessionsPerHour int `yaml:"sessions_per_hour" json:"sessions_per_hour"`
	Burst           int `yaml:"burst" json:"burst"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	Directory   string `yaml:"directory" json:"directory"`
	WriteJSON   bool   `yaml:"write_json" json:"write_json"`
	Checkpoints bool   `yaml:"checkpoints" json:"checkpoints"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	File   string `yaml:"file" json:"file"`
	Pretty bool   `yaml:"pretty" json:"pretty"`
}

// UIConfig selects how progress is presented
type UIConfig struct {
	TUI           bool `yaml:"tui" json:"tui"`
	Notifications bool `yaml:"notifications" json:"notifications"`
}

// DefaultPhases returns the delay ranges used when none are configured.
func DefaultPhases() map[string]DelayRange {
	r := func(lo, hi float64) DelayRange {
		return DelayRange{
			Min: time.Duration(lo * float64(time.Second)),
			Max: time.Duration(hi * float64(time.Second)),
		}
	}
	return map[string]DelayRange{
		"skip-scroll":   r(1.0, 2.0),
		"growth-scroll": r(2.5, 5.0),
		"recovery":      r(1.0, 2.0),
		"jitter":        r(1.0, 2.0),
		"expand-before": r(0.3, 0.7),
		"expand-after":  r(0.5, 1.0),
		"between-posts": r(0.5, 1.5),
		"teardown":      r(2.0, 4.0),
		"login-settle":  r(2.0, 4.0),
		"keystroke":     r(0.05, 0.15),
		"post-login":    r(3.0, 5.0),
		"navigate":      r(2.0, 4.0),
	}
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:          false,
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			WindowWidth:       1920,
			WindowHeight:      1080,
			LoginTimeout:      30 * time.Second,
			NavigationTimeout: 60 * time.Second,
		},
		Scrape: ScrapeConfig{
			MaxPosts:       100,
			BatchSize:      30,
			MaxAttempts:    40,
			Overscan:       4,
			BatchRetries:   2,
			BetweenBatches: 5 * time.Second,
		},
		Pacing: PacingConfig{
			Enabled: true,
			Phases:  DefaultPhases(),
		},
		RateLimit: RateLimitConfig{
			SessionsPerHour: 12,
			Burst:           2,
		},
		Output: OutputConfig{
			Directory:   "output",
			WriteJSON:   true,
			Checkpoints: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
		UI: UIConfig{
			Notifications: true,
		},
	}
}

// LoadFromEnv loads configuration from LISCRAPER_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	envBool := func(name string, dst *bool) {
		if v := os.Getenv(envPrefix + name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	envInt := func(name string, dst *int) {
		if v := os.Getenv(envPrefix + name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	envString := func(name string, dst *string) {
		if v := os.Getenv(envPrefix + name); v != "" {
			*dst = v
		}
	}

	envBool("HEADLESS", &c.Browser.Headless)
	envString("USER_AGENT", &c.Browser.UserAgent)
	envString("CHROME_PATH", &c.Browser.ExecPath)
	envInt("MAX_POSTS", &c.Scrape.MaxPosts)
	envInt("BATCH_SIZE", &c.Scrape.BatchSize)
	envInt("MAX_ATTEMPTS", &c.Scrape.MaxAttempts)
	envBool("PACING", &c.Pacing.Enabled)
	envInt("SESSIONS_PER_HOUR", &c.RateLimit.SessionsPerHour)
	envString("OUTPUT_DIR", &c.Output.Directory)
	envString("LOG_LEVEL", &c.Logging.Level)
	envString("LOG_FILE", &c.Logging.File)
	envBool("TUI", &c.UI.TUI)
	envBool("NOTIFICATIONS", &c.UI.Notifications)

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	// A file may override only some phases
	for name, r := range DefaultPhases() {
		if _, ok := c.Pacing.Phases[name]; !ok {
			if c.Pacing.Phases == nil {
				c.Pacing.Phases = make(map[string]DelayRange)
			}
			c.Pacing.Phases[name] = r
		}
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".liscraper.yaml",
		".liscraper.yml",
		filepath.Join(home, ".config", "liscraper", "config.yaml"),
		filepath.Join(home, ".config", "liscraper", "config.yml"),
		filepath.Join(home, ".liscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Scrape.MaxPosts <= 0 {
		errs = append(errs, errors.New("max posts must be positive"))
	}
	if c.Scrape.BatchSize <= 0 {
		errs = append(errs, errors.New("batch size must be positive"))
	}
	if c.Scrape.MaxAttempts <= 0 {
		errs = append(errs, errors.New("max attempts must be positive"))
	}
	if c.Scrape.Overscan < 1 {
		errs = append(errs, errors.New("overscan must be at least 1"))
	}
	if c.Scrape.BatchRetries < 0 {
		errs = append(errs, errors.New("batch retries cannot be negative"))
	}

	for name, r := range c.Pacing.Phases {
		if r.Min < 0 || r.Max < r.Min {
			errs = append(errs, fmt.Errorf("pacing phase %q has an invalid range", name))
		}
	}

	if c.RateLimit.SessionsPerHour < 0 {
		errs = append(errs, errors.New("sessions per hour cannot be negative"))
	}

	if c.Browser.LoginTimeout <= 0 {
		errs = append(errs, errors.New("login timeout must be positive"))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only flags the user actually set should be present in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = v
	}
	if v, ok := flags["batch-size"].(int); ok && v > 0 {
		c.Scrape.BatchSize = v
	}
	if v, ok := flags["max-attempts"].(int); ok && v > 0 {
		c.Scrape.MaxAttempts = v
	}
	if v, ok := flags["batch-scoped-dedup"].(bool); ok {
		c.Scrape.BatchScopedDedup = v
	}
	if v, ok := flags["no-pacing"].(bool); ok && v {
		c.Pacing.Enabled = false
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.Directory = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
	if v, ok := flags["tui"].(bool); ok {
		c.UI.TUI = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".liscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
