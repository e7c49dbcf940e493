package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Scrape.BatchSize != 30 {
		t.Errorf("Expected default batch size to be 30, got %d", config.Scrape.BatchSize)
	}
	if config.Scrape.MaxPosts != 100 {
		t.Errorf("Expected default max posts to be 100, got %d", config.Scrape.MaxPosts)
	}
	if config.Scrape.MaxAttempts != 40 {
		t.Errorf("Expected default max attempts to be 40, got %d", config.Scrape.MaxAttempts)
	}
	if config.Output.Directory != "output" {
		t.Errorf("Expected default output directory to be output, got %s", config.Output.Directory)
	}

	growth := config.Pacing.Phases["growth-scroll"]
	assert.Equal(t, 2500*time.Millisecond, growth.Min)
	assert.Equal(t, 5*time.Second, growth.Max)
	assert.NoError(t, config.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LISCRAPER_HEADLESS", "true")
	t.Setenv("LISCRAPER_BATCH_SIZE", "10")
	t.Setenv("LISCRAPER_OUTPUT_DIR", "/tmp/li-out")
	t.Setenv("LISCRAPER_LOG_LEVEL", "debug")
	t.Setenv("LISCRAPER_PACING", "false")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	assert.True(t, config.Browser.Headless)
	assert.Equal(t, 10, config.Scrape.BatchSize)
	assert.Equal(t, "/tmp/li-out", config.Output.Directory)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.False(t, config.Pacing.Enabled)
}

func TestLoadFromEnvRejectsGarbage(t *testing.T) {
	t.Setenv("LISCRAPER_BATCH_SIZE", "thirty")

	config := DefaultConfig()
	err := config.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LISCRAPER_BATCH_SIZE")
	assert.Equal(t, 30, config.Scrape.BatchSize)
}

func TestLoadFromFileKeepsUnsetPhases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
scrape:
  batch_size: 15
  between_batches: 2s
pacing:
  enabled: true
  phases:
    growth-scroll:
      min: 1s
      max: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0644))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(path))

	assert.Equal(t, 15, config.Scrape.BatchSize)
	assert.Equal(t, 2*time.Second, config.Scrape.BetweenBatches)
	assert.Equal(t, DelayRange{Min: time.Second, Max: 2 * time.Second}, config.Pacing.Phases["growth-scroll"])
	assert.Equal(t, DefaultPhases()["teardown"], config.Pacing.Phases["teardown"])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero batch size", func(c *Config) { c.Scrape.BatchSize = 0 }, "batch size must be positive"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
		{"inverted range", func(c *Config) {
			c.Pacing.Phases["jitter"] = DelayRange{Min: 2 * time.Second, Max: time.Second}
		}, `pacing phase "jitter"`},
		{"no output", func(c *Config) { c.Output.Directory = "" }, "output directory is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"headless":   true,
		"batch-size": 12,
		"no-pacing":  true,
		"output":     "./posts",
		"log-level":  "warn",
	})

	assert.True(t, config.Browser.Headless)
	assert.Equal(t, 12, config.Scrape.BatchSize)
	assert.False(t, config.Pacing.Enabled)
	assert.Equal(t, "./posts", config.Output.Directory)
	assert.Equal(t, "warn", config.Logging.Level)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	config := DefaultConfig()
	config.Scrape.BatchSize = 7
	require.NoError(t, config.Save(path))

	reloaded := DefaultConfig()
	require.NoError(t, reloaded.LoadFromFile(path))
	assert.Equal(t, 7, reloaded.Scrape.BatchSize)
	assert.Equal(t, config.Pacing.Phases, reloaded.Pacing.Phases)
}

func TestParseInputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linkedin_input.txt")
	content := "https://www.linkedin.com/in/jane-doe/\n45\n\njane@example.com\nhunter2\nY\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	in, err := ParseInputFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/in/jane-doe/", in.ProfileURL)
	assert.Equal(t, 45, in.Posts)
	assert.Equal(t, "jane@example.com", in.Email)
	assert.Equal(t, "hunter2", in.Password)
	assert.True(t, in.Headless)
}

func TestParseInputFileErrors(t *testing.T) {
	dir := t.TempDir()

	short := filepath.Join(dir, "short.txt")
	require.NoError(t, os.WriteFile(short, []byte("https://x\n10\n"), 0600))
	_, err := ParseInputFile(short)
	assert.ErrorContains(t, err, "need 5")

	badCount := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(badCount, []byte("u\nmany\ne\np\nn\n"), 0600))
	_, err = ParseInputFile(badCount)
	assert.ErrorContains(t, err, "invalid post count")

	_, err = ParseInputFile(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
