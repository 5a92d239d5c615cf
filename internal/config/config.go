package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultEndpoint is the classification endpoint used when nothing overrides it.
const DefaultEndpoint = "http://127.0.0.1:8000/predict-image"

// Ordering values for SubmissionConfig.Ordering.
const (
	OrderingLatestIssued = "latest_issued"
	OrderingLastResolved = "last_resolved"
)

// Config holds all leafcheck configuration.
type Config struct {
	// Classification service
	Endpoint string `yaml:"endpoint"`
	Timeout  string `yaml:"timeout"` // empty = no client-side timeout

	Submission SubmissionConfig `yaml:"submission"`
	Picker     PickerConfig     `yaml:"picker"`
	UI         UIConfig         `yaml:"ui"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SubmissionConfig controls how overlapping submissions settle.
type SubmissionConfig struct {
	// Ordering decides which response is displayed when requests overlap:
	// latest_issued keeps only the newest request's answer, last_resolved
	// shows whichever answer arrives last.
	Ordering string `yaml:"ordering"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Endpoint: DefaultEndpoint,
		Submission: SubmissionConfig{
			Ordering: OrderingLatestIssued,
		},
		Picker: DefaultPickerConfig(),
		UI: UIConfig{
			Theme: "auto",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultConfigPath returns the workspace-local config location.
func DefaultConfigPath() string {
	return filepath.Join(".leafcheck", "config.yaml")
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if endpoint := os.Getenv("LEAFCHECK_ENDPOINT"); endpoint != "" {
		c.Endpoint = endpoint
	}
	if ordering := os.Getenv("LEAFCHECK_ORDERING"); ordering != "" {
		c.Submission.Ordering = ordering
	}
	if os.Getenv("LEAFCHECK_DEBUG") == "1" {
		c.Logging.DebugMode = true
		c.Logging.Level = "debug"
	}
}

// Validate checks the configuration for values the client cannot use.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", c.Endpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: must be an absolute http(s) URL", c.Endpoint)
	}

	switch c.Submission.Ordering {
	case "", OrderingLatestIssued, OrderingLastResolved:
	default:
		return fmt.Errorf("unknown submission ordering %q (want %s or %s)",
			c.Submission.Ordering, OrderingLatestIssued, OrderingLastResolved)
	}

	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			return fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
		}
	}
	return nil
}

// GetTimeout returns the HTTP client timeout. Zero means none.
func (c *Config) GetTimeout() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}
