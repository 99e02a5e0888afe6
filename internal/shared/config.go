package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Storage  StorageConfig  `toml:"storage"`
	Database DatabaseConfig `toml:"database"`
	Upload   UploadConfig   `toml:"upload"`
}

// APIConfig contains discovery API endpoints and transport limits.
type APIConfig struct {
	BaseURL              string  `toml:"base_url"`
	StreamURL            string  `toml:"stream_url"`
	TimeoutSeconds       int     `toml:"timeout_seconds"`
	UploadTimeoutSeconds int     `toml:"upload_timeout_seconds"`
	RequestsPerSecond    float64 `toml:"requests_per_second"`
}

// Timeout returns the transport timeout for ordinary API calls.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// UploadTimeout returns the transport timeout for multipart uploads, which
// carry large binaries and need a much longer ceiling.
func (c APIConfig) UploadTimeout() time.Duration {
	if c.UploadTimeoutSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.UploadTimeoutSeconds) * time.Second
}

// StorageConfig lists object-storage domains whose asset URLs require
// signed-URL resolution before rendering or downloading.
type StorageConfig struct {
	SignedDomains []string `toml:"signed_domains"`
}

// DatabaseConfig contains credential store settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// UploadConfig controls the progress poll loop.
type UploadConfig struct {
	PollIntervalMS int `toml:"poll_interval_ms"`
	MaxWaitSeconds int `toml:"max_wait_seconds"`
}

// PollInterval returns the fixed interval between progress polls.
func (c UploadConfig) PollInterval() time.Duration {
	if c.PollIntervalMS <= 0 {
		return time.Second
	}
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// MaxWait returns the client-side ceiling on the poll loop. Zero means no
// ceiling: the tracker trusts the server to eventually report a terminal
// state.
func (c UploadConfig) MaxWait() time.Duration {
	if c.MaxWaitSeconds <= 0 {
		return 0
	}
	return time.Duration(c.MaxWaitSeconds) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
