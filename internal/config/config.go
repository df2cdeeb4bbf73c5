// Package config loads the tool configuration from a JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config is the application configuration. The bandwidth section is stored
// configuration only; enforcement lives outside this core.
type Config struct {
	Network struct {
		Interface  string `json:"interface"`
		AutoDetect bool   `json:"auto_detect"`
	} `json:"network"`

	Sweep struct {
		Enabled   bool   `json:"enabled"`
		Timeout   string `json:"timeout"`
		BatchSize int    `json:"batch_size"`
		Retries   int    `json:"retries"`
		RateLimit string `json:"rate_limit"`
	} `json:"sweep"`

	MDNS struct {
		Enabled bool   `json:"enabled"`
		Timeout string `json:"timeout"`
	} `json:"mdns"`

	Poisoning struct {
		RefreshEnabled  bool   `json:"refresh_enabled"`
		RefreshInterval string `json:"refresh_interval"`
	} `json:"poisoning"`

	Bandwidth struct {
		DownloadKbps int  `json:"download_kbps"`
		UploadKbps   int  `json:"upload_kbps"`
		DropPackets  bool `json:"drop_packets"`
	} `json:"bandwidth"`

	Files struct {
		OutputFile string `json:"output_file"`
	} `json:"files"`
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.Network.AutoDetect = true
	cfg.Sweep.Enabled = true
	cfg.Sweep.Timeout = "4s"
	cfg.Sweep.BatchSize = 25
	cfg.Sweep.Retries = 2
	cfg.Sweep.RateLimit = "50ms"
	cfg.MDNS.Enabled = true
	cfg.MDNS.Timeout = "4s"
	cfg.Poisoning.RefreshInterval = "2s"
	cfg.Files.OutputFile = "hosts.json"
	return &cfg
}

// GetSweepTimeout returns the sweep reply-collection window.
func (c *Config) GetSweepTimeout() time.Duration {
	timeout, err := time.ParseDuration(c.Sweep.Timeout)
	if err != nil {
		// Default to 4 seconds if parsing fails
		return 4 * time.Second
	}
	return timeout
}

// GetSweepRateLimit returns the delay between transmission batches.
func (c *Config) GetSweepRateLimit() time.Duration {
	rateLimit, err := time.ParseDuration(c.Sweep.RateLimit)
	if err != nil {
		// Default to 50ms if parsing fails
		return 50 * time.Millisecond
	}
	return rateLimit
}

// GetMDNSTimeout returns the hostname-lookup window.
func (c *Config) GetMDNSTimeout() time.Duration {
	timeout, err := time.ParseDuration(c.MDNS.Timeout)
	if err != nil {
		// Default to 4 seconds if parsing fails
		return 4 * time.Second
	}
	return timeout
}

// GetRefreshInterval returns the re-poisoning interval, clamped to 1-5 s.
func (c *Config) GetRefreshInterval() time.Duration {
	interval, err := time.ParseDuration(c.Poisoning.RefreshInterval)
	if err != nil {
		// Default to 2 seconds if parsing fails
		interval = 2 * time.Second
	}
	if interval < time.Second {
		interval = time.Second
	}
	if interval > 5*time.Second {
		interval = 5 * time.Second
	}
	return interval
}

// GetSweepBatchSize returns the per-batch request count.
func (c *Config) GetSweepBatchSize() int {
	if c.Sweep.BatchSize <= 0 {
		return 25
	}
	return c.Sweep.BatchSize
}

// GetSweepRetries returns the retry-round budget for silent hosts.
func (c *Config) GetSweepRetries() int {
	if c.Sweep.Retries < 0 {
		return 0
	}
	return c.Sweep.Retries
}
