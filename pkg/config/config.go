// Package config provides configuration loading and validation for the
// editor service.
//
// Configuration is loaded once at startup from a YAML file, decoded strictly
// (unknown keys are rejected), then overlaid with environment variables and
// validated before anything else starts. Invalid configs are rejected rather
// than patched up at runtime; only missing values receive defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"ameditor/pkg/logx"
)

// Defaults applied when the config file leaves a value unset.
const (
	DefaultListenAddr       = ":8080"
	DefaultHistoryDBPath    = "ameditor.db"
	DefaultRemoteTimeoutSec = 30

	DefaultLeadingWindowMS = 300
	DefaultSettleDelayMS   = 500
	DefaultMaxWaitMS       = 5000
)

// Environment variable overrides.
const (
	EnvListenAddr  = "AMEDITOR_LISTEN_ADDR"
	EnvRemoteURL   = "AMEDITOR_REMOTE_URL"
	EnvTenantID    = "AMEDITOR_TENANT_ID"
	EnvRemoteToken = "AMEDITOR_REMOTE_TOKEN" //nolint:gosec // Env var name, not a credential
)

// Config is the top-level service configuration.
type Config struct {
	ListenAddr    string           `yaml:"listen_addr,omitempty"`
	Remote        RemoteConfig     `yaml:"remote"`
	Validation    ValidationConfig `yaml:"validation,omitempty"`
	HistoryDBPath string           `yaml:"history_db_path,omitempty"`
	PrometheusURL string           `yaml:"prometheus_url,omitempty"`
}

// RemoteConfig locates the remote Alertmanager configuration API.
type RemoteConfig struct {
	URL        string `yaml:"url"`
	TenantID   string `yaml:"tenant_id"`
	TimeoutSec int    `yaml:"timeout_sec,omitempty"`
}

// ValidationConfig tunes the debounce cadences of the validation pipeline.
// Durations are in milliseconds.
type ValidationConfig struct {
	LeadingWindowMS int   `yaml:"leading_window_ms,omitempty"`
	SettleDelayMS   int   `yaml:"settle_delay_ms,omitempty"`
	MaxWaitMS       int   `yaml:"max_wait_ms,omitempty"`
	UseMarkers      *bool `yaml:"use_markers,omitempty"`
}

// LeadingWindow returns the leading cadence window as a duration.
func (v ValidationConfig) LeadingWindow() time.Duration {
	return time.Duration(v.LeadingWindowMS) * time.Millisecond
}

// SettleDelay returns the trailing settle delay as a duration.
func (v ValidationConfig) SettleDelay() time.Duration {
	return time.Duration(v.SettleDelayMS) * time.Millisecond
}

// MaxWait returns the trailing bounded wait as a duration.
func (v ValidationConfig) MaxWait() time.Duration {
	return time.Duration(v.MaxWaitMS) * time.Millisecond
}

// MarkersEnabled reports whether leading checks should consult markers.
// Defaults to true when unset.
func (v ValidationConfig) MarkersEnabled() bool {
	return v.UseMarkers == nil || *v.UseMarkers
}

// Load reads, overlays, and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := parse(string(data))
	if err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logx.NewLogger("config").Info("Loaded config from %s (remote: %s, tenant: %s)",
		path, cfg.Remote.URL, cfg.Remote.TenantID)

	return cfg, nil
}

// parse decodes config YAML strictly.
func parse(text string) (*Config, error) {
	dec := yaml.NewDecoder(strings.NewReader(text))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvListenAddr); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv(EnvRemoteURL); v != "" {
		c.Remote.URL = v
	}
	if v := os.Getenv(EnvTenantID); v != "" {
		c.Remote.TenantID = v
	}
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.HistoryDBPath == "" {
		c.HistoryDBPath = DefaultHistoryDBPath
	}
	if c.Remote.TimeoutSec <= 0 {
		c.Remote.TimeoutSec = DefaultRemoteTimeoutSec
	}
	if c.Validation.LeadingWindowMS <= 0 {
		c.Validation.LeadingWindowMS = DefaultLeadingWindowMS
	}
	if c.Validation.SettleDelayMS <= 0 {
		c.Validation.SettleDelayMS = DefaultSettleDelayMS
	}
	if c.Validation.MaxWaitMS <= 0 {
		c.Validation.MaxWaitMS = DefaultMaxWaitMS
	}
}

// Validate rejects configurations the service cannot safely run with.
func (c *Config) Validate() error {
	var problems []string

	if c.Remote.URL == "" {
		problems = append(problems, "remote.url is required")
	}
	if c.Remote.TenantID == "" {
		problems = append(problems, "remote.tenant_id is required")
	}
	if c.Validation.SettleDelayMS >= c.Validation.MaxWaitMS {
		problems = append(problems, "validation.settle_delay_ms must be below validation.max_wait_ms")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
