// Package config loads the daemon configuration from a YAML file.
//
// All settings have working defaults; a missing config file is not an
// error for callers that start from Default and only call Load when a
// path was given.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Validation errors.
var (
	ErrNegativeDelay  = errors.New("delay must not be negative")
	ErrServiceMissing = errors.New("discovery service name must not be empty")
)

// DiscoveryConfig names the hardware service in the naming registry.
type DiscoveryConfig struct {
	// Service is the registry service name (an mDNS service type for
	// the mDNS-backed registry).
	Service string `yaml:"service"`

	// Instance is the service instance name. Empty matches any
	// instance.
	Instance string `yaml:"instance"`

	// Domain is the mDNS browse domain.
	Domain string `yaml:"domain"`

	// Port is the port announced for the hardware service when the
	// daemon publishes it itself.
	Port int `yaml:"port"`
}

// Config holds the daemon configuration.
type Config struct {
	// ReenableDelayMs is the minimum time after the radio is disabled
	// before an enable toggle is acted on. Toggles arriving earlier are
	// deferred.
	ReenableDelayMs int `yaml:"reenable_delay_ms"`

	// DeferMarginMs pads deferred toggle delivery to absorb timer
	// rounding.
	DeferMarginMs int `yaml:"defer_margin_ms"`

	// DisableWifiInECM controls whether emergency events suspend the
	// radio. When false, emergency signals never enter the override.
	DisableWifiInECM bool `yaml:"disable_wifi_in_ecm"`

	// ScanProxyEnabled gates the scan-request forwarding proxy.
	ScanProxyEnabled bool `yaml:"scan_proxy_enabled"`

	// StartLagMs is the simulated hardware bring-up delay.
	StartLagMs int `yaml:"start_lag_ms"`

	// Discovery names the hardware service to supervise.
	Discovery DiscoveryConfig `yaml:"discovery"`

	// EventLogPath, when set, enables the CBOR event log.
	EventLogPath string `yaml:"event_log"`

	// LogLevel is the slog level: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the default daemon configuration.
func Default() Config {
	return Config{
		ReenableDelayMs:  500,
		DeferMarginMs:    5,
		DisableWifiInECM: true,
		ScanProxyEnabled: true,
		StartLagMs:       200,
		Discovery: DiscoveryConfig{
			Service:  "_wardhal._tcp",
			Instance: "",
			Domain:   "local.",
			Port:     8443,
		},
		LogLevel: "info",
	}
}

// Load reads the YAML file at path on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for out-of-range values.
func (c *Config) Validate() error {
	if c.ReenableDelayMs < 0 || c.DeferMarginMs < 0 || c.StartLagMs < 0 {
		return ErrNegativeDelay
	}
	if c.Discovery.Service == "" {
		return ErrServiceMissing
	}
	return nil
}

// ReenableDelay returns the re-enable delay as a duration.
func (c *Config) ReenableDelay() time.Duration {
	return time.Duration(c.ReenableDelayMs) * time.Millisecond
}

// DeferMargin returns the defer margin as a duration.
func (c *Config) DeferMargin() time.Duration {
	return time.Duration(c.DeferMarginMs) * time.Millisecond
}

// StartLag returns the simulated bring-up delay as a duration.
func (c *Config) StartLag() time.Duration {
	return time.Duration(c.StartLagMs) * time.Millisecond
}
