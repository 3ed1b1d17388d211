package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/OpenFero/alertrelay/pkg/scheduler"
	"github.com/ghodss/yaml"
)

const (
	DefaultAppName         = "Grafana"
	DefaultBindHost        = "0.0.0.0:3333"
	DefaultLinearRetrySecs = 60
	DefaultMaxInFlight     = 4
	DefaultRequestTimeout  = 10
	DefaultTickSecs        = 60
)

// Config is the runtime configuration, read from a JSON or YAML file
type Config struct {
	ProwlAPIKeys                 []string `json:"prowl_api_keys"`
	FingerprintsFile             string   `json:"fingerprints_file"`
	AppName                      string   `json:"app_name"`
	BindHost                     string   `json:"bind_host"`
	LinearRetrySecs              int      `json:"linear_retry_secs"`
	AlertEveryMinutes            *int     `json:"alert_every_minutes,omitempty"`
	RealertCron                  string   `json:"realert_cron,omitempty"`
	TestMode                     bool     `json:"test_mode"`
	WaitSecsBetweenNotifications int      `json:"wait_secs_between_notifications"`
	MaxInFlight                  int      `json:"max_in_flight"`
	RequestTimeoutSecs           int      `json:"request_timeout_secs"`
	TickSecs                     int      `json:"tick_secs"`
}

// Load reads and validates the configuration file at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a JSON or YAML document. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(jsonData))
	dec.DisallowUnknownFields()

	cfg := &Config{}
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AppName == "" {
		c.AppName = DefaultAppName
	}
	if c.BindHost == "" {
		c.BindHost = DefaultBindHost
	}
	if c.LinearRetrySecs == 0 {
		c.LinearRetrySecs = DefaultLinearRetrySecs
	}
	if c.MaxInFlight == 0 {
		c.MaxInFlight = DefaultMaxInFlight
	}
	if c.RequestTimeoutSecs == 0 {
		c.RequestTimeoutSecs = DefaultRequestTimeout
	}
	if c.TickSecs == 0 {
		c.TickSecs = DefaultTickSecs
	}
}

// Validate checks required fields and ranges
func (c *Config) Validate() error {
	var errs []error
	if c.FingerprintsFile == "" {
		errs = append(errs, errors.New("fingerprints_file is required"))
	}
	if !c.TestMode && len(c.ProwlAPIKeys) == 0 {
		errs = append(errs, errors.New("prowl_api_keys is required unless test_mode is set"))
	}
	if c.LinearRetrySecs < 0 {
		errs = append(errs, errors.New("linear_retry_secs must not be negative"))
	}
	if c.AlertEveryMinutes != nil && *c.AlertEveryMinutes <= 0 {
		errs = append(errs, errors.New("alert_every_minutes must be positive"))
	}
	if c.RealertCron != "" {
		if _, err := scheduler.ParseCron(c.RealertCron); err != nil {
			errs = append(errs, fmt.Errorf("realert_cron: %w", err))
		}
	}
	if c.WaitSecsBetweenNotifications < 0 {
		errs = append(errs, errors.New("wait_secs_between_notifications must not be negative"))
	}
	if c.MaxInFlight < 0 || c.RequestTimeoutSecs < 0 || c.TickSecs < 0 {
		errs = append(errs, errors.New("max_in_flight, request_timeout_secs and tick_secs must not be negative"))
	}
	return errors.Join(errs...)
}

// LinearRetry returns the fixed delay between delivery retries
func (c *Config) LinearRetry() time.Duration {
	return time.Duration(c.LinearRetrySecs) * time.Second
}

// AlertEvery returns the re-alert interval, zero when disabled
func (c *Config) AlertEvery() time.Duration {
	if c.AlertEveryMinutes == nil {
		return 0
	}
	return time.Duration(*c.AlertEveryMinutes) * time.Minute
}

// WaitBetweenNotifications returns the minimum spacing between sends
func (c *Config) WaitBetweenNotifications() time.Duration {
	return time.Duration(c.WaitSecsBetweenNotifications) * time.Second
}

// RequestTimeout bounds a single provider call
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// Tick returns the scheduler wake interval
func (c *Config) Tick() time.Duration {
	return time.Duration(c.TickSecs) * time.Second
}
