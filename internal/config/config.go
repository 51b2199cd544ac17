// Package config provides run configuration from a YAML file and environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"stabbench/internal/apperrors"
)

// Engine defaults. A batch size of 0 means "as many workers as jobs".
const (
	DefaultWaitInterval = 60 * time.Second
	DefaultMaxRetries   = 100
)

// Settings holds the engine parameters for one predictor.
type Settings struct {
	WaitInterval time.Duration // seconds between poll/backoff/snapshot cycles
	BatchSize    int           // max in-flight jobs against one service
	MaxRetries   int           // initial poll timeout budget
}

// Credentials authenticate against predictors that require a login step.
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Email    string `yaml:"email"`
}

// Override holds per-predictor overrides. Nil fields inherit the global value.
type Override struct {
	WaitInterval *int `yaml:"wait_interval"` // seconds
	BatchSize    *int `yaml:"batch_size"`
	MaxRetries   *int `yaml:"max_retries"`
}

// Run is the top-level run configuration.
//
// Global keys apply to every predictor; the predictors map overrides them
// per predictor name:
//
//	wait_interval: 60
//	max_retries: 100
//	predictors:
//	  ddgun:
//	    batch_size: 5
type Run struct {
	WaitInterval int                 `yaml:"wait_interval"` // seconds
	BatchSize    int                 `yaml:"batch_size"`
	MaxRetries   int                 `yaml:"max_retries"`
	Credentials  Credentials         `yaml:"credentials"`
	Permissive   bool                `yaml:"permissive"`
	Predictors   map[string]Override `yaml:"predictors"`
}

// Load reads and parses a run configuration file.
func Load(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Config(fmt.Sprintf("cannot read config file %q: %v", path, err))
	}
	return Parse(data)
}

// Parse parses YAML run configuration.
func Parse(data []byte) (*Run, error) {
	var r Run
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, apperrors.Config(fmt.Sprintf("invalid config file: %v", err))
	}
	if r.WaitInterval < 0 || r.BatchSize < 0 || r.MaxRetries < 0 {
		return nil, apperrors.Config("wait_interval, batch_size and max_retries must not be negative")
	}
	return &r, nil
}

// SettingsFor merges global settings with the override for one predictor.
// Zero global values fall back to the package defaults.
func (r *Run) SettingsFor(name string) Settings {
	s := Settings{
		WaitInterval: DefaultWaitInterval,
		MaxRetries:   DefaultMaxRetries,
	}
	if r == nil {
		return s
	}
	if r.WaitInterval > 0 {
		s.WaitInterval = time.Duration(r.WaitInterval) * time.Second
	}
	if r.BatchSize > 0 {
		s.BatchSize = r.BatchSize
	}
	if r.MaxRetries > 0 {
		s.MaxRetries = r.MaxRetries
	}

	o, ok := r.Predictors[name]
	if !ok {
		return s
	}
	if o.WaitInterval != nil && *o.WaitInterval > 0 {
		s.WaitInterval = time.Duration(*o.WaitInterval) * time.Second
	}
	if o.BatchSize != nil && *o.BatchSize > 0 {
		s.BatchSize = *o.BatchSize
	}
	if o.MaxRetries != nil && *o.MaxRetries > 0 {
		s.MaxRetries = *o.MaxRetries
	}
	return s
}

// FromEnv fills unset credential fields from the environment.
// STABBENCH_PASSWORD_FILE takes precedence over STABBENCH_PASSWORD so the
// secret can be mounted instead of exported.
func (c Credentials) FromEnv() Credentials {
	if c.Username == "" {
		c.Username = GetEnv("STABBENCH_USERNAME", "")
	}
	if c.Password == "" {
		if file := GetEnv("STABBENCH_PASSWORD_FILE", ""); file != "" {
			c.Password = GetSecretFile(file)
		} else {
			c.Password = GetEnv("STABBENCH_PASSWORD", "")
		}
	}
	if c.Email == "" {
		c.Email = GetEnv("STABBENCH_EMAIL", "")
	}
	return c
}

// ServiceConfig holds process-level configuration for the CLI binary.
type ServiceConfig struct {
	MetricsPort     int           // 0 disables the /metrics endpoint
	ShutdownTimeout time.Duration // grace period for the metrics server
}

// LoadServiceConfig loads process configuration from environment variables.
func LoadServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		MetricsPort:     GetIntEnv("METRICS_PORT", 0),
		ShutdownTimeout: GetDurationEnv("SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}
