package worksteal

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/aovestdipaperino/worksteal/service/scheduler"
)

// Config is a serialisable representation of the pool configuration. It can
// be populated from JSON, YAML, environment variables, etc. The zero-value
// is useful – all nested fields inherit their package defaults.

type Config struct {
	Scheduler scheduler.Config `json:"scheduler" yaml:"scheduler"`
}

// DefaultConfig returns a Config populated with the same default values used
// by the constructors. Callers may modify the returned struct before passing
// it to New via WithConfig.
func DefaultConfig() *Config {
	return &Config{
		Scheduler: scheduler.DefaultConfig(),
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	return c.Scheduler.Validate()
}

// configDocument is the YAML wire form of Config. Durations are expressed as
// strings ("5s", "250ms") and parsed with time.ParseDuration.
type configDocument struct {
	Scheduler struct {
		Workers         *int   `yaml:"workers"`
		StealBatch      *int   `yaml:"stealBatch"`
		StealAttempts   *int   `yaml:"stealAttempts"`
		ShutdownTimeout string `yaml:"shutdownTimeout"`
	} `yaml:"scheduler"`
}

// LoadConfig reads a YAML configuration document from the supplied URL
// (plain file paths work as well). Occurrences of ${env.KEY} anywhere in the
// document are replaced with the value of the corresponding environment
// variable before decoding. Fields absent from the document keep their
// defaults.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	var document configDocument
	expanded := expandEnvExpr(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &document); err != nil {
		return nil, fmt.Errorf("failed to decode config %v: %w", URL, err)
	}

	config := DefaultConfig()
	if document.Scheduler.Workers != nil {
		config.Scheduler.WorkerCount = *document.Scheduler.Workers
	}
	if document.Scheduler.StealBatch != nil {
		config.Scheduler.StealBatch = *document.Scheduler.StealBatch
	}
	if document.Scheduler.StealAttempts != nil {
		config.Scheduler.StealAttempts = *document.Scheduler.StealAttempts
	}
	if document.Scheduler.ShutdownTimeout != "" {
		timeout, err := time.ParseDuration(document.Scheduler.ShutdownTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid shutdownTimeout in %v: %w", URL, err)
		}
		config.Scheduler.ShutdownTimeout = timeout
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %v: %w", URL, err)
	}
	return config, nil
}
