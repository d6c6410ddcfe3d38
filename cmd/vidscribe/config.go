package main

import (
	"fmt"
	"slices"

	"github.com/kbukum/vidscribe/config"
	"github.com/kbukum/vidscribe/intake"
	"github.com/kbukum/vidscribe/media"
	"github.com/kbukum/vidscribe/observability"
	"github.com/kbukum/vidscribe/pipeline"
	"github.com/kbukum/vidscribe/redis"
	"github.com/kbukum/vidscribe/server"
	"github.com/kbukum/vidscribe/storage"
	"github.com/kbukum/vidscribe/transcription/whisper"
	"github.com/kbukum/vidscribe/transcription/whispercpp"
)

var backends = []string{whispercpp.ProviderName, whisper.ProviderName}

// TranscriptionConfig selects the speech-to-text backend. Providers holds
// per-backend options decoded by the backend's factory.
type TranscriptionConfig struct {
	Backend   string                    `yaml:"backend" mapstructure:"backend"`
	// Priority, when set, replaces Backend: every listed backend is
	// initialized and the first available one is used.
	Priority  []string                  `yaml:"priority" mapstructure:"priority"`
	Providers map[string]map[string]any `yaml:"providers" mapstructure:"providers"`
}

// AppConfig is the vidscribe configuration file layout.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Media         media.Config         `yaml:"media" mapstructure:"media"`
	Transcription TranscriptionConfig  `yaml:"transcription" mapstructure:"transcription"`
	Pipeline      pipeline.Config      `yaml:"pipeline" mapstructure:"pipeline"`
	Intake        intake.Config        `yaml:"intake" mapstructure:"intake"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults applies defaults to every section.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Media.ApplyDefaults()
	if c.Transcription.Backend == "" {
		c.Transcription.Backend = whispercpp.ProviderName
	}
	c.Pipeline.ApplyDefaults()
	c.Intake.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate validates every section.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	checks := []struct {
		section string
		fn      func() error
	}{
		{"server", c.Server.Validate},
		{"storage", c.Storage.Validate},
		{"redis", c.Redis.Validate},
		{"media", c.Media.Validate},
		{"pipeline", c.Pipeline.Validate},
		{"intake", c.Intake.Validate},
		{"observability", c.Observability.Validate},
	}
	for _, chk := range checks {
		if err := chk.fn(); err != nil {
			return fmt.Errorf("%s: %w", chk.section, err)
		}
	}
	if !slices.Contains(backends, c.Transcription.Backend) {
		return fmt.Errorf("transcription.backend must be one of %v (got: %q)", backends, c.Transcription.Backend)
	}
	for i, name := range c.Transcription.Priority {
		if !slices.Contains(backends, name) {
			return fmt.Errorf("transcription.priority[%d] must be one of %v (got: %q)", i, backends, name)
		}
		if slices.Index(c.Transcription.Priority, name) != i {
			return fmt.Errorf("transcription.priority lists %q twice", name)
		}
	}
	return nil
}
