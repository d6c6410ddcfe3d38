package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kbukum/vidscribe/provider"
	"github.com/kbukum/vidscribe/resilience"
)

// StageConfig holds the execution policy of one stage.
type StageConfig struct {
	// Timeout bounds the stage including all retries. Zero means no limit.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Retry is the stage's retry policy.
	Retry resilience.RetryPolicy `yaml:"retry" mapstructure:"retry"`
	// CircuitBreaker is disabled when max_failures is zero.
	CircuitBreaker resilience.BreakerPolicy `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
}

func (c *StageConfig) applyDefaults(timeout time.Duration, attempts int) {
	if c.Timeout == 0 {
		c.Timeout = timeout
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = attempts
	}
	c.Retry.ApplyDefaults()
}

func (c *StageConfig) validate(stage string) error {
	if c.Timeout < 0 {
		return fmt.Errorf("%s: timeout must be >= 0", stage)
	}
	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("%s: retry: %w", stage, err)
	}
	if c.CircuitBreaker.MaxFailures < 0 {
		return fmt.Errorf("%s: circuit_breaker.max_failures must be >= 0", stage)
	}
	return nil
}

// resilience converts the stage policy for provider.WithResilience.
func (c StageConfig) resilience(name string) provider.ResilienceConfig {
	retry := c.Retry.Config()
	rc := provider.ResilienceConfig{Retry: &retry}
	if c.CircuitBreaker.Enabled() {
		cb := c.CircuitBreaker.Config(name)
		rc.CircuitBreaker = &cb
	}
	return rc
}

// Config configures a Runner. The Runner keeps its own copy; later changes
// to a Config value have no effect on a running pipeline.
type Config struct {
	// WorkDir is where per-job temp directories are created.
	WorkDir string `yaml:"work_dir" mapstructure:"work_dir"`
	// MaxConcurrent is the number of jobs processed at once.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	// QueueWait is how long a job waits for a free slot before being rejected.
	QueueWait time.Duration `yaml:"queue_wait" mapstructure:"queue_wait"`
	// Language is passed to the transcription backend. Empty auto-detects.
	Language string `yaml:"language" mapstructure:"language"`
	// Folder overrides the uploader's transcript folder.
	Folder string `yaml:"folder" mapstructure:"folder"`
	// DisableDedup processes every upload even when an identical video with
	// the same name was already transcribed.
	DisableDedup bool `yaml:"disable_dedup" mapstructure:"disable_dedup"`

	Transcode  StageConfig `yaml:"transcode" mapstructure:"transcode"`
	Transcribe StageConfig `yaml:"transcribe" mapstructure:"transcribe"`
	Upload     StageConfig `yaml:"upload" mapstructure:"upload"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.WorkDir == "" {
		c.WorkDir = filepath.Join(os.TempDir(), "vidscribe", "jobs")
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 2
	}
	if c.QueueWait == 0 {
		c.QueueWait = 30 * time.Second
	}
	c.Transcode.applyDefaults(10*time.Minute, 1)
	c.Transcribe.applyDefaults(30*time.Minute, 2)
	c.Upload.applyDefaults(2*time.Minute, 3)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("max_concurrent must be > 0")
	}
	if c.QueueWait < 0 {
		return fmt.Errorf("queue_wait must be >= 0")
	}
	if filepath.IsAbs(c.Folder) {
		return fmt.Errorf("folder must be relative (got: %s)", c.Folder)
	}
	if err := c.Transcode.validate("transcode"); err != nil {
		return err
	}
	if err := c.Transcribe.validate("transcribe"); err != nil {
		return err
	}
	return c.Upload.validate("upload")
}
