package intake

import (
	"fmt"
	"strings"
	"time"
)

// DefaultExtensions are the video file extensions picked up by default.
var DefaultExtensions = []string{".mp4", ".mov", ".mkv", ".webm", ".avi"}

// Config configures the inbox watcher.
type Config struct {
	// Enabled controls whether the watcher runs.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Dir is the inbox directory. It is created if missing.
	Dir string `yaml:"dir" mapstructure:"dir"`
	// Extensions lists accepted file extensions, case-insensitive.
	Extensions []string `yaml:"extensions" mapstructure:"extensions"`
	// SettleDelay is how long a file must go without writes before it is
	// submitted.
	SettleDelay time.Duration `yaml:"settle_delay" mapstructure:"settle_delay"`
	// ScanExisting submits files already in Dir at startup.
	ScanExisting bool `yaml:"scan_existing" mapstructure:"scan_existing"`
	// JobTimeout bounds each submitted job. Zero means no limit.
	JobTimeout time.Duration `yaml:"job_timeout" mapstructure:"job_timeout"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Dir == "" {
		c.Dir = "./inbox"
	}
	if len(c.Extensions) == 0 {
		c.Extensions = append([]string(nil), DefaultExtensions...)
	}
	for i, ext := range c.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Extensions[i] = ext
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = 2 * time.Second
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Dir == "" {
		return fmt.Errorf("intake dir is required")
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle_delay must be >= 0")
	}
	if c.JobTimeout < 0 {
		return fmt.Errorf("job_timeout must be >= 0")
	}
	return nil
}
