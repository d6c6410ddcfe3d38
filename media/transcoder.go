package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/process"
	"github.com/kbukum/vidscribe/provider"
)

// ProviderName identifies the transcoder in logs, traces and metrics.
const ProviderName = "ffmpeg"

const (
	defaultBinary     = "ffmpeg"
	defaultSampleRate = 16000
	defaultChannels   = 1
)

// Config holds transcoder settings.
type Config struct {
	Binary      string        `yaml:"binary" mapstructure:"binary"`
	SampleRate  int           `yaml:"sample_rate" mapstructure:"sample_rate"`
	Channels    int           `yaml:"channels" mapstructure:"channels"`
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = defaultBinary
	}
	if c.SampleRate == 0 {
		c.SampleRate = defaultSampleRate
	}
	if c.Channels == 0 {
		c.Channels = defaultChannels
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return fmt.Errorf("media: sample_rate out of range (got: %d)", c.SampleRate)
	}
	if c.Channels < 1 || c.Channels > 2 {
		return fmt.Errorf("media: channels must be 1 or 2 (got: %d)", c.Channels)
	}
	return nil
}

// TranscodeRequest names the video to read and the WAV file to write.
type TranscodeRequest struct {
	Input string `json:"input" validate:"required"`
	// Output defaults to Input with its extension replaced by ".wav".
	Output string `json:"output,omitempty"`
}

// TranscodeResult describes the produced audio file.
type TranscodeResult struct {
	Output   string        `json:"output"`
	Size     int64         `json:"size"`
	Duration time.Duration `json:"duration"`
}

// Transcoder runs `ffmpeg -y -i <in> -vn -ac <channels> -ar <rate> -f wav <out>`.
// It implements provider.RequestResponse so the pipeline can wrap it
// with middleware.
type Transcoder struct {
	cfg Config
	sub *process.SubprocessProvider[TranscodeRequest, *TranscodeResult]
}

var _ provider.RequestResponse[TranscodeRequest, *TranscodeResult] = (*Transcoder)(nil)

// NewTranscoder creates a Transcoder.
func NewTranscoder(cfg Config) (*Transcoder, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Transcoder{cfg: cfg}
	t.sub = process.NewSubprocessProvider(ProviderName, t.buildCommand, t.parseOutput).
		WithAvailabilityCheck(func(context.Context) bool { return process.LookPath(cfg.Binary) })
	return t, nil
}

// Name returns the transcoder name.
func (t *Transcoder) Name() string { return ProviderName }

// IsAvailable reports whether the ffmpeg binary can be found.
func (t *Transcoder) IsAvailable(ctx context.Context) bool { return t.sub.IsAvailable(ctx) }

// Execute is Transcode under the provider.RequestResponse name.
func (t *Transcoder) Execute(ctx context.Context, req TranscodeRequest) (*TranscodeResult, error) {
	return t.Transcode(ctx, req)
}

// Transcode converts req.Input to WAV. A missing input is reported as
// NOT_FOUND; ffmpeg failures as EXTERNAL_SERVICE_ERROR with the stderr tail.
func (t *Transcoder) Transcode(ctx context.Context, req TranscodeRequest) (*TranscodeResult, error) {
	if req.Input == "" {
		return nil, apperrors.MissingField("input")
	}
	if _, err := os.Stat(req.Input); err != nil {
		return nil, apperrors.NotFound("video", req.Input).WithCause(err)
	}
	if req.Output == "" {
		req.Output = OutputPath(req.Input)
	}
	if req.Output == req.Input {
		return nil, apperrors.InvalidInput("output", "must differ from input")
	}
	return t.sub.Execute(ctx, req)
}

// OutputPath returns the default WAV path for a video path.
func OutputPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".wav"
}

func (t *Transcoder) buildCommand(req TranscodeRequest) (process.Command, error) {
	return process.Command{
		Binary: t.cfg.Binary,
		Args: []string{
			"-y", "-i", req.Input,
			"-vn",
			"-ac", strconv.Itoa(t.cfg.Channels),
			"-ar", strconv.Itoa(t.cfg.SampleRate),
			"-f", "wav",
			req.Output,
		},
		GracePeriod: t.cfg.GracePeriod,
	}, nil
}

func (t *Transcoder) parseOutput(req TranscodeRequest, res *process.Result) (*TranscodeResult, error) {
	info, err := os.Stat(req.Output)
	if err != nil {
		return nil, apperrors.ExternalServiceError(ProviderName,
			fmt.Errorf("output %s not written: %w", req.Output, err)).
			WithDetail("stderr", res.StderrTail(5))
	}
	return &TranscodeResult{Output: req.Output, Size: info.Size(), Duration: res.Duration}, nil
}
