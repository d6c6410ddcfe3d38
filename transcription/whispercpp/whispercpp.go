// Package whispercpp implements transcription.Provider by running the
// whisper.cpp command-line tool and parsing its timed stdout.
package whispercpp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kbukum/vidscribe/process"
	"github.com/kbukum/vidscribe/provider"
	"github.com/kbukum/vidscribe/transcription"
	"github.com/kbukum/vidscribe/util"
)

const (
	// ProviderName is the registered name for the whisper.cpp provider.
	ProviderName = "whispercpp"

	defaultBinary    = "./main"
	defaultModelPath = "models/ggml-base.en.bin"
)

// Config holds configuration for the whisper.cpp provider.
type Config struct {
	// Binary is the whisper.cpp executable. Relative paths resolve against Dir.
	Binary string `yaml:"binary" mapstructure:"binary"`
	// Dir is the working directory the tool runs in.
	Dir string `yaml:"dir" mapstructure:"dir"`
	// ModelPath is passed as -m. Relative paths resolve against Dir.
	ModelPath string `yaml:"model_path" mapstructure:"model_path"`
	// Language is passed as -l when set.
	Language string `yaml:"language" mapstructure:"language"`
	// Threads is passed as -t when positive.
	Threads int `yaml:"threads" mapstructure:"threads"`
	// ParseMode is "lenient" (default) or "strict".
	ParseMode string `yaml:"parse_mode" mapstructure:"parse_mode"`
	// HeaderLines overrides transcription.DefaultHeaderLines when set.
	HeaderLines *int `yaml:"header_lines" mapstructure:"header_lines"`
	// GracePeriod is the SIGTERM to SIGKILL delay on cancellation.
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = defaultBinary
	}
	if c.ModelPath == "" {
		c.ModelPath = defaultModelPath
	}
	if c.ParseMode == "" {
		c.ParseMode = transcription.ModeLenient.String()
	}
	if c.HeaderLines == nil {
		c.HeaderLines = util.Ptr(transcription.DefaultHeaderLines)
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if _, err := transcription.ParseMode(c.ParseMode); err != nil {
		return err
	}
	if c.HeaderLines != nil && *c.HeaderLines < 0 {
		return fmt.Errorf("whispercpp: header_lines must be >= 0 (got: %d)", *c.HeaderLines)
	}
	if c.Threads < 0 {
		return fmt.Errorf("whispercpp: threads must be >= 0 (got: %d)", c.Threads)
	}
	return nil
}

// Provider runs whisper.cpp as `<binary> -m <model> [-l lang] [-t n] <audio>`.
type Provider struct {
	cfg  Config
	opts []transcription.ParseOption
	sub  *process.SubprocessProvider[transcription.TranscriptionRequest, *transcription.TranscriptionResponse]
}

var _ transcription.Provider = (*Provider)(nil)

// NewProvider creates a whisper.cpp provider. Invalid configuration is
// reported here rather than on the first transcription.
func NewProvider(cfg Config) (*Provider, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, _ := transcription.ParseMode(cfg.ParseMode)

	p := &Provider{
		cfg:  cfg,
		opts: []transcription.ParseOption{transcription.WithMode(mode), transcription.WithHeaderLines(util.Deref(cfg.HeaderLines))},
	}
	p.sub = process.NewSubprocessProvider(ProviderName, p.buildCommand, p.parseOutput).
		WithAvailabilityCheck(p.available)
	return p, nil
}

// Factory returns a provider.Factory that creates whisper.cpp providers
// from a generic config map.
func Factory() provider.Factory[transcription.Provider] {
	return func(opts map[string]any) (transcription.Provider, error) {
		var cfg Config
		if err := transcription.DecodeOptions(opts, &cfg); err != nil {
			return nil, err
		}
		return NewProvider(cfg)
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether the binary and the model file are present.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	return p.sub.IsAvailable(ctx)
}

// Transcribe runs whisper.cpp on the audio file. In strict parse mode a
// malformed output line fails the call with an INVALID_FORMAT error that
// wraps a *transcription.ParseError.
func (p *Provider) Transcribe(ctx context.Context, req transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
	return p.sub.Execute(ctx, req)
}

func (p *Provider) buildCommand(req transcription.TranscriptionRequest) (process.Command, error) {
	if req.AudioPath == "" {
		return process.Command{}, fmt.Errorf("whispercpp: audio path is required")
	}
	model := p.cfg.ModelPath
	if req.Model != "" {
		model = req.Model
	}
	args := []string{"-m", model}
	lang := p.cfg.Language
	if req.Language != "" {
		lang = req.Language
	}
	if lang != "" {
		args = append(args, "-l", lang)
	}
	if p.cfg.Threads > 0 {
		args = append(args, "-t", fmt.Sprint(p.cfg.Threads))
	}
	audio, err := filepath.Abs(req.AudioPath)
	if err != nil {
		return process.Command{}, fmt.Errorf("whispercpp: resolve audio path: %w", err)
	}
	args = append(args, audio)

	return process.Command{
		Binary:      p.cfg.Binary,
		Args:        args,
		Dir:         p.cfg.Dir,
		GracePeriod: p.cfg.GracePeriod,
	}, nil
}

func (p *Provider) parseOutput(req transcription.TranscriptionRequest, res *process.Result) (*transcription.TranscriptionResponse, error) {
	raw := string(res.Stdout)
	utterances, err := transcription.Parse(raw, p.opts...)
	if err != nil {
		var perr *transcription.ParseError
		if errors.As(err, &perr) {
			return nil, perr.AppError().WithDetail("audio", req.AudioPath)
		}
		return nil, err
	}
	lang := p.cfg.Language
	if req.Language != "" {
		lang = req.Language
	}
	return &transcription.TranscriptionResponse{Raw: raw, Utterances: utterances, Language: lang}, nil
}

func (p *Provider) available(context.Context) bool {
	if strings.ContainsRune(p.cfg.Binary, filepath.Separator) {
		if !isFile(p.resolve(p.cfg.Binary)) {
			return false
		}
	} else if !process.LookPath(p.cfg.Binary) {
		return false
	}
	return isFile(p.resolve(p.cfg.ModelPath))
}

func (p *Provider) resolve(path string) string {
	if filepath.IsAbs(path) || p.cfg.Dir == "" {
		return path
	}
	return filepath.Join(p.cfg.Dir, path)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
