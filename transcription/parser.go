package transcription

import (
	"fmt"
	"strings"

	apperrors "github.com/kbukum/vidscribe/errors"
)

// Mode selects how the parser treats lines that do not match the
// "[<start> --> <end>]  <speech>" shape.
type Mode int

const (
	// ModeLenient silently drops malformed lines.
	ModeLenient Mode = iota
	// ModeStrict keeps parsing but reports every malformed line in a *ParseError.
	ModeStrict
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeLenient:
		return "lenient"
	case ModeStrict:
		return "strict"
	default:
		return "unknown"
	}
}

// ParseMode converts a mode name ("lenient", "strict") into a Mode.
// An empty string yields ModeLenient.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient":
		return ModeLenient, nil
	case "strict":
		return ModeStrict, nil
	default:
		return ModeLenient, fmt.Errorf("transcription: unknown parse mode %q", s)
	}
}

// DefaultHeaderLines is the number of leading lines whisper.cpp prints before
// the first timed segment. Its stdout always opens with one blank line.
const DefaultHeaderLines = 1

const (
	speechDelimiter = "]  "
	rangeDelimiter  = " --> "
)

var newlineStripper = strings.NewReplacer("\r", "", "\n", "")

type parseConfig struct {
	mode        Mode
	headerLines int
}

// ParseOption configures Parse.
type ParseOption func(*parseConfig)

// WithMode sets the malformed-line policy.
func WithMode(m Mode) ParseOption {
	return func(c *parseConfig) { c.mode = m }
}

// WithHeaderLines sets how many leading lines are discarded before parsing.
// Negative values are treated as zero.
func WithHeaderLines(n int) ParseOption {
	return func(c *parseConfig) {
		if n < 0 {
			n = 0
		}
		c.headerLines = n
	}
}

// ParseError lists the input lines that could not be parsed in strict mode.
type ParseError struct {
	// Lines holds 1-based line numbers of the raw input, in ascending order.
	Lines []int
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("transcription: %d malformed line(s): %v", len(e.Lines), e.Lines)
}

// AppError converts the parse error to an INVALID_FORMAT application error.
func (e *ParseError) AppError() *apperrors.AppError {
	return apperrors.InvalidFormat("transcript", "[<start> --> <end>]  <speech>").
		WithCause(e).
		WithDetail("lines", e.Lines)
}

// Parse converts raw transcription output into utterances in input order.
//
// The first DefaultHeaderLines lines are discarded (see WithHeaderLines),
// blank lines are skipped, and every other line must split into a bracketed
// time range and speech text. In ModeLenient (the default) the error is always
// nil; in ModeStrict the well-formed utterances are returned together with a
// *ParseError naming the malformed lines.
func Parse(raw string, opts ...ParseOption) ([]Utterance, error) {
	cfg := parseConfig{mode: ModeLenient, headerLines: DefaultHeaderLines}
	for _, o := range opts {
		o(&cfg)
	}

	utterances := make([]Utterance, 0)
	lines := strings.Split(raw, "\n")
	if len(lines) <= cfg.headerLines {
		return utterances, nil
	}

	var malformed []int
	for i := cfg.headerLines; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		u, ok := parseLine(line)
		if !ok {
			malformed = append(malformed, i+1)
			continue
		}
		utterances = append(utterances, u)
	}

	if cfg.mode == ModeStrict && len(malformed) > 0 {
		return utterances, &ParseError{Lines: malformed}
	}
	return utterances, nil
}

func parseLine(line string) (Utterance, bool) {
	timestamp, speech, ok := strings.Cut(line, speechDelimiter)
	if !ok {
		return Utterance{}, false
	}
	start, end, ok := strings.Cut(timestamp, rangeDelimiter)
	if !ok {
		return Utterance{}, false
	}

	start = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(start), "["))
	end = strings.TrimSpace(end)
	if start == "" || end == "" {
		return Utterance{}, false
	}

	speech = strings.TrimLeft(newlineStripper.Replace(speech), " \t")
	return Utterance{Start: start, End: end, Speech: speech}, true
}
