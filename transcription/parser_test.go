package transcription_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/transcription"
)

func TestParse_SingleUtterance(t *testing.T) {
	raw := "\n[00:00:00.000 --> 00:00:02.000]  Hello world\n"

	got, err := transcription.Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []transcription.Utterance{
		{Start: "00:00:00.000", End: "00:00:02.000", Speech: "Hello world"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestParse_EndToEnd(t *testing.T) {
	raw := "\n[00:00:00.000 --> 00:00:01.500]  foo\n[00:00:01.500 --> 00:00:03.000]  bar\n"

	got, err := transcription.Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []transcription.Utterance{
		{Start: "00:00:00.000", End: "00:00:01.500", Speech: "foo"},
		{Start: "00:00:01.500", End: "00:00:03.000", Speech: "bar"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestParse_EmptyResults(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty input", ""},
		{"header only", "whisper_init_from_file: loading model"},
		{"header and trailing newline", "\n"},
		{"header and blank lines", "\n\n   \n\t\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := transcription.Parse(tc.raw, transcription.WithMode(transcription.ModeStrict))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got == nil {
				t.Fatal("expected empty non-nil slice")
			}
			if len(got) != 0 {
				t.Fatalf("expected no utterances, got %+v", got)
			}
		})
	}
}

func TestParse_LenientDropsMalformedLines(t *testing.T) {
	raw := strings.Join([]string{
		"",
		"[00:00:00.000 --> 00:00:01.000]  one",
		"this line has no timestamp",
		"[00:00:01.000 --> 00:00:02.000] single space delimiter",
		"[00:00:02.000 --> 00:00:03.000]  three",
		"[00:00:03.000]  missing range arrow",
		"[00:00:04.000 --> 00:00:05.000]  five",
	}, "\n")

	got, err := transcription.Parse(raw)
	if err != nil {
		t.Fatalf("lenient mode must not fail, got %v", err)
	}
	want := []string{"one", "three", "five"}
	if len(got) != len(want) {
		t.Fatalf("expected %d utterances, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Speech != w {
			t.Errorf("utterance %d: expected speech %q, got %q", i, w, got[i].Speech)
		}
	}
	if got[2].Start != "00:00:04.000" || got[2].End != "00:00:05.000" {
		t.Errorf("line order corrupted: %+v", got[2])
	}
}

func TestParse_StrictReportsLineNumbers(t *testing.T) {
	raw := strings.Join([]string{
		"",
		"[00:00:00.000 --> 00:00:01.000]  one",
		"garbage",
		"",
		"[00:00:02.000 --> 00:00:03.000]  three",
		"[ --> 00:00:04.000]  empty start",
	}, "\n")

	got, err := transcription.Parse(raw, transcription.WithMode(transcription.ModeStrict))
	if err == nil {
		t.Fatal("expected parse error in strict mode")
	}

	var perr *transcription.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if !reflect.DeepEqual(perr.Lines, []int{3, 6}) {
		t.Fatalf("expected malformed lines [3 6], got %v", perr.Lines)
	}
	if len(got) != 2 {
		t.Fatalf("expected well-formed utterances alongside the error, got %+v", got)
	}
}

func TestParse_RemovesLineBreaks(t *testing.T) {
	raw := "\r\n[00:00:00.000 --> 00:00:02.000]  Hello\r world\r\n[00:00:02.000 --> 00:00:03.000]  again\r\n"

	got, err := transcription.Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 utterances, got %+v", got)
	}
	for _, u := range got {
		if strings.ContainsAny(u.Speech, "\r\n") || strings.ContainsAny(u.End, "\r\n") {
			t.Errorf("line break left in %+v", u)
		}
	}
	if got[0].Speech != "Hello world" {
		t.Errorf("expected 'Hello world', got %q", got[0].Speech)
	}
}

func TestParse_LineEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		line string
		want transcription.Utterance
	}{
		{
			name: "whisper.cpp leading space",
			line: "[00:00:00.000 --> 00:00:02.000]   And so my fellow Americans",
			want: transcription.Utterance{Start: "00:00:00.000", End: "00:00:02.000", Speech: "And so my fellow Americans"},
		},
		{
			name: "empty speech",
			line: "[00:00:05.000 --> 00:00:06.000]  ",
			want: transcription.Utterance{Start: "00:00:05.000", End: "00:00:06.000", Speech: ""},
		},
		{
			name: "delimiter repeated in speech",
			line: "[00:00:00.000 --> 00:00:01.000]  a]  b",
			want: transcription.Utterance{Start: "00:00:00.000", End: "00:00:01.000", Speech: "a]  b"},
		},
		{
			name: "free-form timestamps",
			line: "[0.0s --> 1.5s]  free form",
			want: transcription.Utterance{Start: "0.0s", End: "1.5s", Speech: "free form"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := transcription.Parse("\n"+tc.line, transcription.WithMode(transcription.ModeStrict))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("expected 1 utterance, got %+v", got)
			}
			if got[0] != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got[0])
			}
		})
	}
}

func TestParse_HeaderLines(t *testing.T) {
	raw := "[00:00:00.000 --> 00:00:01.000]  first\n[00:00:01.000 --> 00:00:02.000]  second"

	def, _ := transcription.Parse(raw)
	if len(def) != 1 || def[0].Speech != "second" {
		t.Fatalf("default should drop the first line, got %+v", def)
	}

	none, _ := transcription.Parse(raw, transcription.WithHeaderLines(0))
	if len(none) != 2 || none[0].Speech != "first" {
		t.Fatalf("expected both lines with no header, got %+v", none)
	}

	neg, _ := transcription.Parse(raw, transcription.WithHeaderLines(-3))
	if len(neg) != 2 {
		t.Fatalf("negative header lines should behave as zero, got %+v", neg)
	}

	all, _ := transcription.Parse(raw, transcription.WithHeaderLines(5))
	if len(all) != 0 {
		t.Fatalf("expected nothing when header covers the input, got %+v", all)
	}
}

func TestParse_ResultBound(t *testing.T) {
	raw := "\n[a --> b]  1\n[c --> d]  2\nbad\n[e --> f]  3"
	lines := strings.Count(raw, "\n") + 1

	got, _ := transcription.Parse(raw)
	if len(got) > lines-transcription.DefaultHeaderLines {
		t.Fatalf("output length %d exceeds bound %d", len(got), lines-1)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    transcription.Mode
		wantErr bool
	}{
		{"", transcription.ModeLenient, false},
		{"lenient", transcription.ModeLenient, false},
		{"STRICT", transcription.ModeStrict, false},
		{" strict ", transcription.ModeStrict, false},
		{"loose", transcription.ModeLenient, true},
	}
	for _, tc := range tests {
		got, err := transcription.ParseMode(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseMode(%q): unexpected error state %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseMode(%q): expected %v, got %v", tc.in, tc.want, got)
		}
	}
	if transcription.ModeStrict.String() != "strict" {
		t.Errorf("unexpected mode name %q", transcription.ModeStrict.String())
	}
}

func TestParseError_AppError(t *testing.T) {
	perr := &transcription.ParseError{Lines: []int{2, 7}}
	appErr := perr.AppError()
	if appErr.Code != apperrors.ErrCodeInvalidFormat {
		t.Fatalf("expected INVALID_FORMAT, got %s", appErr.Code)
	}
	if !reflect.DeepEqual(appErr.Details["lines"], []int{2, 7}) {
		t.Fatalf("expected lines detail, got %v", appErr.Details["lines"])
	}
	if !errors.Is(appErr, perr) {
		t.Fatal("expected parse error in cause chain")
	}
}
