package extract

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/wudi/ocrkit/ocr"
)

// fakeEngine scripts one response per segmentation mode and records calls.
type fakeEngine struct {
	byMode map[ocr.Mode]string
	errs   map[ocr.Mode]error
	calls  []ocr.Mode
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(ctx context.Context, image []byte, mode ocr.Mode) (string, error) {
	f.calls = append(f.calls, mode)
	if err := f.errs[mode]; err != nil {
		return "", err
	}
	return f.byMode[mode], nil
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "HELLO", "HELLO"},
		{"trims spaces and newlines", "  \nHELLO WORLD\n\n ", "HELLO WORLD"},
		{"drops tabs and carriage returns", "HE\tLLO\r\nWORLD", "HELLO\nWORLD"},
		{"drops non-ascii", "HÉLLOÿ", "HLLO"},
		{"drops control bytes", "HE\x00\x07LLO", "HELLO"},
		{"keeps interior newlines", "LINE1\nLINE2", "LINE1\nLINE2"},
		{"whitespace only", " \n \n ", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{"HELLO", "  mixed \xc3\xa9 bytes\r\n", "a\nb", ""}
	for _, in := range inputs {
		once := Sanitize(in)
		if twice := Sanitize(once); twice != once {
			t.Errorf("Sanitize not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestExtractSingleBlockSucceeds(t *testing.T) {
	eng := &fakeEngine{byMode: map[ocr.Mode]string{ocr.ModeSingleBlock: "HELLO WORLD\n"}}
	text, code := NewPolicy(eng).Extract(context.Background(), nil)
	if text != "HELLO WORLD" {
		t.Errorf("text = %q", text)
	}
	if code != CodeOK {
		t.Errorf("code = %q", code)
	}
	if len(eng.calls) != 1 || eng.calls[0] != ocr.ModeSingleBlock {
		t.Errorf("calls = %v, want one single-block pass", eng.calls)
	}
}

func TestExtractRetriesAsSingleWord(t *testing.T) {
	eng := &fakeEngine{byMode: map[ocr.Mode]string{
		ocr.ModeSingleBlock: "?",
		ocr.ModeSingleWord:  "OK",
	}}
	text, code := NewPolicy(eng).Extract(context.Background(), nil)
	if text != "OK" {
		t.Errorf("text = %q, want retry result", text)
	}
	if code != CodeOK {
		t.Errorf("code = %q", code)
	}
	want := []ocr.Mode{ocr.ModeSingleBlock, ocr.ModeSingleWord}
	if len(eng.calls) != 2 || eng.calls[0] != want[0] || eng.calls[1] != want[1] {
		t.Errorf("calls = %v, want %v", eng.calls, want)
	}
}

func TestExtractKeepsShortRetryResult(t *testing.T) {
	eng := &fakeEngine{byMode: map[ocr.Mode]string{
		ocr.ModeSingleBlock: "",
		ocr.ModeSingleWord:  "X",
	}}
	text, code := NewPolicy(eng).Extract(context.Background(), nil)
	if text != "X" {
		t.Errorf("text = %q, want short retry result kept", text)
	}
	if code != CodeOK {
		t.Errorf("code = %q", code)
	}
}

func TestExtractUnreadableAfterBothAttempts(t *testing.T) {
	eng := &fakeEngine{byMode: map[ocr.Mode]string{}}
	text, code := NewPolicy(eng).Extract(context.Background(), nil)
	if text != SentinelUnreadable {
		t.Errorf("text = %q, want %q", text, SentinelUnreadable)
	}
	if code != CodeUnreadable {
		t.Errorf("code = %q", code)
	}
	if len(eng.calls) != 2 {
		t.Errorf("expected exactly one retry, got %d calls", len(eng.calls))
	}
}

func TestExtractNoSecondRetry(t *testing.T) {
	eng := &fakeEngine{byMode: map[ocr.Mode]string{}}
	NewPolicy(eng).Extract(context.Background(), nil)
	NewPolicy(eng).Extract(context.Background(), nil)
	if len(eng.calls) != 4 {
		t.Errorf("calls = %d, want 2 per extraction", len(eng.calls))
	}
}

func TestExtractInitFailureSentinel(t *testing.T) {
	eng := &fakeEngine{errs: map[ocr.Mode]error{
		ocr.ModeSingleBlock: fmt.Errorf("%w: no tessdata", ocr.ErrInit),
	}}
	text, code := NewPolicy(eng).Extract(context.Background(), nil)
	if text != SentinelEngineInit {
		t.Errorf("text = %q, want %q", text, SentinelEngineInit)
	}
	if code != CodeEngineError {
		t.Errorf("code = %q", code)
	}
	if len(eng.calls) != 1 {
		t.Errorf("expected short circuit, got %d calls", len(eng.calls))
	}
}

func TestExtractRecognitionFailureSentinel(t *testing.T) {
	eng := &fakeEngine{errs: map[ocr.Mode]error{
		ocr.ModeSingleBlock: errors.New("segfault in provider"),
	}}
	text, code := NewPolicy(eng).Extract(context.Background(), nil)
	if text != "[ERROR: segfault in provider]" {
		t.Errorf("text = %q", text)
	}
	if code != CodeEngineError {
		t.Errorf("code = %q", code)
	}
}

func TestExtractPostProcessTransforms(t *testing.T) {
	eng := &fakeEngine{byMode: map[ocr.Mode]string{ocr.ModeSingleBlock: "hello"}}
	p := NewPolicy(eng, WithPostProcess(func(s string) (string, error) {
		return s + " processed", nil
	}))
	text, code := p.Extract(context.Background(), nil)
	if text != "hello processed" {
		t.Errorf("text = %q", text)
	}
	if code != CodeOK {
		t.Errorf("code = %q", code)
	}
}

func TestExtractPostProcessErrorDegrades(t *testing.T) {
	eng := &fakeEngine{byMode: map[ocr.Mode]string{ocr.ModeSingleBlock: "hello"}}
	p := NewPolicy(eng, WithPostProcess(func(s string) (string, error) {
		return "", errors.New("script broke")
	}))
	text, _ := p.Extract(context.Background(), nil)
	if text != "hello" {
		t.Errorf("text = %q, want original text kept on post-process failure", text)
	}
}

func TestExtractPostProcessEmptyBecomesUnreadable(t *testing.T) {
	eng := &fakeEngine{byMode: map[ocr.Mode]string{ocr.ModeSingleBlock: "hello"}}
	p := NewPolicy(eng, WithPostProcess(func(s string) (string, error) {
		return "", nil
	}))
	text, code := p.Extract(context.Background(), nil)
	if text != SentinelUnreadable {
		t.Errorf("text = %q, want %q", text, SentinelUnreadable)
	}
	if code != CodeUnreadable {
		t.Errorf("code = %q", code)
	}
}
