// Package extract drives the recognition engine and turns its raw output into
// the text delivered to callers: a single block-segmentation pass, one
// word-segmentation retry when the first pass yields too little, and a
// sanitizer that collapses every failure mode into sentinel text.
package extract

import "strings"

// Sentinel text substituted for extracted text when recognition fails or
// yields nothing usable. Callers detect degraded results by inspecting the
// text itself; processing is always reported as successful.
const (
	SentinelUnreadable   = "[UNREADABLE]"
	SentinelDecodeFailed = "[ERROR: Unable to open image]"
	SentinelEngineInit   = "[ERROR: Tesseract initialization failed]"
)

// Sentinel formats an error sentinel for an arbitrary cause.
func Sentinel(cause string) string {
	return "[ERROR: " + cause + "]"
}

// Sanitize strips raw engine output down to printable ASCII: bytes above 127
// and control bytes other than space and newline are dropped, as are carriage
// returns and tabs, and leading/trailing spaces and newlines are trimmed.
// Sanitizing already-sanitized text is a no-op. The result may be empty;
// substituting SentinelUnreadable is the policy's decision, made once after
// the final attempt.
func Sanitize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c > 127 {
			continue
		}
		if c < 32 && c != '\n' {
			continue
		}
		b.WriteByte(c)
	}
	return strings.Trim(b.String(), " \n")
}
