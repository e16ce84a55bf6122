package ocr

import "context"

var defaultEngine Engine = noopEngine{}

// DefaultEngine returns the process-wide default recognition engine.
// Importing the tesseract subpackage replaces the built-in no-op engine.
func DefaultEngine() Engine {
	return defaultEngine
}

// SetDefaultEngine sets the process-wide default recognition engine.
func SetDefaultEngine(engine Engine) {
	defaultEngine = engine
}

type noopEngine struct{}

func (noopEngine) Name() string { return "noop" }

func (noopEngine) Recognize(ctx context.Context, image []byte, mode Mode) (string, error) {
	return "", nil
}
