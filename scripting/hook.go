// Package scripting lets deployments post-process extracted text with a
// user-supplied JavaScript snippet, e.g. to strip boilerplate or apply
// site-specific corrections, without recompiling the server. The snippet sees
// the sanitized text as the global `text` and must evaluate to a string.
package scripting

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// DefaultTimeout bounds a single script run.
const DefaultTimeout = time.Second

// Hook is a compiled post-processing script. Each Run executes in a fresh VM,
// so a Hook is safe for concurrent use by pool workers.
type Hook struct {
	prog    *goja.Program
	timeout time.Duration
}

// Compile parses and compiles the script source once up front so per-job runs
// only pay for execution.
func Compile(name, src string) (*Hook, error) {
	prog, err := goja.Compile(name, src, true)
	if err != nil {
		return nil, fmt.Errorf("compile script: %w", err)
	}
	return &Hook{prog: prog, timeout: DefaultTimeout}, nil
}

// WithTimeout overrides the per-run execution bound.
func (h *Hook) WithTimeout(d time.Duration) *Hook {
	h.timeout = d
	return h
}

// Run executes the script against one piece of text and returns the script's
// string result. Runaway scripts are interrupted at the timeout.
func (h *Hook) Run(text string) (string, error) {
	vm := goja.New()
	if err := vm.Set("text", text); err != nil {
		return "", fmt.Errorf("bind text: %w", err)
	}

	timer := time.AfterFunc(h.timeout, func() {
		vm.Interrupt("script timeout")
	})
	defer timer.Stop()

	v, err := vm.RunProgram(h.prog)
	if err != nil {
		return "", fmt.Errorf("run script: %w", err)
	}
	out, ok := v.Export().(string)
	if !ok {
		return "", fmt.Errorf("script must evaluate to a string, got %T", v.Export())
	}
	return out, nil
}
