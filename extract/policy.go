package extract

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/wudi/ocrkit/ocr"
)

// Code classifies a result alongside its text so consumers need not parse
// sentinel strings. The text remains the contract; the code is advisory.
type Code string

const (
	CodeOK          Code = "ok"
	CodeUnreadable  Code = "unreadable"
	CodeDecodeError Code = "decode_error"
	CodeEngineError Code = "engine_error"
)

// retryBelow is the sanitized-length threshold under which block segmentation
// is treated as a likely mis-segmentation and retried as a single word.
const retryBelow = 2

// PostProcessFunc transforms sanitized text before the unreadable check. An
// error leaves the text unchanged.
type PostProcessFunc func(text string) (string, error)

// Option configures a Policy.
type Option func(*Policy)

// WithLogger sets the policy logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Policy) { p.log = log }
}

// WithPostProcess installs a transform applied to sanitized text after the
// final recognition attempt.
func WithPostProcess(fn PostProcessFunc) Option {
	return func(p *Policy) { p.post = fn }
}

// Policy is the extraction state machine: recognize as a single block,
// sanitize, retry once as a single word when too little came back, and
// collapse failures into sentinel text. Terminal after at most one retry.
type Policy struct {
	engine ocr.Engine
	post   PostProcessFunc
	log    *zap.Logger
}

// NewPolicy builds a Policy around a recognition engine.
func NewPolicy(engine ocr.Engine, opts ...Option) *Policy {
	p := &Policy{engine: engine, log: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extract runs the policy against an encoded, already-normalized image. The
// returned text is never empty: recognition failures become error sentinels
// and empty output becomes SentinelUnreadable.
func (p *Policy) Extract(ctx context.Context, image []byte) (string, Code) {
	raw, err := p.engine.Recognize(ctx, image, ocr.ModeSingleBlock)
	if err != nil {
		return p.failure(err)
	}
	text := Sanitize(raw)

	if len(text) < retryBelow {
		p.log.Debug("retrying with word segmentation", zap.Int("block_len", len(text)))
		raw, err = p.engine.Recognize(ctx, image, ocr.ModeSingleWord)
		if err != nil {
			return p.failure(err)
		}
		text = Sanitize(raw)
	}

	if p.post != nil {
		if out, err := p.post(text); err != nil {
			p.log.Warn("post-processing failed", zap.Error(err))
		} else {
			text = Sanitize(out)
		}
	}

	if text == "" {
		return SentinelUnreadable, CodeUnreadable
	}
	return text, CodeOK
}

func (p *Policy) failure(err error) (string, Code) {
	if errors.Is(err, ocr.ErrInit) {
		p.log.Warn("engine initialization failed", zap.Error(err))
		return SentinelEngineInit, CodeEngineError
	}
	p.log.Warn("recognition failed", zap.Error(err))
	return Sentinel(err.Error()), CodeEngineError
}
