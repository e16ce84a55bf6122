package pool

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wudi/ocrkit/extract"
	"github.com/wudi/ocrkit/pipeline"
)

// OCRProcessor is the standard Processor: normalize the image, then run the
// extraction policy against the normalized bitmap. Undecodable input
// short-circuits to the decode sentinel without touching the engine.
type OCRProcessor struct {
	pipeline *pipeline.Normalizer
	policy   *extract.Policy
	log      *zap.Logger
}

// NewOCRProcessor wires a normalizer and an extraction policy together.
func NewOCRProcessor(n *pipeline.Normalizer, policy *extract.Policy, log *zap.Logger) *OCRProcessor {
	if log == nil {
		log = zap.NewNop()
	}
	return &OCRProcessor{pipeline: n, policy: policy, log: log}
}

func (o *OCRProcessor) Process(ctx context.Context, data []byte) Result {
	start := time.Now()
	norm, err := o.pipeline.Normalize(data)
	if err != nil {
		o.log.Warn("normalization failed", zap.Error(err))
		return Result{
			Text:    extract.SentinelDecodeFailed,
			Code:    extract.CodeDecodeError,
			Elapsed: time.Since(start),
		}
	}
	text, code := o.policy.Extract(ctx, norm.PNG)
	return Result{
		Text:           text,
		Code:           code,
		Elapsed:        time.Since(start),
		ProcessedImage: norm.PNG,
	}
}
