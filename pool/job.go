// Package pool implements the concurrent processing core: an unbounded FIFO
// job queue, a fixed-size worker pool draining it, and a per-job completion
// signal that lets each submitter block for exactly its own result while N
// jobs run in flight.
package pool

import (
	"context"
	"sync"
	"time"

	"github.com/wudi/ocrkit/extract"
)

// Job is one unit of work: one image plus its processing request. The
// identifiers are opaque and used only for correlation. A job is enqueued
// exactly once and processed by exactly one worker; the input bytes belong to
// that worker for the duration of processing.
type Job struct {
	BatchID  string
	ImageID  string
	Filename string
	Data     []byte

	result Result
	done   chan struct{}
	once   sync.Once
}

func newJob(filename string, data []byte, batchID, imageID string) *Job {
	return &Job{
		BatchID:  batchID,
		ImageID:  imageID,
		Filename: filename,
		Data:     data,
		done:     make(chan struct{}),
	}
}

// complete resolves the job's result exactly once and fires the completion
// signal. Later calls are no-ops.
func (j *Job) complete(res Result) {
	j.once.Do(func() {
		j.result = res
		close(j.done)
	})
}

// Await blocks until the job's worker has populated the result, or until the
// context is canceled. The signal is specific to this job: concurrent
// completions of other jobs never wake or mislead the caller.
func (j *Job) Await(ctx context.Context) (Result, error) {
	select {
	case <-j.done:
		return j.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Result is what processing an image yields. It is always populated: failures
// are encoded as sentinel text and a classifying code, never as an error.
type Result struct {
	// Text is the sanitized extracted text, never empty for a completed job.
	Text string
	// Code classifies the outcome without parsing Text.
	Code extract.Code
	// Elapsed is the wall-clock processing duration.
	Elapsed time.Duration
	// ProcessedImage is the serialized (PNG) form of the normalized bitmap.
	ProcessedImage []byte
}
