package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wudi/ocrkit/extract"
)

// ErrPoolClosed is returned by Submit once shutdown has begun.
var ErrPoolClosed = errors.New("pool: closed")

// DefaultWorkers is the worker count used when none is configured.
const DefaultWorkers = 4

// Processor turns raw image bytes into a Result. Implementations must never
// return an unpopulated Text; failures are expressed as sentinel text.
type Processor interface {
	Process(ctx context.Context, data []byte) Result
}

// Config tunes the pool.
type Config struct {
	// Workers is the fixed number of concurrent workers, default 4.
	Workers int
	Logger  *zap.Logger
}

// Pool owns a FIFO queue of pending jobs and a fixed set of workers draining
// it. Jobs are dequeued in submission order; completion order across workers
// is unconstrained. Queue bookkeeping is the only shared state; processing
// happens entirely outside it, so workers never block each other during the
// expensive pipeline work.
type Pool struct {
	proc Processor
	log  *zap.Logger

	submit  chan *Job
	pending chan *Job

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New starts a pool with the given processor and configuration. Workers run
// until Shutdown.
func New(proc Processor, cfg Config) *Pool {
	workers := cfg.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pool{
		proc:    proc,
		log:     log,
		submit:  make(chan *Job),
		pending: make(chan *Job),
	}
	go p.pump()
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}
	log.Info("pool started", zap.Int("workers", workers))
	return p
}

// Submit creates a job, appends it to the queue tail, and returns a handle to
// await its result. Submit never blocks on queue capacity.
func (p *Pool) Submit(filename string, data []byte, batchID, imageID string) (*Job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPoolClosed
	}
	j := newJob(filename, data, batchID, imageID)
	p.submit <- j
	return j, nil
}

// Shutdown stops intake and drains: every job accepted before the call is
// still processed, so no caller awaiting a submitted job is ever stranded.
// It returns once all workers have exited, or earlier with the context's
// error (workers keep draining in the background in that case).
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.submit)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.log.Info("pool stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pump buffers submissions so Submit never blocks, preserving FIFO order
// between the submit and pending channels. When intake closes it drains the
// backlog, then releases the workers.
func (p *Pool) pump() {
	var backlog []*Job
	in := p.submit
	for in != nil || len(backlog) > 0 {
		var out chan *Job
		var head *Job
		if len(backlog) > 0 {
			out = p.pending
			head = backlog[0]
		}
		select {
		case j, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			backlog = append(backlog, j)
		case out <- head:
			backlog = backlog[1:]
		}
	}
	close(p.pending)
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	log := p.log.With(zap.Int("worker", id))
	for j := range p.pending {
		log.Debug("processing",
			zap.String("filename", j.Filename),
			zap.String("batch_id", j.BatchID),
			zap.String("image_id", j.ImageID))
		res := p.process(j)
		j.complete(res)
		log.Debug("completed",
			zap.String("filename", j.Filename),
			zap.Duration("elapsed", res.Elapsed),
			zap.String("code", string(res.Code)))
	}
}

// process shields the worker loop: a panicking stage yields a sentinel result
// instead of a dead worker and a stranded caller.
func (p *Pool) process(j *Job) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("processing panicked",
				zap.String("filename", j.Filename), zap.Any("panic", r))
			res = Result{
				Text:    extract.Sentinel(fmt.Sprintf("processing failed: %v", r)),
				Code:    extract.CodeEngineError,
				Elapsed: time.Since(start),
			}
		}
	}()
	return p.proc.Process(context.Background(), j.Data)
}
