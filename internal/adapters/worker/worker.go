// Package worker runs CPU-bound batch jobs (transcript summaries) on a
// fixed set of goroutines so one large batch cannot fan out unbounded.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/registrar/pkg/logger"
	"github.com/okian/registrar/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Sentinel errors.
var (
	ErrPoolStopped = errors.New("worker pool stopped")
	ErrJobPanicked = errors.New("job panicked")
)

// JobFunc is one unit of work.
type JobFunc func(ctx context.Context) error

type job struct {
	name   string
	fn     JobFunc
	result chan error
}

// Worker pulls jobs until the pool shuts down or ctx is canceled.
type Worker struct {
	name   string
	jobs   <-chan job
	done   chan struct{}
	logger logger.Logger
}

// newWorker creates a worker reading from jobs.
func newWorker(jobs <-chan job, opts ...Option) *Worker {
	w := &Worker{
		name:   "worker",
		jobs:   jobs,
		done:   make(chan struct{}),
		logger: logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run processes jobs until shutdown is closed or ctx is done.
func (w *Worker) Run(ctx context.Context, shutdown <-chan struct{}) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-shutdown:
			return
		case j := <-w.jobs:
			j.result <- w.process(ctx, j)
		}
	}
}

func (w *Worker) process(ctx context.Context, j job) (err error) {
	start := time.Now()
	metrics.AddWorkerActive(1)
	defer func() {
		metrics.AddWorkerActive(-1)
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrJobPanicked, j.name, r)
		}
		if err != nil {
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "job_failed")
			w.logger.Error(ctx, "job failed", logger.String("job", j.name), logger.Error(err))
			return
		}
		metrics.RecordJobProcessed(float64(time.Since(start).Microseconds()) / 1000)
	}()
	return j.fn(ctx)
}

// Pool manages a fixed set of workers sharing one job channel.
type Pool struct {
	mu       sync.Mutex
	workers  []*Worker
	jobs     chan job
	shutdown chan struct{}
	exited   chan struct{}
	started  bool
	stopped  bool
	logger   logger.Logger
}

// NewPool creates a pool with workerCount workers; < 1 selects a CPU-based
// default. opts apply to every worker.
func NewPool(workerCount int, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}
	jobs := make(chan job)
	p := &Pool{
		workers:  make([]*Worker, workerCount),
		jobs:     jobs,
		shutdown: make(chan struct{}),
		exited:   make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		workerOpts := make([]Option, 0, len(opts)+1)
		workerOpts = append(workerOpts, WithName("worker-"+strconv.Itoa(i)))
		workerOpts = append(workerOpts, opts...)
		p.workers[i] = newWorker(jobs, workerOpts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start launches every worker. Workers exit when ctx is done or the pool
// shuts down. Calling Start twice is a no-op.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true
	var wg sync.WaitGroup
	for _, w := range p.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx, p.shutdown)
		}()
	}
	go func() {
		wg.Wait()
		close(p.exited)
	}()
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Done is closed once every started worker has exited.
func (p *Pool) Done() <-chan struct{} {
	return p.exited
}

// Submit hands fn to the next free worker and returns a channel that
// receives its result. It blocks until a worker accepts the job. A job that
// was accepted always delivers exactly one result.
func (p *Pool) Submit(ctx context.Context, name string, fn JobFunc) (<-chan error, error) {
	j := job{name: name, fn: fn, result: make(chan error, 1)}
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("submit %s: %w", name, ctx.Err())
	case <-p.shutdown:
		return nil, ErrPoolStopped
	case <-p.exited:
		return nil, ErrPoolStopped
	case p.jobs <- j:
		return j.result, nil
	}
}

// RunAll submits every fn and waits for all results. errs[i] belongs to fns[i].
// Once ctx is done the remaining fns are not submitted, but RunAll still waits
// for every job already accepted, so no fn is running when it returns.
func (p *Pool) RunAll(ctx context.Context, name string, fns []JobFunc) []error {
	errs := make([]error, len(fns))
	results := make([]<-chan error, len(fns))
	for i, fn := range fns {
		ch, err := p.Submit(ctx, name+"-"+strconv.Itoa(i), fn)
		if err != nil {
			errs[i] = err
			continue
		}
		results[i] = ch
	}
	for i, ch := range results {
		if ch != nil {
			errs[i] = <-ch
		}
	}
	return errs
}

// Shutdown stops accepting jobs and waits for running ones to finish.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.shutdown)
	started := p.started
	p.mu.Unlock()

	if !started {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
		}
	}
	p.logger.Info(ctx, "worker pool stopped")
	return nil
}
