package scheduler

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultIdleSleep is how long a worker sleeps after finding the queue empty.
const DefaultIdleSleep = 2 * time.Millisecond

// Executor performs a task's side effects. It runs on worker goroutines and
// must be safe for concurrent use.
type Executor[T Task] interface {
	Execute(T)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc[T Task] func(T)

func (f ExecutorFunc[T]) Execute(t T) { f(t) }

// PoolOptions configures a Pool.
type PoolOptions struct {
	// Workers defaults to one less than the CPU count, minimum one.
	Workers int
	// IdleSleep defaults to DefaultIdleSleep.
	IdleSleep  time.Duration
	Logger     *zap.Logger
	Registerer prometheus.Registerer
}

// DefaultWorkers returns the worker count used when none is configured.
func DefaultWorkers() int {
	return max(runtime.NumCPU()-1, 1)
}

// Pool is a fixed set of workers that steal from a Queue, execute, and
// publish completions. There is no per-task cancellation: once taken, a task
// runs to completion, and Close only stops workers between tasks.
type Pool[T Task] struct {
	queue    *Queue[T]
	exec     Executor[T]
	workers  int
	idle     time.Duration
	log      *zap.Logger
	duration *prometheus.HistogramVec

	mu     sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewPool creates a pool. Call Start to launch the workers.
func NewPool[T Task](q *Queue[T], exec Executor[T], opts PoolOptions) *Pool[T] {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers()
	}
	if opts.IdleSleep <= 0 {
		opts.IdleSleep = DefaultIdleSleep
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Pool[T]{
		queue:    q,
		exec:     exec,
		workers:  opts.Workers,
		idle:     opts.IdleSleep,
		log:      opts.Logger,
		duration: newTaskDuration(opts.Registerer),
	}
}

// Workers returns the number of worker goroutines.
func (p *Pool[T]) Workers() int { return p.workers }

// Start launches the workers. They stop when ctx is done or Close is called.
func (p *Pool[T]) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.group != nil {
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.group, ctx = errgroup.WithContext(ctx)
	p.log.Info("running task processing workers", zap.Int("workers", p.workers))

	for i := 0; i < p.workers; i++ {
		p.group.Go(func() error {
			p.run(ctx)
			return nil
		})
	}
}

// Close stops the workers and waits for in-flight tasks to finish.
func (p *Pool[T]) Close() error {
	p.mu.Lock()
	group, cancel := p.group, p.cancel
	p.group, p.cancel = nil, nil
	p.mu.Unlock()

	if group == nil {
		return nil
	}
	cancel()
	err := group.Wait()
	p.log.Info("task workers stopped")
	return err
}

func (p *Pool[T]) run(ctx context.Context) {
	timer := time.NewTimer(p.idle)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		t, res := p.queue.Steal()
		switch res {
		case StealSuccess:
			p.execute(t)
		case StealRetry:
			runtime.Gosched()
		case StealEmpty:
			timer.Reset(p.idle)
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
		}
	}
}

func (p *Pool[T]) execute(t T) {
	start := time.Now()
	p.exec.Execute(t)
	p.duration.WithLabelValues(t.Kind()).Observe(time.Since(start).Seconds())
	p.queue.Complete(t)
}

// RunPending executes queued tasks on the calling goroutine until the queue
// is empty, returning how many ran. Useful for tools and tests that want
// deterministic progress without starting workers.
func RunPending[T Task](q *Queue[T], exec Executor[T]) int {
	n := 0
	for {
		t, res := q.Steal()
		switch res {
		case StealSuccess:
			exec.Execute(t)
			q.Complete(t)
			n++
		case StealRetry:
			runtime.Gosched()
		case StealEmpty:
			return n
		}
	}
}
