// Package scheduler runs chunk work off the simulation goroutine. Producers
// Submit tasks onto a shared Queue, a Pool of workers steals and executes
// them, and the finished task is handed back unchanged through a completion
// queue the simulation polls once per tick.
package scheduler

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Task is anything the queue can carry. Kind labels metrics and logs.
type Task interface {
	Kind() string
}

// StealResult is the outcome of one Steal attempt.
type StealResult int

const (
	// StealSuccess means a task was taken.
	StealSuccess StealResult = iota
	// StealEmpty means there was nothing to take.
	StealEmpty
	// StealRetry means another worker held the queue; try again.
	StealRetry
)

func (r StealResult) String() string {
	switch r {
	case StealSuccess:
		return "success"
	case StealEmpty:
		return "empty"
	case StealRetry:
		return "retry"
	}
	return "unknown"
}

// fifo is an unbounded slice-backed queue. Callers hold the owning lock.
type fifo[T any] struct {
	items []T
	head  int
}

func (f *fifo[T]) push(t T) {
	f.items = append(f.items, t)
}

func (f *fifo[T]) pop() (T, bool) {
	var zero T
	if f.head == len(f.items) {
		return zero, false
	}
	t := f.items[f.head]
	f.items[f.head] = zero
	f.head++
	if f.head == len(f.items) {
		f.items = f.items[:0]
		f.head = 0
	} else if f.head > 1024 && f.head*2 > len(f.items) {
		n := copy(f.items, f.items[f.head:])
		clear(f.items[n:])
		f.items = f.items[:n]
		f.head = 0
	}
	return t, true
}

func (f *fifo[T]) len() int { return len(f.items) - f.head }

// Queue is the shared work queue plus the completion queue. Submissions are
// unordered relative to each other from the consumer's point of view.
type Queue[T Task] struct {
	workMu sync.Mutex
	work   fifo[T]

	doneMu sync.Mutex
	done   fifo[T]

	metrics *queueMetrics
}

// NewQueue creates an empty queue. reg may be nil to skip metrics
// registration.
func NewQueue[T Task](reg prometheus.Registerer) *Queue[T] {
	return &Queue[T]{metrics: newQueueMetrics(reg)}
}

// Submit enqueues a task for any worker.
func (q *Queue[T]) Submit(t T) {
	q.workMu.Lock()
	q.work.push(t)
	depth := q.work.len()
	q.workMu.Unlock()

	q.metrics.submitted.WithLabelValues(t.Kind()).Inc()
	q.metrics.depth.Set(float64(depth))
}

// Steal tries to take one task without waiting on other workers. A contended
// queue yields StealRetry rather than blocking.
func (q *Queue[T]) Steal() (T, StealResult) {
	var zero T
	if !q.workMu.TryLock() {
		return zero, StealRetry
	}
	t, ok := q.work.pop()
	depth := q.work.len()
	q.workMu.Unlock()

	if !ok {
		return zero, StealEmpty
	}
	q.metrics.depth.Set(float64(depth))
	return t, StealSuccess
}

// Complete publishes a finished task to the completion queue.
func (q *Queue[T]) Complete(t T) {
	q.doneMu.Lock()
	q.done.push(t)
	q.doneMu.Unlock()
	q.metrics.completed.WithLabelValues(t.Kind()).Inc()
}

// PollCompleted returns one finished task if any is waiting.
func (q *Queue[T]) PollCompleted() (T, bool) {
	q.doneMu.Lock()
	defer q.doneMu.Unlock()
	return q.done.pop()
}

// Pending returns the number of tasks not yet taken by a worker.
func (q *Queue[T]) Pending() int {
	q.workMu.Lock()
	defer q.workMu.Unlock()
	return q.work.len()
}
