// Package worker provides a small generic worker pool. The grading
// service runs one short-lived pool per submission, so the pool supports
// an explicit shutdown that lets its goroutines drain and exit.
package worker

// Job produces one result value.
type Job[T any] func() T

// Result pairs a job's output with the ID it was submitted under.
type Result[T any] struct {
	JobID  string
	Output T
}

// Pool runs jobs on a fixed number of worker goroutines.
type Pool[T any] struct {
	jobs    chan jobWrapper[T]
	results chan Result[T]
}

type jobWrapper[T any] struct {
	id string
	fn Job[T]
}

// NewPool starts workerCount goroutines. bufferSize caps how many
// submitted jobs and unread results may queue without blocking.
func NewPool[T any](workerCount, bufferSize int) *Pool[T] {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool[T]{
		jobs:    make(chan jobWrapper[T], bufferSize),
		results: make(chan Result[T], bufferSize),
	}
	for i := 0; i < workerCount; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool[T]) worker() {
	for job := range p.jobs {
		p.results <- Result[T]{JobID: job.id, Output: job.fn()}
	}
}

// Submit queues a job under the given ID. Blocks when the job buffer is
// full. Must not be called after Close.
func (p *Pool[T]) Submit(id string, fn Job[T]) {
	p.jobs <- jobWrapper[T]{id: id, fn: fn}
}

// Results returns the channel job outputs arrive on, in completion order.
func (p *Pool[T]) Results() <-chan Result[T] {
	return p.results
}

// Close stops accepting jobs and lets the workers exit once the queue
// drains. Results already produced remain readable.
func (p *Pool[T]) Close() {
	close(p.jobs)
}
