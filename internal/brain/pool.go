package brain

import (
	"context"
	"sync"
)

// WorkerPool runs submitted jobs on a fixed number of goroutines
type WorkerPool struct {
	jobs chan func()
	wg   sync.WaitGroup
}

// NewWorkerPool starts maxWorkers workers (at least one)
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	wp := &WorkerPool{
		jobs: make(chan func(), maxWorkers*2), // Buffer for jobs
	}
	for i := 0; i < maxWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
	return wp
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for job := range wp.jobs {
		job()
	}
}

// Submit queues a job. It returns false when ctx ends first.
func (wp *WorkerPool) Submit(ctx context.Context, job func()) bool {
	select {
	case wp.jobs <- job:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close stops accepting jobs and waits for queued ones to finish
func (wp *WorkerPool) Close() {
	close(wp.jobs)
	wp.wg.Wait()
}
