package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"xfollowers/pkg/logger"
)

var (
	// ErrQueueFull is returned by Submit when every queue slot is taken
	ErrQueueFull = errors.New("run queue is full")

	// ErrPoolStopped is returned by Submit after Stop
	ErrPoolStopped = errors.New("worker pool is shutting down")
)

// Job is one unit of work executed by the pool
type Job struct {
	RunID string
	Exec  func(ctx context.Context)
}

// WorkerPool runs jobs on a fixed number of goroutines
type WorkerPool struct {
	numWorkers int
	jobQueue   chan Job
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	logger     logger.Logger

	mu      sync.Mutex
	stopped bool
	// dropped is called for queued jobs that never ran
	dropped func(Job)
}

// NewWorkerPool creates a pool with numWorkers goroutines and a queue twice
// that size.
func NewWorkerPool(numWorkers int, log logger.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		numWorkers: numWorkers,
		jobQueue:   make(chan Job, numWorkers*2),
		ctx:        ctx,
		cancel:     cancel,
		logger:     log,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.InfoWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop cancels running jobs, drains the queue and waits for the workers
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	close(wp.jobQueue)
	wp.mu.Unlock()

	wp.logger.Info("Stopping worker pool...")
	wp.cancel()
	wp.wg.Wait()
	wp.logger.Info("Worker pool stopped")
}

// Submit queues job without blocking
func (wp *WorkerPool) Submit(job Job) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.stopped {
		return ErrPoolStopped
	}

	select {
	case wp.jobQueue <- job:
		wp.logger.DebugWithFields("Job submitted to queue", map[string]interface{}{
			"run_id": job.RunID,
		})
		return nil
	default:
		return ErrQueueFull
	}
}

// QueueSize returns the number of jobs waiting for a worker
func (wp *WorkerPool) QueueSize() int {
	return len(wp.jobQueue)
}

// Workers returns the number of workers
func (wp *WorkerPool) Workers() int {
	return wp.numWorkers
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	wp.logger.DebugWithFields("Worker started", map[string]interface{}{
		"worker_id": id,
	})

	for job := range wp.jobQueue {
		if wp.ctx.Err() != nil {
			if wp.dropped != nil {
				wp.dropped(job)
			}
			continue
		}

		start := time.Now()
		job.Exec(wp.ctx)

		wp.logger.DebugWithFields("Worker completed job", map[string]interface{}{
			"worker_id": id,
			"run_id":    job.RunID,
			"duration":  time.Since(start).String(),
		})
	}

	wp.logger.DebugWithFields("Worker stopping - job queue closed", map[string]interface{}{
		"worker_id": id,
	})
}
