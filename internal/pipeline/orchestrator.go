package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// WorkerFactory builds a worker with its own client instances, so workers
// never share HTTP connections or rate-limit state.
type WorkerFactory func() *Worker

// Orchestrator owns the job queue and the worker pool.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	factory WorkerFactory
	log     *slog.Logger

	workerCount   int
	maxQueueSize  int
	documentPause time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch the workers.
func NewOrchestrator(workerCount, maxQueueSize int, documentPause, jobTTL time.Duration, factory WorkerFactory, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		jobs:          NewJobStore(jobTTL),
		queue:         make(chan *Job, maxQueueSize),
		factory:       factory,
		log:           log,
		workerCount:   workerCount,
		maxQueueSize:  maxQueueSize,
		documentPause: documentPause,
	}
}

// Start launches worker goroutines and the job store cleanup loop.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.workerCount; i++ {
		o.wg.Add(1)
		go func(id int) {
			defer o.wg.Done()
			w := o.factory()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
					// A pause between documents keeps external rate
					// limiters happy during batch ingestion.
					if o.documentPause > 0 {
						select {
						case <-workerCtx.Done():
							return
						case <-time.After(o.documentPause):
						}
					}
				}
			}
		}(i)
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.maxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// Jobs returns snapshots of all live jobs.
func (o *Orchestrator) Jobs() []JobSnapshot {
	return o.jobs.Snapshots()
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
