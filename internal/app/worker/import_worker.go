package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"prof_match/internal/platform/lock"
	"prof_match/internal/platform/queue"
)

// JobSource is the queue the worker consumes; *queue.Queue satisfies it.
type JobSource interface {
	Name() string
	Pop(ctx context.Context, timeout time.Duration) (string, error)
	Requeue(ctx context.Context, id string) error
}

type JobProcessor interface {
	ProcessJob(ctx context.Context, jobID string) error
}

// ImportWorker applies catalog import jobs one at a time across all instances.
type ImportWorker struct {
	queue      JobSource
	processor  JobProcessor
	locker     lock.Locker
	lockKey    string
	lockTTL    time.Duration
	popTimeout time.Duration
	retryDelay time.Duration
}

func NewImportWorker(q JobSource, processor JobProcessor, locker lock.Locker, lockKey string, lockTTL time.Duration) *ImportWorker {
	return &ImportWorker{
		queue:      q,
		processor:  processor,
		locker:     locker,
		lockKey:    lockKey,
		lockTTL:    lockTTL,
		popTimeout: 5 * time.Second,
		retryDelay: time.Second,
	}
}

func (w *ImportWorker) Start(ctx context.Context) {
	log.Println("Import worker started, listening to queue:", w.queue.Name())
	for {
		select {
		case <-ctx.Done():
			log.Println("Import worker stopping...")
			return
		default:
			jobID, err := w.queue.Pop(ctx, w.popTimeout)
			if err != nil {
				if errors.Is(err, queue.ErrEmpty) {
					continue
				}
				if ctx.Err() != nil {
					continue // shutting down
				}
				log.Printf("ERROR: Failed to pop from queue '%s': %v", w.queue.Name(), err)
				w.sleep(ctx, 5*w.retryDelay)
				continue
			}

			log.Printf("Worker picked up import job ID: %s", jobID)
			// Only one import may run at a time, so jobs are processed synchronously under the lock.
			w.processJobWithLock(ctx, jobID)
		}
	}
}

func (w *ImportWorker) processJobWithLock(ctx context.Context, jobID string) {
	release, err := w.locker.Acquire(ctx, w.lockKey, w.lockTTL)
	if err != nil {
		log.Printf("INFO: Could not acquire import lock for job %s (%v). Re-queueing.", jobID, err)
		w.requeueJob(ctx, jobID)
		w.sleep(ctx, w.retryDelay)
		return
	}
	defer release()
	log.Printf("INFO: Acquired import lock for job %s", jobID)

	if err := w.processor.ProcessJob(ctx, jobID); err != nil {
		log.Printf("ERROR: Import job %s: %v", jobID, err)
		if ctx.Err() != nil {
			// Interrupted by shutdown; hand the job to the next worker.
			w.requeueJob(ctx, jobID)
		}
	}
}

func (w *ImportWorker) requeueJob(ctx context.Context, jobID string) {
	// Use a fresh context so a job popped just before shutdown is not lost.
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := w.queue.Requeue(reqCtx, jobID); err != nil {
		log.Printf("ERROR: Failed to re-queue job %s: %v", jobID, err)
	} else {
		log.Printf("INFO: Job %s re-queued.", jobID)
	}
}

func (w *ImportWorker) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
