package evaluation

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Job is one unit of asynchronous evaluation work.
type Job func(ctx context.Context) error

// Queue is a strictly serial, in-process task runner: unbounded FIFO
// backlog, single consumer. Exactly one job executes at a time; jobs that
// fail are logged and discarded, never re-enqueued. Jobs still queued at
// process shutdown are lost; that is a documented limitation of the
// single-lane design, not something the queue tries to hide.
type Queue struct {
	log *zap.Logger

	mu      sync.Mutex
	backlog []Job
	running bool
	wg      sync.WaitGroup
}

func NewQueue(log *zap.Logger) *Queue {
	return &Queue{log: log}
}

// Enqueue appends a job and returns immediately. A draining pass is started
// when no consumer is active.
func (q *Queue) Enqueue(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.backlog = append(q.backlog, job)
	if !q.running {
		q.running = true
		q.wg.Add(1)
		go q.drain()
	}
}

// Pending reports the number of jobs not yet started.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.backlog)
}

// Wait blocks until every active draining pass has finished. Intended for
// tests and shutdown.
func (q *Queue) Wait() {
	q.wg.Wait()
}

func (q *Queue) drain() {
	defer q.wg.Done()

	for {
		q.mu.Lock()
		if len(q.backlog) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		job := q.backlog[0]
		q.backlog = q.backlog[1:]
		q.mu.Unlock()

		q.runOne(job)
	}
}

// runOne isolates failures per job: an error or panic must not stop the
// worker.
func (q *Queue) runOne(job Job) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Sugar().Errorw("evaluation job panicked", "panic", r)
		}
	}()

	if err := job(context.Background()); err != nil {
		q.log.Sugar().Errorw("evaluation job failed", "err", err)
	}
}
