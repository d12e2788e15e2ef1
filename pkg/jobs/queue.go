package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of background work. It is retried on error up to the
// queue's retry limit.
type Task struct {
	Name    string
	Run     func(ctx context.Context) error
	attempt int
}

// Queue runs background tasks with bounded retries. It is used for
// best-effort cleanup work such as removing orphaned report artifacts
// after their database rows are gone.
type Queue struct {
	tasks      chan Task
	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	mu       sync.Mutex
	draining bool
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewQueue(workers, maxRetries int, retryDelay time.Duration, logger *zap.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Queue{
		tasks:      make(chan Task, 256),
		workers:    workers,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// Start launches the worker goroutines. The context cancels in-flight
// task executions when the queue shuts down.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

// Enqueue submits a task. Returns false if the queue is shutting down
// or its buffer is full. The mutex orders sends against the channel
// close in Stop so a submission racing shutdown cannot panic.
func (q *Queue) Enqueue(task Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.draining {
		return false
	}

	select {
	case q.tasks <- task:
		return true
	default:
		q.logger.Warn("job queue full, dropping task", zap.String("task", task.Name))
		return false
	}
}

// Stop prevents new submissions and waits for queued tasks to drain.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		q.mu.Lock()
		q.draining = true
		q.mu.Unlock()
		close(q.tasks)
	})
	q.wg.Wait()
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()

	for task := range q.tasks {
		q.execute(ctx, task)
	}
}

func (q *Queue) execute(ctx context.Context, task Task) {
	err := task.Run(ctx)
	if err == nil {
		return
	}

	if task.attempt >= q.maxRetries {
		q.logger.Error("background task failed permanently",
			zap.String("task", task.Name),
			zap.Int("attempts", task.attempt+1),
			zap.Error(err),
		)
		return
	}

	task.attempt++
	q.logger.Warn("background task failed, retrying",
		zap.String("task", task.Name),
		zap.Int("attempt", task.attempt),
		zap.Error(err),
	)

	select {
	case <-ctx.Done():
	case <-time.After(q.retryDelay):
		// Re-enqueue rather than retrying inline so a failing task
		// does not hold a worker.
		if !q.Enqueue(task) {
			q.logger.Error("background task dropped during retry", zap.String("task", task.Name))
		}
	}
}
