package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/reusedev/chat-image/internal/modules/logs"
)

var ErrClosed = errors.New("task queue closed")

type Task interface {
	Execute(ctx context.Context)
}

type TaskQueue chan Task

func NewTaskQueue(size int) TaskQueue {
	return make(TaskQueue, size)
}

// Queue runs submitted tasks on a fixed number of workers. Tasks still buffered
// when the queue stops are never executed.
type Queue struct {
	tasks TaskQueue
	done  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

func New(size int) *Queue {
	return &Queue{
		tasks: NewTaskQueue(size),
		done:  make(chan struct{}),
	}
}

// Start launches the workers. They stop once ctx is canceled.
func (q *Queue) Start(ctx context.Context, workers int) {
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.work(ctx)
	}
	go func() {
		<-ctx.Done()
		q.once.Do(func() {
			close(q.done)
			logs.Logger.Info().Int("pending", len(q.tasks)).Msg("task queue closed")
		})
	}()
}

func (q *Queue) work(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case task := <-q.tasks:
			task.Execute(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (q *Queue) Submit(ctx context.Context, task Task) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}
	select {
	case q.tasks <- task:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the queue stops accepting and running tasks.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

// Wait blocks until every worker has returned.
func (q *Queue) Wait() {
	q.wg.Wait()
}
