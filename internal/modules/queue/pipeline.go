package queue

import (
	"context"
	"sync/atomic"

	"github.com/reusedev/chat-image/internal/modules/pipeline"
)

type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// PipelineQueue bounds how many pipeline runs hit the image service at once.
type PipelineQueue struct {
	queue  *Queue
	runner Runner
}

func NewPipelineQueue(q *Queue, runner Runner) *PipelineQueue {
	return &PipelineQueue{queue: q, runner: runner}
}

const (
	taskPending int32 = iota
	taskStarted
	taskAbandoned
)

type runResult struct {
	result *pipeline.Result
	err    error
}

type runTask struct {
	ctx    context.Context
	req    pipeline.Request
	runner Runner
	state  atomic.Int32
	done   chan runResult
}

// Execute skips tasks whose submitter already gave up. A started run keeps the
// submitter's values but not its cancellation, so it always completes.
func (t *runTask) Execute(_ context.Context) {
	if !t.state.CompareAndSwap(taskPending, taskStarted) {
		return
	}
	if err := t.ctx.Err(); err != nil {
		t.done <- runResult{err: err}
		return
	}
	result, err := t.runner.Run(context.WithoutCancel(t.ctx), t.req)
	t.done <- runResult{result: result, err: err}
}

// abandon reports false when a worker already picked the task up.
func (t *runTask) abandon() bool {
	return t.state.CompareAndSwap(taskPending, taskAbandoned)
}

func (p *PipelineQueue) Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	task := &runTask{ctx: ctx, req: req, runner: p.runner, done: make(chan runResult, 1)}
	if err := p.queue.Submit(ctx, task); err != nil {
		return nil, err
	}
	select {
	case r := <-task.done:
		return r.result, r.err
	case <-p.queue.Done():
		if task.abandon() {
			return nil, ErrClosed
		}
		r := <-task.done
		return r.result, r.err
	case <-ctx.Done():
		task.abandon()
		return nil, ctx.Err()
	}
}
