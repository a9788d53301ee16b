package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reusedev/chat-image/internal/modules/model"
	"github.com/reusedev/chat-image/internal/modules/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcTask func(ctx context.Context)

func (f funcTask) Execute(ctx context.Context) {
	f(ctx)
}

func TestQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := New(10)
	q.Start(ctx, 2)

	var count atomic.Int32
	wg := sync.WaitGroup{}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		require.NoError(t, q.Submit(context.Background(), funcTask(func(context.Context) {
			count.Add(1)
			wg.Done()
		})))
	}
	wg.Wait()
	require.Equal(t, int32(5), count.Load())

	cancel()
	q.Wait()
	<-q.Done()
	require.ErrorIs(t, q.Submit(context.Background(), funcTask(func(context.Context) {})), ErrClosed)
}

func TestQueueSubmitCanceled(t *testing.T) {
	q := New(0) // no workers started, no buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, q.Submit(ctx, funcTask(func(context.Context) {})), context.Canceled)
}

type slowRunner struct {
	running atomic.Int32
	max     atomic.Int32
}

func (s *slowRunner) Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	n := s.running.Add(1)
	defer s.running.Add(-1)
	for {
		m := s.max.Load()
		if n <= m || s.max.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	return &pipeline.Result{TaskID: req.Prompt, Image: model.Image{Prompt: req.Prompt}}, nil
}

func TestPipelineQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := New(10)
	q.Start(ctx, 2)
	runner := &slowRunner{}
	p := NewPipelineQueue(q, runner)

	wg := sync.WaitGroup{}
	for _, prompt := range []string{"a", "b", "c", "d", "e"} {
		wg.Add(1)
		go func(prompt string) {
			defer wg.Done()
			result, err := p.Run(context.Background(), pipeline.Request{Prompt: prompt})
			if assert.NoError(t, err) {
				assert.Equal(t, prompt, result.TaskID)
			}
		}(prompt)
	}
	wg.Wait()
	require.LessOrEqual(t, runner.max.Load(), int32(2))
}

func TestPipelineQueueClosed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := New(1)
	q.Start(ctx, 1)
	cancel()
	q.Wait()
	<-q.Done()

	_, err := NewPipelineQueue(q, &slowRunner{}).Run(context.Background(), pipeline.Request{Prompt: "a"})
	require.ErrorIs(t, err, ErrClosed)
}

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
	runErr  chan error
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(chan struct{}),
		release: make(chan struct{}),
		runErr:  make(chan error, 1),
	}
}

func (b *blockingRunner) Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	close(b.started)
	<-b.release
	b.runErr <- ctx.Err()
	return &pipeline.Result{TaskID: req.Prompt}, nil
}

type runOutcome struct {
	result *pipeline.Result
	err    error
}

func TestPipelineQueueDrainsInFlight(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := New(1)
	q.Start(ctx, 1)
	runner := newBlockingRunner()

	out := make(chan runOutcome, 1)
	go func() {
		result, err := NewPipelineQueue(q, runner).Run(context.Background(), pipeline.Request{Prompt: "a"})
		out <- runOutcome{result, err}
	}()
	<-runner.started
	cancel()
	<-q.Done()

	select {
	case o := <-out:
		t.Fatalf("run returned while still executing: %v", o.err)
	case <-time.After(50 * time.Millisecond):
	}
	close(runner.release)
	o := <-out
	require.NoError(t, o.err)
	require.Equal(t, "a", o.result.TaskID)
	require.NoError(t, <-runner.runErr)
	q.Wait()
}

func TestPipelineQueueCallerGone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := New(1)
	q.Start(ctx, 1)
	runner := newBlockingRunner()

	reqCtx, reqCancel := context.WithCancel(context.Background())
	out := make(chan runOutcome, 1)
	go func() {
		result, err := NewPipelineQueue(q, runner).Run(reqCtx, pipeline.Request{Prompt: "a"})
		out <- runOutcome{result, err}
	}()
	<-runner.started
	reqCancel()
	o := <-out
	require.ErrorIs(t, o.err, context.Canceled)

	// the started run still finishes with a live context
	close(runner.release)
	require.NoError(t, <-runner.runErr)
}
