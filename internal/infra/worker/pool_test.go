//go:build !integration

package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_RunsSubmittedTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPool(3, nil)
	p.Start(ctx)
	defer p.Stop()

	var wg sync.WaitGroup
	var ran int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		if err := p.Submit(ctx, func(ctx context.Context) error {
			defer wg.Done()
			atomic.AddInt32(&ran, 1)
			return nil
		}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	wg.Wait()
	if got := atomic.LoadInt32(&ran); got != 20 {
		t.Fatalf("expected 20 tasks to run, got %d", got)
	}
}

func TestPool_SurvivesPanickingTask(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPool(1, nil)
	p.Start(ctx)
	defer p.Stop()

	_ = p.Submit(ctx, func(ctx context.Context) error { panic("boom") })

	done := make(chan struct{})
	_ = p.Submit(ctx, func(ctx context.Context) error { close(done); return errors.New("logged only") })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive the panic")
	}
}

func TestPool_SubmitAfterStop(t *testing.T) {
	p := NewPool(1, nil)
	p.Start(context.Background())
	p.Stop()
	if err := p.Submit(context.Background(), func(ctx context.Context) error { return nil }); !errors.Is(err, ErrPoolStopped) {
		t.Fatalf("expected ErrPoolStopped, got %v", err)
	}
}

func TestPool_SubmitHonorsContext(t *testing.T) {
	// not started: the queue fills and Submit must give up on ctx
	p := NewPool(1, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var err error
	for i := 0; i < 10 && err == nil; i++ {
		err = p.Submit(ctx, func(ctx context.Context) error { return nil })
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestPool_RejectsNilTask(t *testing.T) {
	if err := NewPool(1, nil).Submit(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
}
