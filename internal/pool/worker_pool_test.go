package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRunsSubmittedTasks(t *testing.T) {
	p := NewWorkerPool(2, 4)
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	const n = 10
	var ran int64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		err := p.Submit(func(context.Context) {
			atomic.AddInt64(&ran, 1)
			wg.Done()
		})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	wg.Wait()

	if got := atomic.LoadInt64(&ran); got != n {
		t.Errorf("ran %d tasks, want %d", got, n)
	}
	if stats := p.GetStats(); stats.TotalTasks != n {
		t.Errorf("TotalTasks = %d, want %d", stats.TotalTasks, n)
	}
}

func TestStartTwiceErrors(t *testing.T) {
	p := NewWorkerPool(1, 1)
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	if err := p.Start(); err == nil {
		t.Error("second Start succeeded, want error")
	}
}

func TestSubmitAfterStopAlwaysErrors(t *testing.T) {
	p := NewWorkerPool(2, 8)
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	p.Stop()

	// The queue has room, so an enqueue would look plausible; every
	// submission must still be refused once the pool is stopped.
	for i := 0; i < 20; i++ {
		err := p.Submit(func(context.Context) {
			t.Error("task ran after the pool was stopped")
		})
		if err == nil {
			t.Fatalf("Submit %d after Stop succeeded, want error", i)
		}
	}
}
