// Package pool provides the bounded worker pool that keeps
// subprocess-backed conversions from spawning without limit under burst
// submissions.
package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Task is a unit of conversion work.
type Task func(ctx context.Context)

// WorkerPool runs tasks on a fixed number of goroutines. When the queue is
// full, Submit blocks instead of failing; requests queue rather than error
// out.
type WorkerPool struct {
	workers     int
	queue       chan Task
	wg          sync.WaitGroup
	baseCtx     context.Context
	cancel      context.CancelFunc
	activeCount int32
	totalTasks  int64
	started     bool
	mu          sync.Mutex
}

func NewWorkerPool(workers, queueSize int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = workers * 10
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		workers: workers,
		queue:   make(chan Task, queueSize),
		baseCtx: ctx,
		cancel:  cancel,
	}
}

func (p *WorkerPool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return fmt.Errorf("worker pool already started")
	}
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	p.started = true
	return nil
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case task, ok := <-p.queue:
			if !ok {
				return
			}
			atomic.AddInt32(&p.activeCount, 1)
			atomic.AddInt64(&p.totalTasks, 1)
			task(p.baseCtx)
			atomic.AddInt32(&p.activeCount, -1)
		case <-p.baseCtx.Done():
			return
		}
	}
}

// Submit enqueues a task, blocking while the queue is full. It returns an
// error only when the pool has been stopped. The stopped check comes before
// the enqueue select; otherwise a task submitted after Stop could land in
// the queue with no worker left to drain it.
func (p *WorkerPool) Submit(task Task) error {
	if p.baseCtx.Err() != nil {
		return fmt.Errorf("worker pool stopped")
	}
	select {
	case p.queue <- task:
		return nil
	case <-p.baseCtx.Done():
		return fmt.Errorf("worker pool stopped")
	}
}

// Stop cancels in-flight task contexts and waits for the workers to exit.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.cancel()
	p.wg.Wait()
	p.started = false
}

// Stats is a point-in-time snapshot for the health endpoint.
type Stats struct {
	Workers    int   `json:"workers"`
	Active     int32 `json:"active"`
	TotalTasks int64 `json:"totalTasks"`
	QueueSize  int   `json:"queueSize"`
}

func (p *WorkerPool) GetStats() Stats {
	return Stats{
		Workers:    p.workers,
		Active:     atomic.LoadInt32(&p.activeCount),
		TotalTasks: atomic.LoadInt64(&p.totalTasks),
		QueueSize:  len(p.queue),
	}
}
