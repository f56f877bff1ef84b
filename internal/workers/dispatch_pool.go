package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"safeher/internal/domain"
	"safeher/internal/metrics"
	"safeher/internal/notify"
	"safeher/pkg/e"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, task domain.DispatchTask) notify.Report
}

// DispatchPool runs notification fan-outs on a fixed set of goroutines fed by
// a bounded in-memory queue.
type DispatchPool struct {
	dispatcher Dispatcher
	jobs       chan domain.DispatchTask
	poolSize   int
	timeout    time.Duration
	logger     *slog.Logger

	// mu orders Schedule against shutdown: once stopped is set under the
	// write lock, no send can reach jobs, so the drain sees every task.
	mu      sync.RWMutex
	stopped bool
}

func NewDispatchPool(dispatcher Dispatcher, poolSize, queueSize int, timeout time.Duration, logger *slog.Logger) *DispatchPool {
	if poolSize < 1 {
		poolSize = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	p := &DispatchPool{
		dispatcher: dispatcher,
		jobs:       make(chan domain.DispatchTask, queueSize),
		poolSize:   poolSize,
		timeout:    timeout,
		logger:     logger,
	}
	metrics.QueueDepth("memory", func() float64 { return float64(len(p.jobs)) })
	return p
}

// Schedule never blocks. A full queue yields e.ErrQueueFull.
func (p *DispatchPool) Schedule(_ context.Context, task domain.DispatchTask) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return fmt.Errorf("dispatch pool stopped: %w", e.ErrQueueFull)
	}
	select {
	case p.jobs <- task:
		return nil
	default:
		return e.ErrQueueFull
	}
}

// Run blocks until ctx is cancelled and every queued task has been dispatched.
func (p *DispatchPool) Run(ctx context.Context) {
	p.logger.Info("dispatch pool started", slog.Int("workers", p.poolSize), slog.Int("queue_size", cap(p.jobs)))

	var wg sync.WaitGroup
	for i := 0; i < p.poolSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx)
		}()
	}
	wg.Wait()

	p.logger.Info("dispatch pool stopped")
}

func (p *DispatchPool) worker(ctx context.Context) {
	for {
		select {
		case task := <-p.jobs:
			p.process(task)
		case <-ctx.Done():
			p.stop()
			p.drain()
			return
		}
	}
}

func (p *DispatchPool) stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
}

func (p *DispatchPool) drain() {
	for {
		select {
		case task := <-p.jobs:
			p.process(task)
		default:
			return
		}
	}
}

// process gives every task its own deadline, detached from the request and
// from pool shutdown.
func (p *DispatchPool) process(task domain.DispatchTask) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	p.dispatcher.Dispatch(ctx, task)
}
