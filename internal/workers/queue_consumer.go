package workers

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"safeher/internal/domain"
	"safeher/pkg/e"
)

const (
	popTimeout   = 5 * time.Second
	errorBackoff = 500 * time.Millisecond
)

type TaskSource interface {
	Pop(ctx context.Context, timeout time.Duration) (domain.DispatchTask, error)
}

// QueueConsumer pulls dispatch tasks from a shared queue. Each task is
// attempted once.
type QueueConsumer struct {
	source     TaskSource
	dispatcher Dispatcher
	workers    int
	timeout    time.Duration
	logger     *slog.Logger
}

func NewQueueConsumer(source TaskSource, dispatcher Dispatcher, workers int, timeout time.Duration, logger *slog.Logger) *QueueConsumer {
	if workers < 1 {
		workers = 1
	}
	return &QueueConsumer{
		source:     source,
		dispatcher: dispatcher,
		workers:    workers,
		timeout:    timeout,
		logger:     logger,
	}
}

func (c *QueueConsumer) Run(ctx context.Context) {
	c.logger.Info("queue consumer started", slog.Int("workers", c.workers))

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.loop(ctx)
		}()
	}
	wg.Wait()

	c.logger.Info("queue consumer stopped", slog.String("reason", context.Cause(ctx).Error()))
}

func (c *QueueConsumer) loop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		task, err := c.source.Pop(ctx, popTimeout)
		if err != nil {
			if errors.Is(err, e.ErrQueueEmpty) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("queue pop failed", slog.Any("error", err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(errorBackoff):
			}
			continue
		}

		c.process(task)
	}
}

func (c *QueueConsumer) process(task domain.DispatchTask) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	c.dispatcher.Dispatch(ctx, task)
}
