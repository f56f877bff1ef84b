package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"safeher/internal/domain"
	"safeher/pkg/e"

	"github.com/redis/go-redis/v9"
)

// NotificationQueue is a Redis list of dispatch tasks. Producers LPUSH, the
// consumer BRPOPs, so tasks come out in insertion order.
type NotificationQueue struct {
	client *redis.Client
	key    string
}

func NewNotificationQueue(client *redis.Client, key string) *NotificationQueue {
	return &NotificationQueue{client: client, key: key}
}

// Schedule enqueues the task. It satisfies service.Scheduler.
func (q *NotificationQueue) Schedule(ctx context.Context, task domain.DispatchTask) error {
	return q.Enqueue(ctx, task)
}

func (q *NotificationQueue) Enqueue(ctx context.Context, task domain.DispatchTask) error {
	b, err := json.Marshal(task)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, b).Err(); err != nil {
		return fmt.Errorf("redis.NotificationQueue.Enqueue: %w", err)
	}
	return nil
}

// Pop blocks up to timeout. It returns e.ErrQueueEmpty when nothing arrived.
func (q *NotificationQueue) Pop(ctx context.Context, timeout time.Duration) (domain.DispatchTask, error) {
	var task domain.DispatchTask

	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return task, e.ErrQueueEmpty
		}
		return task, err
	}
	if len(res) < 2 {
		return task, e.ErrQueueEmpty
	}
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return task, fmt.Errorf("redis.NotificationQueue.Pop: decode task: %w", err)
	}
	return task, nil
}

func (q *NotificationQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
