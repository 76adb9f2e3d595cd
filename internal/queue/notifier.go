package queue

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/logger"
)

// RedisConfig locates the Redis instance backing the queue.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (c RedisConfig) clientOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.Addr, Password: c.Password, DB: c.DB}
}

// Ping checks that Redis is reachable before the queue is used.
func Ping(ctx context.Context, cfg RedisConfig) error {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return nil
}

// AsyncNotifier implements service.Notifier by enqueueing a task; the
// worker process performs the delivery.
type AsyncNotifier struct {
	client *asynq.Client
}

func NewAsyncNotifier(cfg RedisConfig) *AsyncNotifier {
	return &AsyncNotifier{client: asynq.NewClient(cfg.clientOpt())}
}

func (n *AsyncNotifier) Notify(ctx context.Context, event domain.NotificationEvent) error {
	task, err := NewSendNotificationTask(event)
	if err != nil {
		return err
	}
	info, err := n.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	logger.Debug("Notification enqueued", "taskID", info.ID, "kind", event.Kind, "memberID", event.MemberID)
	return nil
}

// Close releases client resources.
func (n *AsyncNotifier) Close() error {
	return n.client.Close()
}
