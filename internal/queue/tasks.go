// Package queue moves notification delivery onto a Redis-backed asynq queue
// so the HTTP request that approves a deposit never waits on email or push.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/service"
)

const (
	// QueueNotifications holds member notification deliveries.
	QueueNotifications = "notifications"
	// TaskSendNotification delivers one domain.NotificationEvent.
	TaskSendNotification = "notification:send"

	maxRetry = 5
)

// NewSendNotificationTask constructs an asynq task for event.
func NewSendNotificationTask(event domain.NotificationEvent) (*asynq.Task, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSendNotification, data, asynq.MaxRetry(maxRetry), asynq.Queue(QueueNotifications)), nil
}

// NewNotificationHandler runs each task through n. Malformed payloads are
// dropped without retry; delivery errors are retried by asynq.
func NewNotificationHandler(n service.Notifier) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var event domain.NotificationEvent
		if err := json.Unmarshal(t.Payload(), &event); err != nil {
			logger.Warn("Dropping malformed notification task", "error", err)
			return fmt.Errorf("decode notification payload: %v: %w", err, asynq.SkipRetry)
		}
		if event.MemberID == 0 || event.Kind == "" {
			return fmt.Errorf("notification payload missing member or kind: %w", asynq.SkipRetry)
		}
		return n.Notify(ctx, event)
	}
}
