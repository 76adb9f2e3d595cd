package queue

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"

	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/service"
)

// Worker wraps the asynq server draining the notification queue.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

func NewWorker(cfg RedisConfig, concurrency int, notifier service.Notifier) *Worker {
	if concurrency <= 0 {
		concurrency = 5
	}
	srv := asynq.NewServer(cfg.clientOpt(), asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueNotifications: 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("Notification task failed", "type", task.Type(), "error", err)
		}),
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskSendNotification, NewNotificationHandler(notifier))
	return &Worker{server: srv, mux: mux}
}

// Run processes tasks until ctx is cancelled. Start is used instead of
// asynq's Run so shutdown follows ctx rather than OS signals.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	<-ctx.Done()
	w.server.Shutdown()
	return nil
}
