package service

import (
	"context"
	"errors"
	"strconv"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/metrics"
	"moneypool-backend/internal/push"
	"moneypool-backend/internal/repository"
)

type notificationService struct {
	noteRepo repository.NotificationRepository
}

func NewNotificationService(noteRepo repository.NotificationRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo}
}

func (s *notificationService) GetNotifications(ctx context.Context, actor domain.Actor, page, pageSize int32) ([]domain.Notification, int32, error) {
	page, pageSize = normalizePage(page, pageSize)
	offset := (page - 1) * pageSize
	return s.noteRepo.List(ctx, actor.MemberID, pageSize, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, actor domain.Actor, notificationID int64) error {
	return s.noteRepo.MarkAsRead(ctx, notificationID, actor.MemberID)
}

// Dispatcher is the inline Notifier. It stores an in-app notification and
// fans the rendered message out to email and, when the member has a
// registered device, push. Every channel is attempted; the first failure is
// returned.
type Dispatcher struct {
	memberRepo repository.MemberRepository
	noteRepo   repository.NotificationRepository
	email      EmailService
	push       PushSender
	renderer   *Renderer
}

// NewDispatcher wires the delivery channels. pushSender may be nil when push
// is not configured.
func NewDispatcher(
	memberRepo repository.MemberRepository,
	noteRepo repository.NotificationRepository,
	email EmailService,
	pushSender PushSender,
	renderer *Renderer,
) *Dispatcher {
	if renderer == nil {
		renderer = NewRenderer("")
	}
	return &Dispatcher{
		memberRepo: memberRepo,
		noteRepo:   noteRepo,
		email:      email,
		push:       pushSender,
		renderer:   renderer,
	}
}

func (d *Dispatcher) Notify(ctx context.Context, event domain.NotificationEvent) error {
	logger.EnterMethod("Dispatcher.Notify", "kind", event.Kind, "memberID", event.MemberID)

	member, err := d.memberRepo.GetByID(ctx, event.MemberID)
	if err != nil {
		logger.ExitMethodWithError("Dispatcher.Notify", err, "memberID", event.MemberID)
		return err
	}
	msg := d.renderer.Render(event, member.Name)

	var errs []error
	note := &domain.Notification{
		MemberID:   member.ID,
		Kind:       event.Kind,
		Title:      msg.Title,
		Message:    msg.Message,
		Attributes: eventAttributes(event),
	}
	errs = append(errs, d.deliver(ctx, "in_app", func() error {
		return d.noteRepo.Create(ctx, note)
	}))

	if d.email != nil && member.Email != "" {
		errs = append(errs, d.deliver(ctx, "email", func() error {
			return d.email.SendNotification(ctx, member.Email, member.Name, msg)
		}))
	}

	if d.push != nil && member.DeviceToken != "" {
		errs = append(errs, d.deliver(ctx, "push", func() error {
			return d.push.Send(ctx, member.DeviceToken, push.Message{
				Title: msg.Title,
				Body:  msg.Message,
				Data:  note.Attributes,
			})
		}))
	}

	for _, err := range errs {
		if err != nil {
			logger.ExitMethodWithError("Dispatcher.Notify", errors.Join(errs...), "memberID", event.MemberID)
			return err
		}
	}
	logger.ExitMethod("Dispatcher.Notify", "memberID", event.MemberID)
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, channel string, send func() error) error {
	err := send()
	if err != nil {
		logger.WarnContext(ctx, "Notification channel failed", "channel", channel, "error", err)
		metrics.RecordNotification(channel, "error")
		return err
	}
	metrics.RecordNotification(channel, "sent")
	return nil
}

func eventAttributes(event domain.NotificationEvent) map[string]string {
	attrs := make(map[string]string, len(event.Data)+2)
	for k, v := range event.Data {
		attrs[k] = v
	}
	attrs["kind"] = string(event.Kind)
	attrs["member_id"] = strconv.FormatInt(event.MemberID, 10)
	return attrs
}
