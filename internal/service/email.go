package service

import (
	"context"
	"fmt"

	"moneypool-backend/internal/mailer"
)

type emailService struct {
	sender  mailer.Sender
	appName string
}

func NewEmailService(sender mailer.Sender, appName string) EmailService {
	if appName == "" {
		appName = defaultAppName
	}
	return &emailService{sender: sender, appName: appName}
}

func (s *emailService) SendNotification(ctx context.Context, email, name string, msg RenderedNotification) error {
	body := fmt.Sprintf("Hello %s,\n\n%s\n\nBest regards,\nThe %s Team", name, msg.Message, s.appName)
	err := s.sender.Send(ctx, mailer.Message{
		To:      email,
		ToName:  name,
		Subject: fmt.Sprintf("%s - %s", msg.Title, s.appName),
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}
	return nil
}

func (s *emailService) SendAdminNotification(ctx context.Context, adminEmail, subject, message string) error {
	err := s.sender.Send(ctx, mailer.Message{
		To:      adminEmail,
		Subject: fmt.Sprintf("[%s Admin] %s", s.appName, subject),
		Body:    message,
	})
	if err != nil {
		return fmt.Errorf("failed to send admin notification: %w", err)
	}
	return nil
}
