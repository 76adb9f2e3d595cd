// Package push sends mobile push notifications through Firebase Cloud Messaging.
package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"moneypool-backend/internal/logger"
)

// Message is the device-facing part of a notification.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type FirebaseSender struct {
	client messagingClient
}

// NewFirebaseSender initialises the Firebase app from a service account file.
func NewFirebaseSender(ctx context.Context, credentialsFile string) (*FirebaseSender, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialise firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}
	return &FirebaseSender{client: client}, nil
}

func (s *FirebaseSender) Send(ctx context.Context, deviceToken string, msg Message) error {
	logger.ExternalServiceCall("fcm", "Send", "title", msg.Title)
	id, err := s.client.Send(ctx, buildMessage(deviceToken, msg))
	logger.ExternalServiceResult("fcm", "Send", err, "messageID", id)
	if err != nil {
		if messaging.IsUnregistered(err) {
			return fmt.Errorf("device token is no longer registered: %w", err)
		}
		return fmt.Errorf("failed to send push notification: %w", err)
	}
	return nil
}

func buildMessage(deviceToken string, msg Message) *messaging.Message {
	return &messaging.Message{
		Token: deviceToken,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}
}
