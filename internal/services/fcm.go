package services

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// PushService sends Firebase Cloud Messaging notifications to doctor
// devices. Delivery is best effort; callers never fail a request because a
// push could not be sent.
type PushService struct {
	client *messaging.Client
	log    zerolog.Logger
}

// NewPushService initialises the Firebase app from a service-account
// credentials file. An empty path disables push entirely.
func NewPushService(ctx context.Context, credentialsFile string, log zerolog.Logger) (*PushService, error) {
	if credentialsFile == "" {
		log.Warn().Msg("firebase credentials not configured, push notifications disabled")
		return &PushService{log: log}, nil
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	return &PushService{client: client, log: log}, nil
}

// Enabled reports whether a messaging client is available.
func (s *PushService) Enabled() bool {
	return s != nil && s.client != nil
}

// Notify sends one data-carrying notification to a device token. Errors are
// logged and swallowed.
func (s *PushService) Notify(ctx context.Context, token, title, body string, data map[string]string) {
	if !s.Enabled() || token == "" {
		return
	}
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}
	if _, err := s.client.Send(ctx, msg); err != nil {
		s.log.Error().Err(err).Msg("failed to send push notification")
		return
	}
	s.log.Debug().Str("title", title).Msg("push notification sent")
}
