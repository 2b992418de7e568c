package services

import (
	"context"
	"errors"
	"fmt"

	"fitpair-backend/internal/config"
	"fitpair-backend/internal/metrics"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// ErrDeviceTokenInvalid is returned when APNs no longer accepts a device token
var ErrDeviceTokenInvalid = errors.New("device token is no longer valid")

// Pusher delivers an alert to a device
type Pusher interface {
	Push(ctx context.Context, deviceToken, alert string) error
}

// PushSender sends alerts through Apple Push Notification service
type PushSender struct {
	client *apns2.Client
	topic  string
}

// NewPushSender creates a token based APNs client
func NewPushSender(cfg *config.APNsConfig) (*PushSender, error) {
	authKey, err := token.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &PushSender{
		client: client,
		topic:  cfg.Topic,
	}, nil
}

// Push sends alert to deviceToken
func (s *PushSender) Push(ctx context.Context, deviceToken, alert string) error {
	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       s.topic,
		Payload:     payload.NewPayload().Alert(alert).Sound("default"),
	}

	res, err := s.client.PushWithContext(ctx, notification)
	if err != nil {
		metrics.PushNotifications.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to push notification: %w", err)
	}

	if !res.Sent() {
		metrics.PushNotifications.WithLabelValues("rejected").Inc()
		switch res.Reason {
		case apns2.ReasonBadDeviceToken, apns2.ReasonUnregistered, apns2.ReasonDeviceTokenNotForTopic:
			return fmt.Errorf("%w: %s", ErrDeviceTokenInvalid, res.Reason)
		}
		return fmt.Errorf("push rejected with status %d: %s", res.StatusCode, res.Reason)
	}

	metrics.PushNotifications.WithLabelValues("sent").Inc()
	return nil
}
