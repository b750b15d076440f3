package notification

import (
	"context"
	"fmt"
	"strconv"

	"remindful/models"
	"remindful/services/identity"
	"remindful/utils"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// Notifier delivers a fired reminder trigger to the signed-in device. An
// error surfaces to the fire worker, which retries delivery through the
// queue; a missing device is not an error, just an undeliverable fire.
type Notifier interface {
	NotifyFired(ctx context.Context, r *models.Reminder, p models.ReminderPayload) error
}

// FCMSender is the slice of the Firebase Messaging client used for pushes.
type FCMSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMNotifier pushes fired reminders over Firebase Cloud Messaging to the
// device registered on the active session.
type FCMNotifier struct {
	Sessions identity.SessionStore
	Client   FCMSender
}

func (n *FCMNotifier) NotifyFired(ctx context.Context, r *models.Reminder, p models.ReminderPayload) error {
	logger := utils.GetLogger()

	session, err := n.Sessions.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to read session for push: %w", err)
	}
	if session == nil || session.FCMToken == "" {
		logger.Warn("No device token registered; dropping push",
			zap.String("reminder", p.ReminderID))
		return nil
	}

	msg := &messaging.Message{
		Token: session.FCMToken,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Data: map[string]string{
			"reminderId":   p.ReminderID,
			"offsetMillis": strconv.FormatInt(p.OffsetMillis, 10),
			"fireAt":       strconv.FormatInt(p.FireAt, 10),
			"repeat":       r.Repeat,
		},
	}
	response, err := n.client().Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send FCM push for %s: %w", p.ReminderID, err)
	}

	logger.Info("Delivered reminder push",
		zap.String("reminder", p.ReminderID),
		zap.Int64("offset", p.OffsetMillis),
		zap.String("fcmMessage", response),
	)
	return nil
}

func (n *FCMNotifier) client() FCMSender {
	if n.Client != nil {
		return n.Client
	}
	return utils.FCMClient
}

// LogNotifier writes fired reminders to the log. It stands in for FCM in
// development runs without Firebase credentials.
type LogNotifier struct{}

func (LogNotifier) NotifyFired(_ context.Context, _ *models.Reminder, p models.ReminderPayload) error {
	utils.GetLogger().Info("Reminder fired",
		zap.String("reminder", p.ReminderID),
		zap.Int64("offset", p.OffsetMillis),
		zap.Int64("fireAt", p.FireAt),
		zap.String("title", p.Title),
	)
	return nil
}
