package notification

import (
	"context"
	"testing"

	"remindful/models"
	"remindful/utils"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSessions struct {
	session *utils.AuthSession
}

func (s stubSessions) Save(context.Context, utils.AuthSession) error { return nil }
func (s stubSessions) Get(context.Context) (*utils.AuthSession, error) {
	return s.session, nil
}
func (s stubSessions) Refresh(context.Context) error { return nil }
func (s stubSessions) Delete(context.Context) error  { return nil }

type stubSender struct {
	sent []*messaging.Message
}

func (s *stubSender) Send(_ context.Context, m *messaging.Message) (string, error) {
	s.sent = append(s.sent, m)
	return "projects/x/messages/1", nil
}

func TestNotifyFiredPushesToRegisteredDevice(t *testing.T) {
	sender := &stubSender{}
	n := &FCMNotifier{
		Sessions: stubSessions{session: &utils.AuthSession{UID: "u1", FCMToken: "device-token"}},
		Client:   sender,
	}
	r := &models.Reminder{ID: "r1", Repeat: models.RepeatDaily}
	p := models.ReminderPayload{
		ReminderID: "r1", OffsetMillis: 3_600_000, Title: "dentist", Body: "bring card", FireAt: 1_700_000_000_000,
	}

	require.NoError(t, n.NotifyFired(context.Background(), r, p))
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "device-token", msg.Token)
	assert.Equal(t, "dentist", msg.Notification.Title)
	assert.Equal(t, "bring card", msg.Notification.Body)
	assert.Equal(t, "r1", msg.Data["reminderId"])
	assert.Equal(t, "3600000", msg.Data["offsetMillis"])
	assert.Equal(t, "1700000000000", msg.Data["fireAt"])
}

func TestNotifyFiredDropsWithoutDevice(t *testing.T) {
	sender := &stubSender{}
	n := &FCMNotifier{Sessions: stubSessions{}, Client: sender}

	err := n.NotifyFired(context.Background(), &models.Reminder{ID: "r1"}, models.ReminderPayload{ReminderID: "r1"})
	require.NoError(t, err, "no device registered is not a failure")
	assert.Empty(t, sender.sent)
}
