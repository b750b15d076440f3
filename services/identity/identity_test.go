package identity

import (
	"context"
	"errors"
	"testing"

	"remindful/services/sync"
	"remindful/utils"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	token *auth.Token
	err   error
}

func (f fakeVerifier) VerifyIDToken(context.Context, string) (*auth.Token, error) {
	return f.token, f.err
}

type memSessionStore struct {
	session *utils.AuthSession
}

func (m *memSessionStore) Save(_ context.Context, s utils.AuthSession) error {
	m.session = &s
	return nil
}

func (m *memSessionStore) Get(context.Context) (*utils.AuthSession, error) {
	return m.session, nil
}

func (m *memSessionStore) Refresh(context.Context) error { return nil }

func (m *memSessionStore) Delete(context.Context) error {
	m.session = nil
	return nil
}

func TestSignInEstablishesSession(t *testing.T) {
	store := &memSessionStore{}
	svc := &DefaultIdentityService{
		Verifier: fakeVerifier{token: &auth.Token{
			UID:    "user-1",
			Claims: map[string]interface{}{"email": "u@example.com"},
		}},
		Sessions: store,
	}

	resp, err := svc.SignIn(context.Background(), "firebase-id-token", "pixel-9")
	require.NoError(t, err)
	assert.Equal(t, "user-1", resp.UID)
	assert.Equal(t, "u@example.com", resp.Email)

	subject, err := utils.ExtractIDFromToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", subject, "the issued JWT carries the account uid")

	require.NotNil(t, store.session)
	assert.Equal(t, "user-1", store.session.UID)
	assert.Equal(t, "pixel-9", store.session.DeviceName)
	assert.Equal(t, utils.HashToken(resp.Token), store.session.TokenHash)

	uid, err := svc.CurrentUID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)
}

func TestSignInRejectsBadTokens(t *testing.T) {
	store := &memSessionStore{}
	svc := &DefaultIdentityService{
		Verifier: fakeVerifier{err: errors.New("expired")},
		Sessions: store,
	}

	_, err := svc.SignIn(context.Background(), "stale", "")
	require.Error(t, err)
	assert.Nil(t, store.session, "a failed sign-in leaves no session behind")

	_, err = svc.SignIn(context.Background(), "", "")
	require.Error(t, err, "an empty token never reaches the verifier")

	svc.Verifier = fakeVerifier{token: &auth.Token{UID: ""}}
	_, err = svc.SignIn(context.Background(), "odd", "")
	require.Error(t, err, "a token without a uid cannot establish identity")
}

func TestCurrentUIDFailsClosed(t *testing.T) {
	store := &memSessionStore{}
	svc := &DefaultIdentityService{Sessions: store}

	_, err := svc.CurrentUID(context.Background())
	assert.ErrorIs(t, err, sync.ErrNoSession)
	_, err = svc.Current(context.Background())
	assert.ErrorIs(t, err, sync.ErrNoSession)

	store.session = &utils.AuthSession{UID: ""}
	_, err = svc.CurrentUID(context.Background())
	assert.ErrorIs(t, err, sync.ErrNoSession, "a session without a uid is no session")
}

func TestSignOutClearsSession(t *testing.T) {
	store := &memSessionStore{session: &utils.AuthSession{UID: "user-1"}}
	svc := &DefaultIdentityService{Sessions: store}

	require.NoError(t, svc.SignOut(context.Background()))
	assert.Nil(t, store.session)

	_, err := svc.CurrentUID(context.Background())
	assert.ErrorIs(t, err, sync.ErrNoSession)
}
