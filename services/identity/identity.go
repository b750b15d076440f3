package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"remindful/services/sync"
	"remindful/utils"

	"firebase.google.com/go/v4/auth"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// TokenVerifier is the slice of the Firebase Auth client used at sign-in.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// SessionStore persists the single active account session.
type SessionStore interface {
	Save(ctx context.Context, session utils.AuthSession) error
	// Get returns nil when nobody is signed in.
	Get(ctx context.Context) (*utils.AuthSession, error)
	// Refresh extends the session TTL after an authenticated request.
	Refresh(ctx context.Context) error
	Delete(ctx context.Context) error
}

// AuthResponse is returned to the client after a successful sign-in.
type AuthResponse struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
	Token string `json:"token"`
}

// IdentityService owns the account session: Firebase ID-token sign-in, local
// JWT issuance, and uid resolution for replication. CurrentUID satisfies the
// sync engine's identity seam and fails closed when nobody is signed in.
type IdentityService interface {
	SignIn(ctx context.Context, idToken, deviceName string) (*AuthResponse, error)
	SignOut(ctx context.Context) error
	Current(ctx context.Context) (*utils.AuthSession, error)
	CurrentUID(ctx context.Context) (string, error)
}

// DefaultIdentityService is the production implementation.
type DefaultIdentityService struct {
	Verifier TokenVerifier
	Sessions SessionStore
}

func (s *DefaultIdentityService) SignIn(ctx context.Context, idToken, deviceName string) (*AuthResponse, error) {
	if idToken == "" {
		return nil, fmt.Errorf("an ID token is required")
	}
	decoded, err := s.Verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}
	if decoded.UID == "" {
		return nil, fmt.Errorf("ID token carries no uid")
	}
	email, _ := decoded.Claims["email"].(string)

	token, err := utils.GenerateToken(decoded.UID, email, utils.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}
	session := utils.AuthSession{
		UID:        decoded.UID,
		Email:      email,
		DeviceName: deviceName,
		TokenHash:  utils.HashToken(token),
		CreatedAt:  time.Now(),
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	utils.GetLogger().Info("Account signed in",
		zap.String("uid", decoded.UID), zap.String("device", deviceName))
	return &AuthResponse{UID: decoded.UID, Email: email, Token: token}, nil
}

func (s *DefaultIdentityService) SignOut(ctx context.Context) error {
	if err := s.Sessions.Delete(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *DefaultIdentityService) Current(ctx context.Context) (*utils.AuthSession, error) {
	session, err := s.Sessions.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if session == nil {
		return nil, sync.ErrNoSession
	}
	return session, nil
}

func (s *DefaultIdentityService) CurrentUID(ctx context.Context) (string, error) {
	session, err := s.Sessions.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	if session == nil || session.UID == "" {
		return "", sync.ErrNoSession
	}
	return session.UID, nil
}

// RedisSessionStore is the production SessionStore over the session cache.
type RedisSessionStore struct {
	// Client overrides the shared session client; nil uses it.
	Client *redis.Client
}

func (s *RedisSessionStore) client() *redis.Client {
	if s.Client != nil {
		return s.Client
	}
	return utils.GetSessionClient()
}

func (s *RedisSessionStore) Save(ctx context.Context, session utils.AuthSession) error {
	return utils.SaveAuthSession(ctx, s.client(), session)
}

func (s *RedisSessionStore) Get(ctx context.Context) (*utils.AuthSession, error) {
	session, err := utils.GetAuthSession(ctx, s.client())
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *RedisSessionStore) Refresh(ctx context.Context) error {
	return utils.RefreshAuthSession(ctx, s.client())
}

func (s *RedisSessionStore) Delete(ctx context.Context) error {
	return utils.DeleteAuthSession(ctx, s.client())
}
