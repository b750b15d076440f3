// File: remindful/utils/auth_session.go
package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// AuthSession is the signed-in account session. One account is active per
// deployment; every sync run resolves its uid from this record.
type AuthSession struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email"`
	DeviceName    string    `json:"deviceName,omitempty"`
	FCMToken      string    `json:"fcmToken,omitempty"`
	TokenHash     string    `json:"tokenHash"`
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// SaveAuthSession stores the account session in Redis with a TTL.
func SaveAuthSession(ctx context.Context, client *redis.Client, session AuthSession) error {
	session.LastUpdatedAt = time.Now()
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal auth session: %w", err)
	}
	if err := client.Set(ctx, ActiveSessionKey, data, SessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to save auth session: %w", err)
	}
	return nil
}

// GetAuthSession retrieves the account session from Redis. Callers treat
// redis.Nil as "no account signed in".
func GetAuthSession(ctx context.Context, client *redis.Client) (*AuthSession, error) {
	data, err := client.Get(ctx, ActiveSessionKey).Result()
	if err != nil {
		return nil, err
	}
	var session AuthSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auth session: %w", err)
	}
	return &session, nil
}

// RefreshAuthSession extends the session TTL after an authenticated request.
func RefreshAuthSession(ctx context.Context, client *redis.Client) error {
	return client.Expire(ctx, ActiveSessionKey, SessionTTL).Err()
}

// DeleteAuthSession removes the account session from Redis.
func DeleteAuthSession(ctx context.Context, client *redis.Client) error {
	return client.Del(ctx, ActiveSessionKey).Err()
}
