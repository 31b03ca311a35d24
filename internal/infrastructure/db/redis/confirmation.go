package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const confirmationTTL = 24 * time.Hour

// ConfirmationStore holds single-use email-confirmation tokens backed by
// Redis. Key format: confirm:<token> → user id, expiring after 24h.
type ConfirmationStore struct {
	client *redis.Client
}

// NewConfirmationStore creates a ConfirmationStore wrapping the given client.
func NewConfirmationStore(client *redis.Client) *ConfirmationStore {
	return &ConfirmationStore{client: client}
}

// Save stores the token for its user. Tokens are random and never reused, so
// a plain SET with TTL is enough.
func (s *ConfirmationStore) Save(ctx context.Context, token, userID string) error {
	if err := s.client.Set(ctx, s.key(token), userID, confirmationTTL).Err(); err != nil {
		return fmt.Errorf("save confirmation token: %w", err)
	}
	return nil
}

// Consume atomically fetches and deletes the token, making it single-use.
// ok is false when the token is unknown, expired, or already consumed.
func (s *ConfirmationStore) Consume(ctx context.Context, token string) (string, bool, error) {
	userID, err := s.client.GetDel(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("consume confirmation token: %w", err)
	}
	return userID, true, nil
}

func (s *ConfirmationStore) key(token string) string {
	return "confirm:" + token
}
