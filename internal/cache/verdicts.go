// Package cache provides Redis-backed memoization of classifier verdicts.
// Keys are derived from the SHA-256 of the normalized message text:
//
//	Key:   verdict:<hex digest>
//	Value: "1" (flagged) or "0" (clean)
//	TTL:   configured cache lifetime
//
// The cache is best-effort: Redis errors are returned so the caller can fall
// through to the remote classifier.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// VerdictPrefix is the Redis key prefix for cached verdicts.
const VerdictPrefix = "verdict:"

// ErrMiss is returned when no verdict is cached for the text.
var ErrMiss = errors.New("cache: miss")

// Verdicts memoizes classifier verdicts in Redis.
type Verdicts struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a verdict cache using the provided Redis client.
func New(client *redis.Client, ttl time.Duration) *Verdicts {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Verdicts{client: client, ttl: ttl}
}

// Key returns the Redis key for a normalized text.
func Key(normalizedText string) string {
	sum := sha256.Sum256([]byte(normalizedText))
	return VerdictPrefix + hex.EncodeToString(sum[:])
}

// Get looks up a cached verdict. Returns ErrMiss when absent.
func (v *Verdicts) Get(ctx context.Context, normalizedText string) (bool, error) {
	val, err := v.client.Get(ctx, Key(normalizedText)).Result()
	if errors.Is(err, redis.Nil) {
		return false, ErrMiss
	}
	if err != nil {
		return false, err
	}
	return val == "1", nil
}

// Set stores a verdict with the configured TTL.
func (v *Verdicts) Set(ctx context.Context, normalizedText string, flagged bool) error {
	val := "0"
	if flagged {
		val = "1"
	}
	return v.client.Set(ctx, Key(normalizedText), val, v.ttl).Err()
}

// Ping verifies the Redis connection.
func (v *Verdicts) Ping(ctx context.Context) error {
	return v.client.Ping(ctx).Err()
}
