package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"anoa.com/civicreport/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const ScopeReport = "create_report"

// RateLimitError tells the caller how long to wait before retrying.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func (e *RateLimitError) Unwrap() error {
	return apperror.ErrRateLimitExceeded
}

func key(userID uuid.UUID, action string) string {
	return fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), action)
}

// CheckAndSetRateLimit claims the cooldown slot for an action. It reports
// true when the caller may proceed. A nil client or a non-positive limit
// always allows.
func CheckAndSetRateLimit(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string, limit time.Duration) (bool, error) {
	if rdb == nil || limit <= 0 {
		return true, nil
	}

	wasSet, err := rdb.SetNX(ctx, key(userID, action), "locked", limit).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}

func GetRateLimitTTL(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string) (time.Duration, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.TTL(ctx, key(userID, action)).Result()
}

func ClearRateLimit(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string) error {
	if rdb == nil {
		return nil
	}
	return rdb.Del(ctx, key(userID, action)).Err()
}

// Acquire wraps CheckAndSetRateLimit and returns a RateLimitError when the
// slot is taken. The returned release func clears the slot so a failed
// action does not cost the user a cooldown.
func Acquire(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string, limit time.Duration) (func(), error) {
	allowed, err := CheckAndSetRateLimit(ctx, rdb, userID, action, limit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		ttl, _ := GetRateLimitTTL(ctx, rdb, userID, action)
		return nil, &RateLimitError{
			Message:    fmt.Sprintf("you are doing that too fast, please wait %.0f seconds", ttl.Seconds()),
			RetryAfter: ttl,
		}
	}

	return func() {
		_ = ClearRateLimit(context.WithoutCancel(ctx), rdb, userID, action)
	}, nil
}
