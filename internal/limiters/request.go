package limiters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRequestThrottled        = errors.New("reset request throttled")
	ErrRequestRedisUnavailable = errors.New("reset request redis unavailable")
)

const defaultRequestPrefix = "grr"

type RequestConfig struct {
	MaxRequests int
	Window      time.Duration
	Prefix      string
}

// RequestLimiter is a fixed-window counter of reset requests per email.
type RequestLimiter struct {
	redis  redis.UniversalClient
	config RequestConfig
}

func NewRequestLimiter(redisClient redis.UniversalClient, cfg RequestConfig) *RequestLimiter {
	if cfg.Prefix == "" {
		cfg.Prefix = defaultRequestPrefix
	}
	return &RequestLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

// Check counts one request for email and returns ErrRequestThrottled once the
// window holds more than MaxRequests. Backend failures wrap
// ErrRequestRedisUnavailable.
func (l *RequestLimiter) Check(ctx context.Context, email string) error {
	if l == nil || l.redis == nil || l.config.MaxRequests <= 0 {
		return nil
	}
	key := l.requestKey(email)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestRedisUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRequestRedisUnavailable, err)
		}
	}

	if count > int64(l.config.MaxRequests) {
		return ErrRequestThrottled
	}

	return nil
}

// Remaining reports how long the current window for email still runs.
func (l *RequestLimiter) Remaining(ctx context.Context, email string) (time.Duration, error) {
	if l == nil || l.redis == nil {
		return 0, nil
	}
	ttl, err := l.redis.TTL(ctx, l.requestKey(email)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRequestRedisUnavailable, err)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

func (l *RequestLimiter) requestKey(email string) string {
	return l.config.Prefix + ":req:" + normalizeEmail(email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
