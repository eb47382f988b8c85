package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ipLimitWindow  = 15 * time.Minute
	ipLimitMax     = 10
	emailCooldown  = 2 * time.Minute
	keyPrefixIP    = "ratelimit:ip"
	keyPrefixEmail = "ratelimit:email"
)

// Limiter is a Redis-backed fixed-window rate limiter used on the
// endpoints that send email or accept credentials.
type Limiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// CheckIPRateLimit reports whether the IP exceeded the request budget
// within the current window.
func (l *Limiter) CheckIPRateLimit(ctx context.Context, ip string) (bool, error) {
	return l.CheckIPRateLimitWithPurpose(ctx, ip, "default")
}

// CheckIPRateLimitWithPurpose keeps separate counters per purpose so a
// burst of logins does not lock out registration from the same address.
func (l *Limiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	key := fmt.Sprintf("%s:%s:%s", keyPrefixIP, purpose, ip)

	count, err := l.client.Get(ctx, key).Int()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get rate limit counter: %w", err)
	}

	return count >= ipLimitMax, nil
}

// RecordIPRequest counts a request against the IP's window.
func (l *Limiter) RecordIPRequest(ctx context.Context, ip string) error {
	return l.RecordIPRequestWithPurpose(ctx, ip, "default")
}

func (l *Limiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	key := fmt.Sprintf("%s:%s:%s", keyPrefixIP, purpose, ip)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	// First hit in the window starts the clock.
	if count == 1 {
		if err := l.client.Expire(ctx, key, ipLimitWindow).Err(); err != nil {
			return fmt.Errorf("failed to set rate limit expiry: %w", err)
		}
	}

	return nil
}

// CheckEmailCooldown reports whether an email was sent to the address
// too recently.
func (l *Limiter) CheckEmailCooldown(ctx context.Context, email string) (bool, error) {
	key := fmt.Sprintf("%s:%s", keyPrefixEmail, email)

	exists, err := l.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check email cooldown: %w", err)
	}

	return exists > 0, nil
}

// SetEmailCooldown starts the cooldown for the address.
func (l *Limiter) SetEmailCooldown(ctx context.Context, email string) error {
	key := fmt.Sprintf("%s:%s", keyPrefixEmail, email)

	if err := l.client.Set(ctx, key, "1", emailCooldown).Err(); err != nil {
		return fmt.Errorf("failed to set email cooldown: %w", err)
	}

	return nil
}
