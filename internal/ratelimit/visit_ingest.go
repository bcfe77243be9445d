package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/perkly/perkly/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const (
	keyVisitIngestTenant = "visit:ingest:tenant:%s"
	keyVisitIngestLock   = "visit:ingest:lock:%s:%s"
)

// VisitIngestLimiter throttles visit logging per tenant and guards against
// double-submitting the same customer within a short window. Nil when rate
// limiting is disabled.
type VisitIngestLimiter struct {
	bucket *TokenBucket
	locker *Locker

	rate    float64
	burst   int
	lockTTL time.Duration
}

func NewVisitIngestLimiter(cfg config.Config) (*VisitIngestLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.VisitRate <= 0 || limitCfg.VisitBurst <= 0 {
		return nil, errors.New("visit rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: limitCfg.RedisPassword,
		DB:       limitCfg.RedisDB,
	})

	return &VisitIngestLimiter{
		bucket:  NewTokenBucket(client),
		locker:  NewLocker(client),
		rate:    limitCfg.VisitRate,
		burst:   limitCfg.VisitBurst,
		lockTTL: time.Duration(limitCfg.VisitLockTTLSeconds) * time.Second,
	}, nil
}

func (l *VisitIngestLimiter) Enabled() bool {
	return l != nil
}

func (l *VisitIngestLimiter) Allow(ctx context.Context, tenantID snowflake.ID) (bool, error) {
	if l == nil {
		return true, nil
	}
	key := fmt.Sprintf(keyVisitIngestTenant, tenantID.String())
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}

// AcquireCustomerLock holds a short lock per (tenant, customer); a second
// submit inside the TTL is rejected as a duplicate.
func (l *VisitIngestLimiter) AcquireCustomerLock(ctx context.Context, tenantID snowflake.ID, customerID string) (func(), bool, error) {
	if l == nil || l.lockTTL <= 0 {
		return func() {}, true, nil
	}
	key := fmt.Sprintf(keyVisitIngestLock, tenantID.String(), customerID)
	token, ok, err := l.locker.TryLock(ctx, key, l.lockTTL)
	if err != nil || !ok {
		return func() {}, ok, err
	}
	return func() {
		_ = l.locker.Release(context.WithoutCancel(ctx), key, token)
	}, true, nil
}
