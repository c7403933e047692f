package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/tutorledger/internal/config"
	"go.uber.org/fx"
)

const (
	keyPaymentQuoteOrg  = "payment:quote:org:%s"
	keyCoverageSaveLock = "invoice:coverage:lock:%s:%s"
)

// QuoteLimiter guards the interactive payment quote endpoint, which the
// payment modal calls on every keystroke, and serializes coverage saves
// for the same invoice.
type QuoteLimiter struct {
	enabled bool

	bucket *TokenBucket
	locker *Locker

	quoteRate  float64
	quoteBurst int
	lockTTL    time.Duration
}

func NewQuoteLimiter(lc fx.Lifecycle, cfg config.Config) (*QuoteLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.QuoteRate <= 0 || limitCfg.QuoteBurst <= 0 {
		return nil, errors.New("payment quote rate limit must be positive")
	}
	if limitCfg.CoverageLockTTLSeconds <= 0 {
		return nil, errors.New("coverage lock ttl must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	return &QuoteLimiter{
		enabled:    true,
		bucket:     NewTokenBucket(client),
		locker:     NewLocker(client),
		quoteRate:  limitCfg.QuoteRate,
		quoteBurst: limitCfg.QuoteBurst,
		lockTTL:    time.Duration(limitCfg.CoverageLockTTLSeconds) * time.Second,
	}, nil
}

func (l *QuoteLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *QuoteLimiter) AllowQuote(ctx context.Context, orgID string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyPaymentQuoteOrg, strings.TrimSpace(orgID)), l.quoteRate, l.quoteBurst)
}

func (l *QuoteLimiter) TryLockInvoiceCoverage(ctx context.Context, orgID, invoiceID string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	key := fmt.Sprintf(keyCoverageSaveLock, strings.TrimSpace(orgID), strings.TrimSpace(invoiceID))
	return l.locker.TryLock(ctx, key, l.lockTTL)
}

func (l *QuoteLimiter) ReleaseInvoiceCoverage(ctx context.Context, orgID, invoiceID, token string) error {
	if !l.Enabled() {
		return nil
	}
	key := fmt.Sprintf(keyCoverageSaveLock, strings.TrimSpace(orgID), strings.TrimSpace(invoiceID))
	return l.locker.Release(ctx, key, token)
}
