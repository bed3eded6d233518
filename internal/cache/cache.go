// Package cache stores computed calculation results keyed by their inputs.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/iwvelando/credit-calculator/internal/config"
	"github.com/iwvelando/credit-calculator/pkg/constants"
	"github.com/iwvelando/credit-calculator/pkg/loans"
	"go.uber.org/zap"
)

const keyPrefix = "credit:calculation:"

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// CalculationKey returns the cache key for a calculation request. Requests
// that differ in any input never share a key.
func CalculationKey(req loans.Request) string {
	return keyPrefix +
		strconv.FormatFloat(req.Principal, 'f', -1, 64) + ":" +
		strconv.FormatFloat(req.AnnualRatePercent, 'f', -1, 64) + ":" +
		strconv.Itoa(req.TermMonths)
}

// New builds the cache selected by cfg.Driver.
func New(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Driver {
	case "", constants.CacheDriverNone:
		return NopCache{}, nil
	case constants.CacheDriverMemory:
		logger.Info("using in-memory calculation cache", zap.Duration("ttl", cfg.TTL))
		return NewMemoryCache(), nil
	case constants.CacheDriverRedis:
		c, err := NewRedisCache(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("using redis calculation cache",
			zap.String("address", cfg.Address),
			zap.Int("db", cfg.DB),
			zap.Duration("ttl", cfg.TTL),
		)
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Driver)
	}
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NopCache) Close() error { return nil }
