// Package service ties the loan engine to persistence and caching.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/iwvelando/credit-calculator/internal/cache"
	"github.com/iwvelando/credit-calculator/internal/storage"
	"github.com/iwvelando/credit-calculator/pkg/constants"
	"github.com/iwvelando/credit-calculator/pkg/loans"
	"go.uber.org/zap"
)

// CreditService runs calculations and manages stored ones.
type CreditService struct {
	calculator *loans.Calculator
	repo       storage.Repository
	cache      cache.Cache
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewCreditService builds a service over repo. A nil cache disables caching.
func NewCreditService(repo storage.Repository, c cache.Cache, cacheTTL time.Duration, logger *zap.Logger) *CreditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		c = cache.NopCache{}
	}
	return &CreditService{
		calculator: loans.NewCalculator(logger),
		repo:       repo,
		cache:      c,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// Calculate returns the full result for req, serving it from the cache when
// possible. Cache failures are logged and otherwise ignored.
func (s *CreditService) Calculate(ctx context.Context, req loans.Request) (loans.Result, error) {
	key := cache.CalculationKey(req)

	data, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.logger.Warn("cache lookup failed",
			zap.String("op", "service.Calculate"),
			zap.String("key", key),
			zap.Error(err),
		)
	case ok:
		var cached loans.Result
		if err := json.Unmarshal(data, &cached); err == nil {
			s.logger.Debug("cache hit", zap.String("op", "service.Calculate"), zap.String("key", key))
			return cached, nil
		}
		s.logger.Warn("discarding unreadable cache entry",
			zap.String("op", "service.Calculate"),
			zap.String("key", key),
		)
	}

	result, err := s.calculator.Calculate(req)
	if err != nil {
		return loans.Result{}, err
	}

	if encoded, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(ctx, key, encoded, s.cacheTTL); err != nil {
			s.logger.Warn("cache store failed",
				zap.String("op", "service.Calculate"),
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
	return result, nil
}

// Create calculates req and stores a snapshot of the outcome with meta.
// Amounts are first rounded to the stored precision so that Schedule
// reproduces the saved installment.
func (s *CreditService) Create(ctx context.Context, req loans.Request, meta storage.Metadata) (*storage.Record, error) {
	result, err := s.Calculate(ctx, storage.StoredRequest(req))
	if err != nil {
		return nil, err
	}

	record := storage.NewRecord(result, meta)
	if err := s.repo.Save(ctx, &record); err != nil {
		return nil, err
	}

	s.logger.Info("calculation saved",
		zap.String("op", "service.Create"),
		zap.Uint("id", record.ID),
		zap.Float64("monthly_payment", result.MonthlyPayment),
	)
	return &record, nil
}

// Get returns the stored calculation with the given id.
func (s *CreditService) Get(ctx context.Context, id uint) (*storage.Record, error) {
	return s.repo.Find(ctx, id)
}

// Schedule recomputes the full result, schedule included, from the inputs
// of a stored calculation.
func (s *CreditService) Schedule(ctx context.Context, id uint) (loans.Result, error) {
	record, err := s.repo.Find(ctx, id)
	if err != nil {
		return loans.Result{}, err
	}
	return s.Calculate(ctx, record.Request())
}

// List returns one page of stored calculations, newest first.
func (s *CreditService) List(ctx context.Context, page int) (storage.Page, error) {
	return s.repo.List(ctx, page, constants.DefaultPerPage)
}

// UpdateMetadata changes the labels of a stored calculation.
func (s *CreditService) UpdateMetadata(ctx context.Context, id uint, meta storage.Metadata) (*storage.Record, error) {
	record, err := s.repo.UpdateMetadata(ctx, id, meta)
	if err != nil {
		return nil, err
	}
	s.logger.Info("calculation updated", zap.String("op", "service.UpdateMetadata"), zap.Uint("id", id))
	return record, nil
}

// Delete removes a stored calculation.
func (s *CreditService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("calculation deleted", zap.String("op", "service.Delete"), zap.Uint("id", id))
	return nil
}

// IsNotFound reports whether err means the calculation does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
