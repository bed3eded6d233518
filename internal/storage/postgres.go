package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/credit-calculator/internal/config"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PostgresRepository stores records in PostgreSQL through gorm.
type PostgresRepository struct {
	db     *gorm.DB
	sqlDB  *sql.DB
	logger *zap.Logger
}

// OpenPostgres connects to PostgreSQL, applies migrations and returns a
// repository backed by the connection pool.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*PostgresRepository, error) {
	return openPostgres(ctx, cfg.DSN(), cfg, logger)
}

// openPostgres connects with dsn and takes pool settings from cfg.
func openPostgres(ctx context.Context, dsn string, cfg config.DatabaseConfig, logger *zap.Logger) (*PostgresRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to reach database %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	if err := Migrate(ctx, sqlDB, logger); err != nil {
		sqlDB.Close()
		return nil, err
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: NewGormLogger(logger),
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	logger.Info("connected to database",
		zap.String("op", "storage.OpenPostgres"),
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Name),
	)
	return &PostgresRepository{db: db, sqlDB: sqlDB, logger: logger}, nil
}

// Save inserts record and fills in its id and timestamps.
func (r *PostgresRepository) Save(ctx context.Context, record *Record) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to save calculation: %w", err)
	}
	return nil
}

// Find returns the record with the given id.
func (r *PostgresRepository) Find(ctx context.Context, id uint) (*Record, error) {
	var record Record
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load calculation %d: %w", id, err)
	}
	return &record, nil
}

// List returns one page of records, newest first.
func (r *PostgresRepository) List(ctx context.Context, page, perPage int) (Page, error) {
	page, perPage = normalizePaging(page, perPage)
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&Record{}).Count(&total).Error; err != nil {
		return Page{}, fmt.Errorf("failed to count calculations: %w", err)
	}

	var records []Record
	err := db.Order("created_at DESC").Order("id DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&records).Error
	if err != nil {
		return Page{}, fmt.Errorf("failed to list calculations: %w", err)
	}
	return newPage(records, page, perPage, total), nil
}

// UpdateMetadata changes the labels on an existing record.
func (r *PostgresRepository) UpdateMetadata(ctx context.Context, id uint, meta Metadata) (*Record, error) {
	var record Record
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&record, id).Error; err != nil {
			return err
		}
		if meta.Empty() {
			return nil
		}
		meta.Apply(&record)
		record.UpdatedAt = time.Now()
		return tx.Model(&record).Select("customer_name", "loan_type", "updated_at").Updates(&record).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update calculation %d: %w", id, err)
	}
	return &record, nil
}

// Delete removes the record with the given id.
func (r *PostgresRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&Record{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete calculation %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() error {
	return r.sqlDB.Close()
}
