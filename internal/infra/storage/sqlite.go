package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"backtest_go/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const saveBatchSize = 500

// Storage is the SQLite tick store.
type Storage struct {
	db *gorm.DB
}

var _ domain.TickRepository = (*Storage)(nil)

// NewStorage opens (or creates) the SQLite database at dbPath
func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		return nil, errors.New("storage: empty database path")
	}

	// Ensure directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(&domain.TickRecord{}, &domain.AppConfig{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ======================================================================================
// Tick Operations
// ======================================================================================

// SaveTicks appends ticks in batches inside one transaction.
func (s *Storage) SaveTicks(ctx context.Context, ticks []domain.MarketDataPoint) error {
	if len(ticks) == 0 {
		return nil
	}
	rows := make([]domain.TickRecord, len(ticks))
	for i, t := range ticks {
		rows[i] = domain.NewTickRecord(t)
	}
	if err := s.db.WithContext(ctx).CreateInBatches(rows, saveBatchSize).Error; err != nil {
		return fmt.Errorf("save %d ticks: %w", len(ticks), err)
	}
	return nil
}

// LoadTicks returns stored ticks ordered by time, then insertion order.
// With no symbols every tick is returned.
func (s *Storage) LoadTicks(ctx context.Context, symbols ...string) ([]domain.MarketDataPoint, error) {
	var rows []domain.TickRecord
	q := s.db.WithContext(ctx).Order("ts_nano ASC").Order("id ASC")
	if len(symbols) > 0 {
		q = q.Where("symbol IN ?", symbols)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load ticks: %w", err)
	}

	ticks := make([]domain.MarketDataPoint, len(rows))
	for i, r := range rows {
		ticks[i] = r.Point()
	}
	return ticks, nil
}

// CountTicks returns the number of stored ticks.
func (s *Storage) CountTicks(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domain.TickRecord{}).Count(&n).Error
	return n, err
}

// DeleteTicks removes all ticks for the given symbols, or every tick when none are given.
func (s *Storage) DeleteTicks(ctx context.Context, symbols ...string) (int64, error) {
	q := s.db.WithContext(ctx)
	if len(symbols) > 0 {
		q = q.Where("symbol IN ?", symbols)
	} else {
		q = q.Where("1 = 1")
	}
	res := q.Delete(&domain.TickRecord{})
	return res.RowsAffected, res.Error
}

// ======================================================================================
// Config Operations
// ======================================================================================

// SaveConfig upserts a key-value setting
func (s *Storage) SaveConfig(key, value string) error {
	config := domain.AppConfig{
		Key:   key,
		Value: value,
	}
	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&config).Error
}

// LoadConfigMap loads all settings as a map
func (s *Storage) LoadConfigMap() (map[string]string, error) {
	var configs []domain.AppConfig
	if err := s.db.Find(&configs).Error; err != nil {
		return nil, err
	}

	result := make(map[string]string)
	for _, cfg := range configs {
		result[cfg.Key] = cfg.Value
	}
	return result, nil
}
