package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tinylink-dev/tinylink/internal/app/model"
	"gorm.io/gorm"
)

// gormStore is the database-backed Store. It works against any GORM dialect
// the service is wired with (Postgres in production, SQLite for small
// deployments).
type gormStore struct {
	db *gorm.DB
}

// NewGormStore returns a Store backed by the given GORM connection.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Init(ctx context.Context) error {
	// AutoMigrate is a no-op when the table already exists, which makes
	// concurrent first use safe: the first caller creates, the rest observe.
	if err := s.db.WithContext(ctx).AutoMigrate(&model.Link{}); err != nil {
		return fmt.Errorf("store: migrate links: %w", wrapUnavailable(err))
	}
	return nil
}

func (s *gormStore) Query(ctx context.Context, f Filter) ([]model.Link, error) {
	q := s.db.WithContext(ctx).Model(&model.Link{}).Order("created_at DESC")
	if f.Code != nil {
		q = q.Where("code = ?", *f.Code)
	}
	if f.TargetURL != nil {
		q = q.Where("target_url = ?", *f.TargetURL)
	}

	var links []model.Link
	if err := q.Find(&links).Error; err != nil {
		return nil, wrapUnavailable(err)
	}
	return links, nil
}

func (s *gormStore) Insert(ctx context.Context, link *model.Link) error {
	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return wrapUnavailable(err)
	}
	return nil
}

func (s *gormStore) RecordClick(ctx context.Context, code string, at time.Time) error {
	// A single UPDATE with a server-side increment; concurrent visits must
	// not lose counts, so no read-modify-write here.
	result := s.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("code = ?", code).
		Updates(map[string]interface{}{
			"clicks":       gorm.Expr("clicks + 1"),
			"last_clicked": at,
		})
	if result.Error != nil {
		return wrapUnavailable(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) Delete(ctx context.Context, code string) error {
	if err := s.db.WithContext(ctx).Where("code = ?", code).Delete(&model.Link{}).Error; err != nil {
		return wrapUnavailable(err)
	}
	return nil
}

func (s *gormStore) Ping(ctx context.Context) (time.Time, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return time.Time{}, wrapUnavailable(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return time.Time{}, wrapUnavailable(err)
	}
	return time.Now(), nil
}

// isUniqueViolation recognizes a duplicate-key failure from either dialect.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// SQLite reports constraint failures as plain strings.
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

func wrapUnavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
