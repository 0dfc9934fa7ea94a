// Package postgres implements the primary store client on PostgreSQL with
// GORM. The primary store is authoritative: it assigns identifiers on insert
// and enforces referential integrity, and the dual-store adapter never treats
// the mirror as a source of truth for reads.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/salonsync/salonsync/pkg/models"
	"github.com/salonsync/salonsync/pkg/store"
)

// Store owns the database handle. Repositories share it; the handle is safe
// for concurrent use.
type Store struct {
	db *gorm.DB
}

// Open connects to PostgreSQL. Connection pooling is left to GORM defaults.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Store{db: db}, nil
}

// Migrate creates or updates the schema for every salon entity. AutoMigrate
// only adds missing elements, so it is safe to run repeatedly.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Stylist{},
		&models.Profile{},
		&models.Appointment{},
		&models.Earning{},
		&models.ServiceOffering{},
	)
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Repository is the primary store client for one entity type. The entity
// binding happens at construction, mirroring how each HTTP prefix is bound to
// a model/table pair.
type Repository[T any] struct {
	db *gorm.DB
}

func NewRepository[T any](s *Store) *Repository[T] {
	return &Repository[T]{db: s.db}
}

// Insert persists a new record. PostgreSQL assigns the identifier; GORM
// writes it back into rec.
func (r *Repository[T]) Insert(ctx context.Context, rec *T) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// FindAll returns every record of the entity's table.
func (r *Repository[T]) FindAll(ctx context.Context) ([]T, error) {
	var recs []T
	err := r.db.WithContext(ctx).Find(&recs).Error
	return recs, err
}

// FindByID returns the record for id, or nil without error when absent.
func (r *Repository[T]) FindByID(ctx context.Context, id int64) (*T, error) {
	var rec T
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// UpdateByID applies the patch to the record with id and reports how many
// rows changed. GORM maintains updated_at alongside the patched columns.
func (r *Repository[T]) UpdateByID(ctx context.Context, id int64, patch map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(patch)
	return res.RowsAffected, res.Error
}

// DeleteByID removes the record with id and reports how many rows went away.
func (r *Repository[T]) DeleteByID(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).Delete(new(T), "id = ?", id)
	return res.RowsAffected, res.Error
}

// FindWhere evaluates the filter with PostgreSQL's native semantics:
// substring predicates become case-insensitive ILIKE containment. Filter keys
// come from the recognized-parameter whitelist, so splicing them into the
// query text is safe.
func (r *Repository[T]) FindWhere(ctx context.Context, f store.Filter) ([]T, error) {
	tx := r.db.WithContext(ctx).Model(new(T))
	for field, m := range f {
		if m.Substring {
			tx = tx.Where(fmt.Sprintf("%s ILIKE ?", field), "%"+m.Value+"%")
		} else {
			tx = tx.Where(fmt.Sprintf("%s = ?", field), m.Value)
		}
	}
	var recs []T
	err := tx.Find(&recs).Error
	return recs, err
}
