// Package postgres implements the [github.com/modelarena/modelarena/pkg/store.Store]
// facade on PostgreSQL using GORM.
//
// This is the relational side of the migration: the schema maps each entity
// to a table, with JSONB columns for the parts that stay document-shaped
// (session responses, file metadata, template criteria, profile
// preferences). Filters arrive as the facade's tagged variants and are
// translated to WHERE clauses in one place; see [applyFilters].
//
// Counter mutations never read-modify-write. Balance, usage and comparison
// counters update through single statements built on SQL expressions such as
// GREATEST(token_balance + ?, 0), so concurrent writers cannot interleave
// between a read and a write.
//
// Driver errors are mapped onto the facade's taxonomy before they leave this
// package: SQLSTATE 23505 becomes DUPLICATE_KEY, 23503 FOREIGN_KEY_VIOLATION,
// 42501 PERMISSION_DENIED, and everything else DATABASE_ERROR. Single-row
// lookups translate gorm.ErrRecordNotFound to (nil, nil).
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/modelarena/modelarena/pkg/models"
	"github.com/modelarena/modelarena/pkg/store"
)

// Store implements store.Store on PostgreSQL with GORM.
type Store struct {
	db     *gorm.DB
	policy store.Policy
}

// New connects to PostgreSQL and returns the relational backend.
func New(dsn string, policy store.Policy) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Store{db: db, policy: policy}, nil
}

// NewWithDB wraps an existing GORM handle. Used by tests that back the
// handle with a mock SQL driver.
func NewWithDB(db *gorm.DB, policy store.Policy) *Store {
	return &Store{db: db, policy: policy}
}

func (s *Store) getDB() *gorm.DB {
	return s.db
}

// Migrate creates or updates the schema with GORM's AutoMigrate. Safe to run
// at every startup; it only adds missing schema elements.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.Profile{},
		&models.ComparisonSession{},
		&models.StoredFile{},
		&models.ScoringTemplate{},
		&models.Transaction{},
	)
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SQLSTATE codes this backend classifies.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInsufficientPrivs   = "42501"
)

// mapError translates a driver error into the facade taxonomy. Callers pass
// the operation name for the message; the original error stays wrapped for
// the router's logs.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return store.NewError(store.ErrCodeDuplicateKey, op+": duplicate key", err)
		case pgForeignKeyViolation:
			return store.NewError(store.ErrCodeForeignKey, op+": foreign key violation", err)
		case pgInsufficientPrivs:
			return store.NewError(store.ErrCodePermissionDenied, op+": permission denied", err)
		}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.NewError(store.ErrCodeNotFound, op+": not found", err)
	}
	return store.NewError(store.ErrCodeDatabase, op+" failed", err)
}

// applyFilters translates the facade's tagged filter variants into WHERE
// clauses. Column names come from facade internals, never from user input.
func applyFilters(tx *gorm.DB, filters []store.Filter) *gorm.DB {
	for _, f := range filters {
		switch f.Op {
		case store.OpEquals:
			tx = tx.Where(fmt.Sprintf("%s = ?", f.Column), f.Value)
		case store.OpNotEquals:
			tx = tx.Where(fmt.Sprintf("%s <> ?", f.Column), f.Value)
		case store.OpIn:
			tx = tx.Where(fmt.Sprintf("%s IN ?", f.Column), f.Value)
		case store.OpIsNull:
			tx = tx.Where(fmt.Sprintf("%s IS NULL", f.Column))
		case store.OpNotNull:
			tx = tx.Where(fmt.Sprintf("%s IS NOT NULL", f.Column))
		case store.OpGte:
			tx = tx.Where(fmt.Sprintf("%s >= ?", f.Column), f.Value)
		case store.OpLte:
			tx = tx.Where(fmt.Sprintf("%s <= ?", f.Column), f.Value)
		}
	}
	return tx
}

// applyOptions applies projection, ordering and paging.
func applyOptions(tx *gorm.DB, opts store.Options) *gorm.DB {
	if len(opts.Select) > 0 {
		tx = tx.Select(opts.Select)
	}
	if column, desc := opts.SortColumn(); column != "" {
		dir := "ASC"
		if desc {
			dir = "DESC"
		}
		tx = tx.Order(fmt.Sprintf("%s %s", column, dir))
	}
	if opts.Limit > 0 {
		tx = tx.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		tx = tx.Offset(opts.Offset)
	}
	return tx
}

// cursorValue formats a row's sort timestamp as an opaque cursor.
func cursorValue(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseCursor decodes a cursor produced by cursorValue.
func parseCursor(cursor string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, cursor)
	if err != nil {
		return time.Time{}, store.NewError(store.ErrCodeDatabase, "invalid pagination cursor", err)
	}
	return t, nil
}
