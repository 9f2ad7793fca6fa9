package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/modelarena/modelarena/pkg/models"
	"github.com/modelarena/modelarena/pkg/store"
)

// newMockStore backs the GORM handle with go-sqlmock so adapter behavior can
// be tested without a database. Default transactions are skipped to keep the
// expectations on the statements themselves.
func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: conn}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewWithDB(db, store.DefaultPolicy()), mock
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError("Op", nil))

	err := mapError("CreateProfile", &pgconn.PgError{Code: pgUniqueViolation})
	assert.True(t, errors.Is(err, store.ErrDuplicateKey))

	err = mapError("CreateFile", &pgconn.PgError{Code: pgForeignKeyViolation})
	assert.True(t, errors.Is(err, store.ErrForeignKey))

	err = mapError("ListFiles", &pgconn.PgError{Code: pgInsufficientPrivs})
	assert.True(t, errors.Is(err, store.ErrPermissionDenied))

	err = mapError("GetProfile", gorm.ErrRecordNotFound)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	err = mapError("ListSessions", errors.New("connection reset"))
	assert.True(t, errors.Is(err, store.ErrDatabase))

	// Taxonomy errors pass through unchanged.
	typed := store.NewError(store.ErrCodeNotFound, "already mapped", nil)
	assert.Equal(t, error(typed), mapError("Op", typed))
}

func TestCursorRoundTrip(t *testing.T) {
	ts := time.Date(2026, 8, 1, 9, 30, 0, 123456789, time.UTC)
	parsed, err := parseCursor(cursorValue(ts))
	require.NoError(t, err)
	assert.True(t, ts.Equal(parsed))
}

func TestParseCursorInvalid(t *testing.T) {
	_, err := parseCursor("yesterday")
	require.Error(t, err)
	assert.Equal(t, store.ErrCodeDatabase, store.CodeOf(err))
}

func TestApplyFiltersSQL(t *testing.T) {
	s, _ := newMockStore(t)

	tx := s.db.Session(&gorm.Session{DryRun: true}).Model(&models.Profile{})
	tx = applyFilters(tx, []store.Filter{
		store.Equals("email", "a@b.c"),
		store.NotEquals("plan", "free"),
		store.In("role", []string{"user", "admin"}),
		store.IsNull("deleted_at"),
		store.NotNull("last_refill"),
		store.Gte("token_balance", 10),
	})

	var out []models.Profile
	sql := tx.Find(&out).Statement.SQL.String()
	assert.Contains(t, sql, "email = $")
	assert.Contains(t, sql, "plan <> $")
	assert.Contains(t, sql, "role IN ($")
	assert.Contains(t, sql, "deleted_at IS NULL")
	assert.Contains(t, sql, "last_refill IS NOT NULL")
	assert.Contains(t, sql, "token_balance >= $")
}

func TestApplyOptionsSQL(t *testing.T) {
	s, _ := newMockStore(t)

	tx := s.db.Session(&gorm.Session{DryRun: true}).Model(&models.StoredFile{})
	tx = applyOptions(tx, store.Options{Sort: "created_at:desc", Limit: 10, Offset: 20})

	var out []models.StoredFile
	sql := tx.Find(&out).Statement.SQL.String()
	assert.Contains(t, sql, "ORDER BY created_at DESC")
	assert.Contains(t, sql, "LIMIT $")
	assert.Contains(t, sql, "OFFSET $")
}

func TestGetProfileMissReturnsNilNil(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "profiles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	profile, err := s.GetProfile(context.Background(), models.NewProfileID())
	require.NoError(t, err)
	assert.Nil(t, profile)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfileHit(t *testing.T) {
	s, mock := newMockStore(t)
	id := models.NewProfileID()

	mock.ExpectQuery(`SELECT \* FROM "profiles"`).
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "plan", "token_balance"}).
			AddRow(id.String(), "a@b.c", "free", 42.5))

	profile, err := s.GetProfile(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, id, profile.ID)
	assert.Equal(t, "a@b.c", profile.Email)
	assert.Equal(t, 42.5, profile.TokenBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProfileDuplicateEmail(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO "profiles"`).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	_, err := s.CreateProfile(context.Background(), &models.Profile{Email: "a@b.c"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrDuplicateKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementComparisonCountAtomicStatement(t *testing.T) {
	s, mock := newMockStore(t)

	// The counter must move inside the UPDATE expression, not through a
	// read-modify-write cycle.
	mock.ExpectExec(`UPDATE "profiles" SET .*comparison_count.*comparison_count.*\+ 1`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.IncrementComparisonCount(context.Background(), models.NewProfileID()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBalanceClampsInStatement(t *testing.T) {
	s, mock := newMockStore(t)
	id := models.NewProfileID()

	mock.ExpectExec(`UPDATE "profiles" SET .*GREATEST\(token_balance \+ \$\d+, 0\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT "token_balance","tokens_compared" FROM "profiles"`).
		WillReturnRows(sqlmock.NewRows([]string{"token_balance", "tokens_compared"}).
			AddRow(0.0, int64(1200)))

	balance, err := s.UpdateBalance(context.Background(), id, -5000, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance.TokenBalance)
	assert.Equal(t, int64(1200), balance.TokensCompared)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBalanceMissingProfile(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE "profiles"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := s.UpdateBalance(context.Background(), models.NewProfileID(), 100, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEmptySessions(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM "comparison_sessions"`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	count, err := s.DeleteEmptySessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
