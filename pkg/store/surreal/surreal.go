// Package surreal implements the [github.com/modelarena/modelarena/pkg/store.Store]
// facade on SurrealDB using native SurrealQL.
//
// This is the document side of the migration: legacy deployments keep running
// here until their data moves to the relational backend. Entities store as
// documents in the tables profiles, comparison_sessions, files,
// scoring_templates and transactions, with the same field names the
// relational schema uses so a record migrates without translation.
//
// The connection uses the surrealcbor codec rather than default marshaling.
// SurrealDB speaks CBOR internally; the codec keeps time.Time values in the
// native datetime format and lets the typed IDs marshal straight to
// RecordIDs (CBOR tag 8).
//
// Every query is parameterized with $name placeholders. Values never
// interpolate into query strings; the only formatted-in pieces are integer
// limits and field names originating in this package.
//
// Counter mutations run as single UPDATE statements using SurrealQL
// expressions, math::max(token_balance + $delta, 0) for the clamped balance,
// so concurrent writers cannot interleave between a read and a write.
package surreal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/modelarena/modelarena/pkg/store"
)

// Table names. The typed ID RecordID() methods must agree with these.
const (
	tableProfiles     = "profiles"
	tableSessions     = "comparison_sessions"
	tableFiles        = "files"
	tableTemplates    = "scoring_templates"
	tableTransactions = "transactions"
)

// Store implements store.Store on SurrealDB.
type Store struct {
	db     *surrealdb.DB
	ns     string
	dbName string
	policy store.Policy
}

// New connects to SurrealDB over WebSocket and returns the document backend.
func New(wsURL, namespace, database, username, password string, policy store.Policy) (*Store, error) {
	ctx := context.Background()

	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SurrealDB URL: %w", err)
	}

	conf := connection.NewConfig(u)
	// The surrealcbor codec keeps datetimes and RecordIDs in SurrealDB's
	// native format; default marshaling does not.
	codec := surrealcbor.New()
	conf.Marshaler = codec
	conf.Unmarshaler = codec

	conn := gorillaws.New(conf)
	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if username != "" && password != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": username,
			"pass": password,
		}); err != nil {
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := db.Use(ctx, namespace, database); err != nil {
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}

	return &Store{db: db, ns: namespace, dbName: database, policy: policy}, nil
}

// Migrate defines the unique indexes the facade relies on. SurrealDB creates
// tables implicitly on first insert; only the constraints need declaring.
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		"DEFINE INDEX IF NOT EXISTS idx_profiles_email ON TABLE profiles FIELDS email UNIQUE",
		"DEFINE INDEX IF NOT EXISTS idx_files_file_id ON TABLE files FIELDS file_id UNIQUE",
		"DEFINE INDEX IF NOT EXISTS idx_sessions_user ON TABLE comparison_sessions FIELDS user_id",
		"DEFINE INDEX IF NOT EXISTS idx_templates_user ON TABLE scoring_templates FIELDS user_id",
		"DEFINE INDEX IF NOT EXISTS idx_transactions_user ON TABLE transactions FIELDS user_id",
	}
	for _, stmt := range statements {
		if _, err := surrealdb.Query[any](ctx, s.db, stmt, nil); err != nil {
			return mapError("Migrate", err)
		}
	}
	return nil
}

// Close closes the WebSocket connection.
func (s *Store) Close() error {
	return s.db.Close(context.Background())
}

// isNotFound reports whether err is the client's way of saying a single
// select matched nothing.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Expected a single or multiple results but got 0") ||
		strings.Contains(msg, "cannot unmarshal array into Go value")
}

// mapError translates a SurrealDB error into the facade taxonomy. The client
// surfaces query failures as strings, so classification is by message.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "already contains") || strings.Contains(msg, "index") && strings.Contains(msg, "unique"):
		return store.NewError(store.ErrCodeDuplicateKey, op+": duplicate key", err)
	case strings.Contains(msg, "Not enough permissions") || strings.Contains(msg, "IAM error"):
		return store.NewError(store.ErrCodePermissionDenied, op+": permission denied", err)
	}
	return store.NewError(store.ErrCodeDatabase, op+" failed", err)
}

// queryRows runs a parameterized query and returns the first statement's
// result rows.
func queryRows[T any](ctx context.Context, s *Store, query string, params map[string]any) ([]T, error) {
	res, err := surrealdb.Query[[]T](ctx, s.db, query, params)
	if err != nil {
		return nil, err
	}
	if res == nil || len(*res) == 0 {
		return nil, nil
	}
	return (*res)[0].Result, nil
}

// queryOne runs a parameterized query expected to match at most one row.
func queryOne[T any](ctx context.Context, s *Store, query string, params map[string]any) (*T, error) {
	rows, err := queryRows[T](ctx, s, query, params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
