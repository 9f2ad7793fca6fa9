// Package store defines the data persistence facade for the modelarena
// application.
//
// The [Store] interface is implemented twice, once per backend involved in
// the ongoing database migration:
//
//   - [github.com/modelarena/modelarena/pkg/store/postgres.Store]: the
//     relational backend, PostgreSQL via GORM. New deployments run here.
//   - [github.com/modelarena/modelarena/pkg/store/surreal.Store]: the
//     document backend, SurrealDB via the official client with the CBOR
//     codec. Legacy deployments run here until their data is migrated.
//
// [github.com/modelarena/modelarena/pkg/store/route.Router] wraps whichever
// backend the configured mode selects. The binding happens exactly once at
// process start and never changes for the life of the process; there is no
// hot switching and no dual-write.
//
// # Contract shared by both backends
//
// Single-row lookups (Get*, Find*) return (nil, nil) when no row matches.
// An error always means the query itself failed, never that the row is
// missing. List operations return empty slices, never nil.
//
// Every create and update stamps UpdatedAt, including no-op updates.
//
// Counter mutations (token balance, comparison count, file usage, template
// usage) execute as single atomic statements in the backend. Implementations
// must not read-modify-write counters.
//
// All errors cross the facade as [*Error] values carrying a stable
// [ErrorCode]; callers never see driver error types.
//
// Listings paginate with [PageFromRows]; see [Page] for the cursor
// semantics.
package store

import (
	"context"
	"time"

	"github.com/modelarena/modelarena/pkg/models"
)

// SessionPage is one cursor window of a session listing. Sessions serialize
// with their legacy aliases (conversationId, user) for wire compatibility.
type SessionPage = Page[*models.ComparisonSession]

// SessionSaveOptions qualifies a SaveSession call.
type SessionSaveOptions struct {
	// NewSessionID, when set, renames the session: the row is written under
	// this ID instead of the one on the entity. New ID wins over old.
	NewSessionID models.SessionID
	// IsTemporary marks the session ephemeral; the save stamps
	// ExpiredAt = now + Retention. A save with IsTemporary false clears any
	// existing expiry, returning the session to permanence.
	IsTemporary bool
	// Retention is the ephemeral lifetime. Zero falls back to the backend's
	// configured default (24h unless overridden).
	Retention time.Duration
}

// ListSessionsParams filters and pages a session listing.
type ListSessionsParams struct {
	Cursor     string
	Limit      int
	IsArchived *bool
	Tags       []string
	Search     string
	// Order is "asc" or "desc" on UpdatedAt; empty means "desc".
	Order string
}

// SessionDeleteFilter scopes DeleteSessions. An empty filter deletes all of
// the user's sessions.
type SessionDeleteFilter struct {
	SessionIDs []models.SessionID
	Endpoint   string
}

// Sessions is the comparison-session surface of the facade. Responses are
// not independent rows; they live in the session's embedded response list
// and every response operation rewrites that list through a session save.
type Sessions interface {
	// SaveSession upserts a session for the user. An existing target ID
	// updates the row in place; an absent one inserts. First-time creation
	// also increments the profile's comparison counter atomically.
	SaveSession(ctx context.Context, userID models.ProfileID, session *models.ComparisonSession, opts SessionSaveOptions) (*models.ComparisonSession, error)

	// BulkSaveSessions upserts a batch by ID, used by the import pipeline.
	BulkSaveSessions(ctx context.Context, userID models.ProfileID, sessions []*models.ComparisonSession) error

	// GetSession returns the user's session, or nil when the user has no
	// session with that ID.
	GetSession(ctx context.Context, userID models.ProfileID, id models.SessionID) (*models.ComparisonSession, error)

	// SearchSession is the ID-only existence probe: it looks the session up
	// without a user scope. Nil when absent.
	SearchSession(ctx context.Context, id models.SessionID) (*models.ComparisonSession, error)

	// GetSessionTitle returns the session's title, or "" when the session
	// does not exist.
	GetSessionTitle(ctx context.Context, userID models.ProfileID, id models.SessionID) (string, error)

	// GetSessionFiles returns the external file IDs attached to the session.
	// Empty slice when the session is absent or has no files.
	GetSessionFiles(ctx context.Context, id models.SessionID) ([]string, error)

	// ListSessions pages through the user's live sessions, newest first.
	// Expired sessions never appear.
	ListSessions(ctx context.Context, userID models.ProfileID, params ListSessionsParams) (*SessionPage, error)

	// ListSessionsByIDs is ListSessions restricted to an ID set, sharing the
	// same cursor algorithm.
	ListSessionsByIDs(ctx context.Context, userID models.ProfileID, ids []models.SessionID, params ListSessionsParams) (*SessionPage, error)

	// DeleteSessions removes the user's sessions matching the filter and
	// returns the count removed.
	DeleteSessions(ctx context.Context, userID models.ProfileID, filter SessionDeleteFilter) (int64, error)

	// DeleteEmptySessions is the cleanup pass removing sessions with no
	// title and no responses, across all users.
	DeleteEmptySessions(ctx context.Context) (int64, error)

	// PurgeExpiredSessions removes sessions whose retention window has
	// passed. Listings already hide them; this reclaims the rows.
	PurgeExpiredSessions(ctx context.Context) (int64, error)

	// GetResponse returns one response from the user's session, nil when
	// either the session or the response is absent.
	GetResponse(ctx context.Context, userID models.ProfileID, sessionID models.SessionID, responseID string) (*models.Response, error)

	// SaveResponse replaces the response with a matching ID in the session's
	// list, or appends when no ID matches, then resaves the session.
	SaveResponse(ctx context.Context, userID models.ProfileID, sessionID models.SessionID, response models.Response) error

	// ListResponses returns the session's embedded response list in order.
	ListResponses(ctx context.Context, userID models.ProfileID, sessionID models.SessionID) ([]models.Response, error)

	// DeleteResponses drops the named responses from the session's list and
	// returns how many were removed.
	DeleteResponses(ctx context.Context, userID models.ProfileID, sessionID models.SessionID, responseIDs []string) (int64, error)
}

// FileUpdate is a partial update of a stored file; nil fields are untouched.
// Applying any update marks the file permanent (clears ExpiresAt).
type FileUpdate struct {
	Filename *string
	Filepath *string
	Type     *string
	Context  *string
	Source   *string
	Bytes    *int64
	Embedded *bool
	// Metadata replaces the whole bag when non-nil.
	Metadata models.JSONMap
}

// FileFilter scopes ListFiles.
type FileFilter struct {
	UserID  *models.ProfileID
	FileIDs []string
	Context string
	Source  string
	Sort    string
	Limit   int
}

// FilePathUpdate is one entry of a BatchUpdateFilePaths call.
type FilePathUpdate struct {
	FileID   string
	Filepath string
}

// Files is the stored-file surface. Files are addressed by their external
// file ID (the upload pipeline's identifier), not the row key.
type Files interface {
	// CreateFile upserts by external file ID. A fresh create sets
	// ExpiresAt one hour out unless disableTTL; re-creating an existing
	// file ID overwrites the row.
	CreateFile(ctx context.Context, file *models.StoredFile, disableTTL bool) (*models.StoredFile, error)

	// UpdateFile applies a partial update and marks the file permanent.
	UpdateFile(ctx context.Context, fileID string, update FileUpdate) (*models.StoredFile, error)

	// TouchFileUsage atomically adds inc to the usage counter, marks the
	// file permanent, and drops the temporary-ID marker from metadata.
	TouchFileUsage(ctx context.Context, fileID string, inc int64) (*models.StoredFile, error)

	// FindFile returns the file, or nil when absent.
	FindFile(ctx context.Context, fileID string) (*models.StoredFile, error)

	// ListFiles returns files matching the filter, newest first by default.
	ListFiles(ctx context.Context, filter FileFilter) ([]*models.StoredFile, error)

	// ListToolFiles returns the subset of fileIDs usable by the named tool
	// resource (matched against the file context).
	ListToolFiles(ctx context.Context, fileIDs []string, toolResource string) ([]*models.StoredFile, error)

	// DeleteFile removes one file by external ID.
	DeleteFile(ctx context.Context, fileID string) error

	// DeleteFiles removes files by external IDs, or every file of userID
	// when the ID list is empty and userID is set. Returns the count.
	DeleteFiles(ctx context.Context, fileIDs []string, userID *models.ProfileID) (int64, error)

	// BatchUpdateFilePaths rewrites file paths concurrently and returns how
	// many updates succeeded. Partial failure is tolerated; the error is
	// non-nil only when every update failed.
	BatchUpdateFilePaths(ctx context.Context, updates []FilePathUpdate) (int, error)
}

// TemplateSaveOptions qualifies a SaveTemplate call. MakeDefault is
// tri-state: true promotes the template to the user's single default
// (clearing the flag and rank on every other template in the same atomic
// operation), false demotes it, nil leaves the flag alone.
type TemplateSaveOptions struct {
	MakeDefault *bool
}

// TemplateFilter scopes ListTemplates.
type TemplateFilter struct {
	Category      string
	IncludePublic bool
}

// Templates is the scoring-template surface.
type Templates interface {
	// SaveTemplate updates by ID or legacy preset ID when either matches,
	// inserts otherwise. See TemplateSaveOptions for default handling.
	SaveTemplate(ctx context.Context, template *models.ScoringTemplate, opts TemplateSaveOptions) (*models.ScoringTemplate, error)

	// GetTemplate looks up by row ID or legacy preset ID, whichever is set.
	// Nil when absent.
	GetTemplate(ctx context.Context, userID models.ProfileID, id models.TemplateID, presetID string) (*models.ScoringTemplate, error)

	// ListTemplates returns the user's templates ranked by Order then
	// recency; templates without a rank sort last.
	ListTemplates(ctx context.Context, userID models.ProfileID, filter TemplateFilter) ([]*models.ScoringTemplate, error)

	// ListPublicTemplates returns public templates, most used first.
	ListPublicTemplates(ctx context.Context, limit int) ([]*models.ScoringTemplate, error)

	// DeleteTemplates removes the user's templates by ID; an empty ID list
	// removes all of them. Returns the count.
	DeleteTemplates(ctx context.Context, userID models.ProfileID, ids []models.TemplateID) (int64, error)

	// IncrementTemplateUsage atomically bumps the usage counter.
	IncrementTemplateUsage(ctx context.Context, id models.TemplateID) error
}

// Balance is the result of a balance mutation: the counters as they stand
// after the statement.
type Balance struct {
	TokenBalance   float64 `json:"tokenCredits"`
	TokensCompared int64   `json:"tokensCompared"`
}

// Profiles is the user-profile surface.
type Profiles interface {
	// FindProfile returns the first profile matching the filters, with an
	// optional field projection. Nil when nothing matches.
	FindProfile(ctx context.Context, filters []Filter, fields []string) (*models.Profile, error)

	// GetProfile returns the profile, or nil when absent.
	GetProfile(ctx context.Context, id models.ProfileID) (*models.Profile, error)

	// CreateProfile inserts the profile row created at signup.
	CreateProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error)

	// UpdateProfile applies a partial update. Dotted keys address into the
	// preferences bag: {"preferences.theme": "dark"} merges the theme key
	// into Preferences instead of replacing the whole map.
	UpdateProfile(ctx context.Context, id models.ProfileID, updates map[string]any) (*models.Profile, error)

	// DeleteProfile removes a profile. Soft deletion stamps DeletedAt,
	// scrambles the email to a tombstone address and clears the username so
	// both unique slots free up; hard deletion removes the row.
	DeleteProfile(ctx context.Context, id models.ProfileID, hard bool) error

	// CountProfiles counts profiles matching the filters.
	CountProfiles(ctx context.Context, filters []Filter) (int64, error)

	// ListProfilesByIDs returns the profiles for the given IDs, skipping
	// missing ones.
	ListProfilesByIDs(ctx context.Context, ids []models.ProfileID) ([]*models.Profile, error)

	// SearchProfiles matches the query case-insensitively against email,
	// username and name.
	SearchProfiles(ctx context.Context, query string, limit int) ([]*models.Profile, error)

	// TouchLastActive stamps LastActiveAt to now.
	TouchLastActive(ctx context.Context, id models.ProfileID) error

	// IncrementComparisonCount atomically bumps the comparison counter.
	IncrementComparisonCount(ctx context.Context, id models.ProfileID) error

	// RemainingComparisons returns the plan quota minus the counter,
	// clamped at zero. Unlimited plans return -1.
	RemainingComparisons(ctx context.Context, id models.ProfileID) (int64, error)

	// UpdateBalance applies delta to the token balance in one atomic
	// statement, clamped at zero, optionally setting the extra columns in
	// set (e.g. last_refill) in the same statement. Returns the resulting
	// counters.
	UpdateBalance(ctx context.Context, id models.ProfileID, delta float64, set map[string]any) (*Balance, error)
}

// TransactionRequest describes a plain ledger entry before billing. RawAmount
// is the signed token count; the backend computes TokenValue from it via the
// billing rate table.
type TransactionRequest struct {
	UserID    models.ProfileID
	SessionID *models.SessionID
	TokenType models.TokenType
	Context   string
	Model     string
	RawAmount int64
}

// StructuredTokens breaks a prompt into cache-aware parts for billing.
type StructuredTokens struct {
	Input int64
	Write int64
	Read  int64
}

// StructuredTransactionRequest is a ledger entry with cache-aware prompt
// accounting.
type StructuredTransactionRequest struct {
	TransactionRequest
	Tokens StructuredTokens
}

// TransactionResult is the persisted row plus the balance after the debit or
// credit landed. Balance is nil when balance tracking is disabled, and the
// whole result is nil when transactions are disabled.
type TransactionResult struct {
	Transaction *models.Transaction
	Balance     *Balance
}

// TransactionFilter scopes ListTransactions.
type TransactionFilter struct {
	UserID    models.ProfileID
	SessionID *models.SessionID
	Type      models.TransactionType
	TokenType models.TokenType
	Since     *time.Time
	Until     *time.Time
	Limit     int
}

// Transactions is the token-ledger surface. Rows are immutable; there are no
// update or delete operations.
type Transactions interface {
	// CreateTransaction bills a plain entry: computes the signed token
	// value, persists the row, then applies the delta to the profile
	// balance (clamped at zero). No-op returning (nil, nil) when
	// transactions are disabled; skips the balance step when balance
	// tracking is disabled.
	CreateTransaction(ctx context.Context, req TransactionRequest) (*TransactionResult, error)

	// CreateStructuredTransaction bills a cache-aware prompt entry.
	CreateStructuredTransaction(ctx context.Context, req StructuredTransactionRequest) (*TransactionResult, error)

	// CreateAutoRefillTransaction credits the balance and stamps the
	// profile's last refill time.
	CreateAutoRefillTransaction(ctx context.Context, req TransactionRequest) (*TransactionResult, error)

	// ListTransactions returns matching ledger rows, newest first.
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]*models.Transaction, error)
}

// Store is the complete facade both backends implement and the mode router
// exposes to the application.
type Store interface {
	Sessions
	Files
	Templates
	Profiles
	Transactions

	// Migrate initializes or updates the backend schema. Idempotent; safe
	// to run at every startup.
	Migrate(ctx context.Context) error

	// Close releases the backend's connections. Safe to call more than once.
	Close() error
}
