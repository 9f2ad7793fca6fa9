// Package route binds the application to one storage backend for the life
// of the process.
//
// The mode is read from configuration exactly once, at startup, and the
// resulting [Router] wraps either the relational or the document backend.
// There is no hot switching: changing the mode means restarting the process.
// Dual-write and catch-up synchronization were considered and rejected; the
// migration story here is export, import, flip the mode, restart.
//
// Besides dispatch, the router is the facade's observability choke point:
// every failing operation is logged with its name, the active mode, and the
// taxonomy code, and every error is normalized to [*store.Error] so no
// driver type escapes to callers. Operations a backend does not support are
// logged loudly at warn level and surface as [store.ErrNotImplemented],
// never as a silent empty result.
package route

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/modelarena/modelarena/pkg/models"
	"github.com/modelarena/modelarena/pkg/store"
)

// Mode names a storage backend.
type Mode string

const (
	// ModeDocument routes everything to SurrealDB.
	ModeDocument Mode = "document"
	// ModeRelational routes everything to PostgreSQL.
	ModeRelational Mode = "relational"
)

// ParseMode validates a configured mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDocument, ModeRelational:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown storage mode %q (want %q or %q)", s, ModeDocument, ModeRelational)
}

// Router wraps the backend the mode selected. The binding is immutable.
type Router struct {
	backend store.Store
	mode    Mode
	log     zerolog.Logger
}

// New binds the router to a backend. Called once in application setup.
func New(mode Mode, backend store.Store, log zerolog.Logger) *Router {
	return &Router{
		backend: backend,
		mode:    mode,
		log:     log.With().Str("component", "store").Str("mode", string(mode)).Logger(),
	}
}

// Mode returns the mode the router was bound with.
func (r *Router) Mode() Mode {
	return r.mode
}

// Unwrap returns the wrapped backend.
func (r *Router) Unwrap() store.Store {
	return r.backend
}

// fail normalizes an operation error to the taxonomy and logs it with
// operation context. Unsupported operations log at warn level so a
// misconfigured deployment is visible immediately.
func (r *Router) fail(op string, err error) error {
	if err == nil {
		return nil
	}
	var serr *store.Error
	if !errors.As(err, &serr) {
		serr = store.NewError(store.ErrCodeDatabase, op+" failed", err)
	}
	if serr.Code == store.ErrCodeNotImplemented {
		r.log.Warn().Str("op", op).Msg("operation not implemented by active backend")
		return serr
	}
	r.log.Error().Err(serr).Str("op", op).Str("code", string(serr.Code)).Msg("store operation failed")
	return serr
}

// Session operations

func (r *Router) SaveSession(ctx context.Context, userID models.ProfileID, session *models.ComparisonSession, opts store.SessionSaveOptions) (*models.ComparisonSession, error) {
	out, err := r.backend.SaveSession(ctx, userID, session, opts)
	return out, r.fail("SaveSession", err)
}

func (r *Router) BulkSaveSessions(ctx context.Context, userID models.ProfileID, sessions []*models.ComparisonSession) error {
	return r.fail("BulkSaveSessions", r.backend.BulkSaveSessions(ctx, userID, sessions))
}

func (r *Router) GetSession(ctx context.Context, userID models.ProfileID, id models.SessionID) (*models.ComparisonSession, error) {
	out, err := r.backend.GetSession(ctx, userID, id)
	return out, r.fail("GetSession", err)
}

func (r *Router) SearchSession(ctx context.Context, id models.SessionID) (*models.ComparisonSession, error) {
	out, err := r.backend.SearchSession(ctx, id)
	return out, r.fail("SearchSession", err)
}

func (r *Router) GetSessionTitle(ctx context.Context, userID models.ProfileID, id models.SessionID) (string, error) {
	out, err := r.backend.GetSessionTitle(ctx, userID, id)
	return out, r.fail("GetSessionTitle", err)
}

func (r *Router) GetSessionFiles(ctx context.Context, id models.SessionID) ([]string, error) {
	out, err := r.backend.GetSessionFiles(ctx, id)
	return out, r.fail("GetSessionFiles", err)
}

func (r *Router) ListSessions(ctx context.Context, userID models.ProfileID, params store.ListSessionsParams) (*store.SessionPage, error) {
	out, err := r.backend.ListSessions(ctx, userID, params)
	return out, r.fail("ListSessions", err)
}

func (r *Router) ListSessionsByIDs(ctx context.Context, userID models.ProfileID, ids []models.SessionID, params store.ListSessionsParams) (*store.SessionPage, error) {
	out, err := r.backend.ListSessionsByIDs(ctx, userID, ids, params)
	return out, r.fail("ListSessionsByIDs", err)
}

func (r *Router) DeleteSessions(ctx context.Context, userID models.ProfileID, filter store.SessionDeleteFilter) (int64, error) {
	out, err := r.backend.DeleteSessions(ctx, userID, filter)
	return out, r.fail("DeleteSessions", err)
}

func (r *Router) DeleteEmptySessions(ctx context.Context) (int64, error) {
	out, err := r.backend.DeleteEmptySessions(ctx)
	return out, r.fail("DeleteEmptySessions", err)
}

func (r *Router) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	out, err := r.backend.PurgeExpiredSessions(ctx)
	return out, r.fail("PurgeExpiredSessions", err)
}

func (r *Router) GetResponse(ctx context.Context, userID models.ProfileID, sessionID models.SessionID, responseID string) (*models.Response, error) {
	out, err := r.backend.GetResponse(ctx, userID, sessionID, responseID)
	return out, r.fail("GetResponse", err)
}

func (r *Router) SaveResponse(ctx context.Context, userID models.ProfileID, sessionID models.SessionID, response models.Response) error {
	return r.fail("SaveResponse", r.backend.SaveResponse(ctx, userID, sessionID, response))
}

func (r *Router) ListResponses(ctx context.Context, userID models.ProfileID, sessionID models.SessionID) ([]models.Response, error) {
	out, err := r.backend.ListResponses(ctx, userID, sessionID)
	return out, r.fail("ListResponses", err)
}

func (r *Router) DeleteResponses(ctx context.Context, userID models.ProfileID, sessionID models.SessionID, responseIDs []string) (int64, error) {
	out, err := r.backend.DeleteResponses(ctx, userID, sessionID, responseIDs)
	return out, r.fail("DeleteResponses", err)
}

// File operations

func (r *Router) CreateFile(ctx context.Context, file *models.StoredFile, disableTTL bool) (*models.StoredFile, error) {
	out, err := r.backend.CreateFile(ctx, file, disableTTL)
	return out, r.fail("CreateFile", err)
}

func (r *Router) UpdateFile(ctx context.Context, fileID string, update store.FileUpdate) (*models.StoredFile, error) {
	out, err := r.backend.UpdateFile(ctx, fileID, update)
	return out, r.fail("UpdateFile", err)
}

func (r *Router) TouchFileUsage(ctx context.Context, fileID string, inc int64) (*models.StoredFile, error) {
	out, err := r.backend.TouchFileUsage(ctx, fileID, inc)
	return out, r.fail("TouchFileUsage", err)
}

func (r *Router) FindFile(ctx context.Context, fileID string) (*models.StoredFile, error) {
	out, err := r.backend.FindFile(ctx, fileID)
	return out, r.fail("FindFile", err)
}

func (r *Router) ListFiles(ctx context.Context, filter store.FileFilter) ([]*models.StoredFile, error) {
	out, err := r.backend.ListFiles(ctx, filter)
	return out, r.fail("ListFiles", err)
}

func (r *Router) ListToolFiles(ctx context.Context, fileIDs []string, toolResource string) ([]*models.StoredFile, error) {
	out, err := r.backend.ListToolFiles(ctx, fileIDs, toolResource)
	return out, r.fail("ListToolFiles", err)
}

func (r *Router) DeleteFile(ctx context.Context, fileID string) error {
	return r.fail("DeleteFile", r.backend.DeleteFile(ctx, fileID))
}

func (r *Router) DeleteFiles(ctx context.Context, fileIDs []string, userID *models.ProfileID) (int64, error) {
	out, err := r.backend.DeleteFiles(ctx, fileIDs, userID)
	return out, r.fail("DeleteFiles", err)
}

func (r *Router) BatchUpdateFilePaths(ctx context.Context, updates []store.FilePathUpdate) (int, error) {
	out, err := r.backend.BatchUpdateFilePaths(ctx, updates)
	return out, r.fail("BatchUpdateFilePaths", err)
}

// Template operations

func (r *Router) SaveTemplate(ctx context.Context, template *models.ScoringTemplate, opts store.TemplateSaveOptions) (*models.ScoringTemplate, error) {
	out, err := r.backend.SaveTemplate(ctx, template, opts)
	return out, r.fail("SaveTemplate", err)
}

func (r *Router) GetTemplate(ctx context.Context, userID models.ProfileID, id models.TemplateID, presetID string) (*models.ScoringTemplate, error) {
	out, err := r.backend.GetTemplate(ctx, userID, id, presetID)
	return out, r.fail("GetTemplate", err)
}

func (r *Router) ListTemplates(ctx context.Context, userID models.ProfileID, filter store.TemplateFilter) ([]*models.ScoringTemplate, error) {
	out, err := r.backend.ListTemplates(ctx, userID, filter)
	return out, r.fail("ListTemplates", err)
}

func (r *Router) ListPublicTemplates(ctx context.Context, limit int) ([]*models.ScoringTemplate, error) {
	out, err := r.backend.ListPublicTemplates(ctx, limit)
	return out, r.fail("ListPublicTemplates", err)
}

func (r *Router) DeleteTemplates(ctx context.Context, userID models.ProfileID, ids []models.TemplateID) (int64, error) {
	out, err := r.backend.DeleteTemplates(ctx, userID, ids)
	return out, r.fail("DeleteTemplates", err)
}

func (r *Router) IncrementTemplateUsage(ctx context.Context, id models.TemplateID) error {
	return r.fail("IncrementTemplateUsage", r.backend.IncrementTemplateUsage(ctx, id))
}

// Profile operations

func (r *Router) FindProfile(ctx context.Context, filters []store.Filter, fields []string) (*models.Profile, error) {
	out, err := r.backend.FindProfile(ctx, filters, fields)
	return out, r.fail("FindProfile", err)
}

func (r *Router) GetProfile(ctx context.Context, id models.ProfileID) (*models.Profile, error) {
	out, err := r.backend.GetProfile(ctx, id)
	return out, r.fail("GetProfile", err)
}

func (r *Router) CreateProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	out, err := r.backend.CreateProfile(ctx, profile)
	return out, r.fail("CreateProfile", err)
}

func (r *Router) UpdateProfile(ctx context.Context, id models.ProfileID, updates map[string]any) (*models.Profile, error) {
	out, err := r.backend.UpdateProfile(ctx, id, updates)
	return out, r.fail("UpdateProfile", err)
}

func (r *Router) DeleteProfile(ctx context.Context, id models.ProfileID, hard bool) error {
	return r.fail("DeleteProfile", r.backend.DeleteProfile(ctx, id, hard))
}

func (r *Router) CountProfiles(ctx context.Context, filters []store.Filter) (int64, error) {
	out, err := r.backend.CountProfiles(ctx, filters)
	return out, r.fail("CountProfiles", err)
}

func (r *Router) ListProfilesByIDs(ctx context.Context, ids []models.ProfileID) ([]*models.Profile, error) {
	out, err := r.backend.ListProfilesByIDs(ctx, ids)
	return out, r.fail("ListProfilesByIDs", err)
}

func (r *Router) SearchProfiles(ctx context.Context, query string, limit int) ([]*models.Profile, error) {
	out, err := r.backend.SearchProfiles(ctx, query, limit)
	return out, r.fail("SearchProfiles", err)
}

func (r *Router) TouchLastActive(ctx context.Context, id models.ProfileID) error {
	return r.fail("TouchLastActive", r.backend.TouchLastActive(ctx, id))
}

func (r *Router) IncrementComparisonCount(ctx context.Context, id models.ProfileID) error {
	return r.fail("IncrementComparisonCount", r.backend.IncrementComparisonCount(ctx, id))
}

func (r *Router) RemainingComparisons(ctx context.Context, id models.ProfileID) (int64, error) {
	out, err := r.backend.RemainingComparisons(ctx, id)
	return out, r.fail("RemainingComparisons", err)
}

func (r *Router) UpdateBalance(ctx context.Context, id models.ProfileID, delta float64, set map[string]any) (*store.Balance, error) {
	out, err := r.backend.UpdateBalance(ctx, id, delta, set)
	return out, r.fail("UpdateBalance", err)
}

// Transaction operations

func (r *Router) CreateTransaction(ctx context.Context, req store.TransactionRequest) (*store.TransactionResult, error) {
	out, err := r.backend.CreateTransaction(ctx, req)
	return out, r.fail("CreateTransaction", err)
}

func (r *Router) CreateStructuredTransaction(ctx context.Context, req store.StructuredTransactionRequest) (*store.TransactionResult, error) {
	out, err := r.backend.CreateStructuredTransaction(ctx, req)
	return out, r.fail("CreateStructuredTransaction", err)
}

func (r *Router) CreateAutoRefillTransaction(ctx context.Context, req store.TransactionRequest) (*store.TransactionResult, error) {
	out, err := r.backend.CreateAutoRefillTransaction(ctx, req)
	return out, r.fail("CreateAutoRefillTransaction", err)
}

func (r *Router) ListTransactions(ctx context.Context, filter store.TransactionFilter) ([]*models.Transaction, error) {
	out, err := r.backend.ListTransactions(ctx, filter)
	return out, r.fail("ListTransactions", err)
}

// Lifecycle

func (r *Router) Migrate(ctx context.Context) error {
	return r.fail("Migrate", r.backend.Migrate(ctx))
}

func (r *Router) Close() error {
	return r.backend.Close()
}
