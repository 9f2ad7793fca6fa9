package store

import (
	"context"

	"github.com/modelarena/modelarena/pkg/models"
)

// ReadOnlyStore wraps a Store and rejects writes while maintenance mode is
// on. It is used during data export windows, where the operator needs reads
// to keep working while every mutation is refused.
//
// The read-only state is sampled per call through the isReadOnly function,
// so the operator can flip maintenance mode without rebuilding the store.
// Read operations always pass through.
type ReadOnlyStore struct {
	Store
	isReadOnly func() bool
}

// NewReadOnlyStore creates a read-only wrapper around store.
func NewReadOnlyStore(store Store, isReadOnly func() bool) Store {
	return &ReadOnlyStore{
		Store:      store,
		isReadOnly: isReadOnly,
	}
}

// Unwrap returns the underlying store.
func (r *ReadOnlyStore) Unwrap() Store {
	return r.Store
}

func (r *ReadOnlyStore) checkReadOnly() error {
	if r.isReadOnly() {
		return NewError(ErrCodePermissionDenied, "application is in read-only maintenance mode", nil)
	}
	return nil
}

// Write operations check maintenance mode first.

func (r *ReadOnlyStore) SaveSession(ctx context.Context, userID models.ProfileID, session *models.ComparisonSession, opts SessionSaveOptions) (*models.ComparisonSession, error) {
	if err := r.checkReadOnly(); err != nil {
		return nil, err
	}
	return r.Store.SaveSession(ctx, userID, session, opts)
}

func (r *ReadOnlyStore) BulkSaveSessions(ctx context.Context, userID models.ProfileID, sessions []*models.ComparisonSession) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.BulkSaveSessions(ctx, userID, sessions)
}

func (r *ReadOnlyStore) DeleteSessions(ctx context.Context, userID models.ProfileID, filter SessionDeleteFilter) (int64, error) {
	if err := r.checkReadOnly(); err != nil {
		return 0, err
	}
	return r.Store.DeleteSessions(ctx, userID, filter)
}

func (r *ReadOnlyStore) DeleteEmptySessions(ctx context.Context) (int64, error) {
	if err := r.checkReadOnly(); err != nil {
		return 0, err
	}
	return r.Store.DeleteEmptySessions(ctx)
}

func (r *ReadOnlyStore) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	if err := r.checkReadOnly(); err != nil {
		return 0, err
	}
	return r.Store.PurgeExpiredSessions(ctx)
}

func (r *ReadOnlyStore) SaveResponse(ctx context.Context, userID models.ProfileID, sessionID models.SessionID, response models.Response) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.SaveResponse(ctx, userID, sessionID, response)
}

func (r *ReadOnlyStore) DeleteResponses(ctx context.Context, userID models.ProfileID, sessionID models.SessionID, responseIDs []string) (int64, error) {
	if err := r.checkReadOnly(); err != nil {
		return 0, err
	}
	return r.Store.DeleteResponses(ctx, userID, sessionID, responseIDs)
}

func (r *ReadOnlyStore) CreateFile(ctx context.Context, file *models.StoredFile, disableTTL bool) (*models.StoredFile, error) {
	if err := r.checkReadOnly(); err != nil {
		return nil, err
	}
	return r.Store.CreateFile(ctx, file, disableTTL)
}

func (r *ReadOnlyStore) UpdateFile(ctx context.Context, fileID string, update FileUpdate) (*models.StoredFile, error) {
	if err := r.checkReadOnly(); err != nil {
		return nil, err
	}
	return r.Store.UpdateFile(ctx, fileID, update)
}

func (r *ReadOnlyStore) TouchFileUsage(ctx context.Context, fileID string, inc int64) (*models.StoredFile, error) {
	if err := r.checkReadOnly(); err != nil {
		return nil, err
	}
	return r.Store.TouchFileUsage(ctx, fileID, inc)
}

func (r *ReadOnlyStore) DeleteFile(ctx context.Context, fileID string) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.DeleteFile(ctx, fileID)
}

func (r *ReadOnlyStore) DeleteFiles(ctx context.Context, fileIDs []string, userID *models.ProfileID) (int64, error) {
	if err := r.checkReadOnly(); err != nil {
		return 0, err
	}
	return r.Store.DeleteFiles(ctx, fileIDs, userID)
}

func (r *ReadOnlyStore) BatchUpdateFilePaths(ctx context.Context, updates []FilePathUpdate) (int, error) {
	if err := r.checkReadOnly(); err != nil {
		return 0, err
	}
	return r.Store.BatchUpdateFilePaths(ctx, updates)
}

func (r *ReadOnlyStore) SaveTemplate(ctx context.Context, template *models.ScoringTemplate, opts TemplateSaveOptions) (*models.ScoringTemplate, error) {
	if err := r.checkReadOnly(); err != nil {
		return nil, err
	}
	return r.Store.SaveTemplate(ctx, template, opts)
}

func (r *ReadOnlyStore) DeleteTemplates(ctx context.Context, userID models.ProfileID, ids []models.TemplateID) (int64, error) {
	if err := r.checkReadOnly(); err != nil {
		return 0, err
	}
	return r.Store.DeleteTemplates(ctx, userID, ids)
}

func (r *ReadOnlyStore) IncrementTemplateUsage(ctx context.Context, id models.TemplateID) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.IncrementTemplateUsage(ctx, id)
}

func (r *ReadOnlyStore) CreateProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	if err := r.checkReadOnly(); err != nil {
		return nil, err
	}
	return r.Store.CreateProfile(ctx, profile)
}

func (r *ReadOnlyStore) UpdateProfile(ctx context.Context, id models.ProfileID, updates map[string]any) (*models.Profile, error) {
	if err := r.checkReadOnly(); err != nil {
		return nil, err
	}
	return r.Store.UpdateProfile(ctx, id, updates)
}

func (r *ReadOnlyStore) DeleteProfile(ctx context.Context, id models.ProfileID, hard bool) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.DeleteProfile(ctx, id, hard)
}

func (r *ReadOnlyStore) TouchLastActive(ctx context.Context, id models.ProfileID) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.TouchLastActive(ctx, id)
}

func (r *ReadOnlyStore) IncrementComparisonCount(ctx context.Context, id models.ProfileID) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.IncrementComparisonCount(ctx, id)
}

func (r *ReadOnlyStore) UpdateBalance(ctx context.Context, id models.ProfileID, delta float64, set map[string]any) (*Balance, error) {
	if err := r.checkReadOnly(); err != nil {
		return nil, err
	}
	return r.Store.UpdateBalance(ctx, id, delta, set)
}

func (r *ReadOnlyStore) CreateTransaction(ctx context.Context, req TransactionRequest) (*TransactionResult, error) {
	if err := r.checkReadOnly(); err != nil {
		return nil, err
	}
	return r.Store.CreateTransaction(ctx, req)
}

func (r *ReadOnlyStore) CreateStructuredTransaction(ctx context.Context, req StructuredTransactionRequest) (*TransactionResult, error) {
	if err := r.checkReadOnly(); err != nil {
		return nil, err
	}
	return r.Store.CreateStructuredTransaction(ctx, req)
}

func (r *ReadOnlyStore) CreateAutoRefillTransaction(ctx context.Context, req TransactionRequest) (*TransactionResult, error) {
	if err := r.checkReadOnly(); err != nil {
		return nil, err
	}
	return r.Store.CreateAutoRefillTransaction(ctx, req)
}

func (r *ReadOnlyStore) Migrate(ctx context.Context) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.Migrate(ctx)
}

// Read operations pass through via the embedded Store.
