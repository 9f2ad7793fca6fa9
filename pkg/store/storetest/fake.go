// Package storetest provides a configurable test double for the storage
// facade.
package storetest

import (
	"context"

	"github.com/modelarena/modelarena/pkg/models"
	"github.com/modelarena/modelarena/pkg/store"
)

// Fake implements [store.Store] through optional function fields. An unset
// field makes the operation return zero values; operations without a field
// at all panic through the nil embedded interface, which is the desired
// signal that a test hit an unexpected path.
type Fake struct {
	store.Store

	SaveSessionFn    func(ctx context.Context, userID models.ProfileID, session *models.ComparisonSession, opts store.SessionSaveOptions) (*models.ComparisonSession, error)
	GetSessionFn     func(ctx context.Context, userID models.ProfileID, id models.SessionID) (*models.ComparisonSession, error)
	ListSessionsFn   func(ctx context.Context, userID models.ProfileID, params store.ListSessionsParams) (*store.SessionPage, error)
	DeleteSessionsFn func(ctx context.Context, userID models.ProfileID, filter store.SessionDeleteFilter) (int64, error)

	CreateFileFn func(ctx context.Context, file *models.StoredFile, disableTTL bool) (*models.StoredFile, error)
	FindFileFn   func(ctx context.Context, fileID string) (*models.StoredFile, error)
	DeleteFileFn func(ctx context.Context, fileID string) error

	GetTemplateFn            func(ctx context.Context, userID models.ProfileID, id models.TemplateID, presetID string) (*models.ScoringTemplate, error)
	IncrementTemplateUsageFn func(ctx context.Context, id models.TemplateID) error

	GetProfileFn    func(ctx context.Context, id models.ProfileID) (*models.Profile, error)
	CreateProfileFn func(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	UpdateBalanceFn func(ctx context.Context, id models.ProfileID, delta float64, set map[string]any) (*store.Balance, error)

	CreateTransactionFn func(ctx context.Context, req store.TransactionRequest) (*store.TransactionResult, error)
	ListTransactionsFn  func(ctx context.Context, filter store.TransactionFilter) ([]*models.Transaction, error)

	MigrateFn func(ctx context.Context) error
	CloseFn   func() error
}

func (f *Fake) SaveSession(ctx context.Context, userID models.ProfileID, session *models.ComparisonSession, opts store.SessionSaveOptions) (*models.ComparisonSession, error) {
	if f.SaveSessionFn != nil {
		return f.SaveSessionFn(ctx, userID, session, opts)
	}
	return session, nil
}

func (f *Fake) GetSession(ctx context.Context, userID models.ProfileID, id models.SessionID) (*models.ComparisonSession, error) {
	if f.GetSessionFn != nil {
		return f.GetSessionFn(ctx, userID, id)
	}
	return nil, nil
}

func (f *Fake) ListSessions(ctx context.Context, userID models.ProfileID, params store.ListSessionsParams) (*store.SessionPage, error) {
	if f.ListSessionsFn != nil {
		return f.ListSessionsFn(ctx, userID, params)
	}
	return &store.SessionPage{Items: []*models.ComparisonSession{}}, nil
}

func (f *Fake) DeleteSessions(ctx context.Context, userID models.ProfileID, filter store.SessionDeleteFilter) (int64, error) {
	if f.DeleteSessionsFn != nil {
		return f.DeleteSessionsFn(ctx, userID, filter)
	}
	return 0, nil
}

func (f *Fake) CreateFile(ctx context.Context, file *models.StoredFile, disableTTL bool) (*models.StoredFile, error) {
	if f.CreateFileFn != nil {
		return f.CreateFileFn(ctx, file, disableTTL)
	}
	return file, nil
}

func (f *Fake) FindFile(ctx context.Context, fileID string) (*models.StoredFile, error) {
	if f.FindFileFn != nil {
		return f.FindFileFn(ctx, fileID)
	}
	return nil, nil
}

func (f *Fake) DeleteFile(ctx context.Context, fileID string) error {
	if f.DeleteFileFn != nil {
		return f.DeleteFileFn(ctx, fileID)
	}
	return nil
}

func (f *Fake) GetTemplate(ctx context.Context, userID models.ProfileID, id models.TemplateID, presetID string) (*models.ScoringTemplate, error) {
	if f.GetTemplateFn != nil {
		return f.GetTemplateFn(ctx, userID, id, presetID)
	}
	return nil, nil
}

func (f *Fake) IncrementTemplateUsage(ctx context.Context, id models.TemplateID) error {
	if f.IncrementTemplateUsageFn != nil {
		return f.IncrementTemplateUsageFn(ctx, id)
	}
	return nil
}

func (f *Fake) GetProfile(ctx context.Context, id models.ProfileID) (*models.Profile, error) {
	if f.GetProfileFn != nil {
		return f.GetProfileFn(ctx, id)
	}
	return nil, nil
}

func (f *Fake) CreateProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	if f.CreateProfileFn != nil {
		return f.CreateProfileFn(ctx, profile)
	}
	return profile, nil
}

func (f *Fake) UpdateBalance(ctx context.Context, id models.ProfileID, delta float64, set map[string]any) (*store.Balance, error) {
	if f.UpdateBalanceFn != nil {
		return f.UpdateBalanceFn(ctx, id, delta, set)
	}
	return &store.Balance{}, nil
}

func (f *Fake) CreateTransaction(ctx context.Context, req store.TransactionRequest) (*store.TransactionResult, error) {
	if f.CreateTransactionFn != nil {
		return f.CreateTransactionFn(ctx, req)
	}
	return nil, nil
}

func (f *Fake) ListTransactions(ctx context.Context, filter store.TransactionFilter) ([]*models.Transaction, error) {
	if f.ListTransactionsFn != nil {
		return f.ListTransactionsFn(ctx, filter)
	}
	return []*models.Transaction{}, nil
}

func (f *Fake) Migrate(ctx context.Context) error {
	if f.MigrateFn != nil {
		return f.MigrateFn(ctx)
	}
	return nil
}

func (f *Fake) Close() error {
	if f.CloseFn != nil {
		return f.CloseFn()
	}
	return nil
}
