package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelarena/modelarena/pkg/models"
	"github.com/modelarena/modelarena/pkg/store"
	"github.com/modelarena/modelarena/pkg/store/storetest"
)

func TestReadOnlyRejectsWrites(t *testing.T) {
	fake := &storetest.Fake{
		SaveSessionFn: func(ctx context.Context, userID models.ProfileID, session *models.ComparisonSession, opts store.SessionSaveOptions) (*models.ComparisonSession, error) {
			t.Fatal("write reached the backend in read-only mode")
			return nil, nil
		},
	}
	ro := store.NewReadOnlyStore(fake, func() bool { return true })

	_, err := ro.SaveSession(context.Background(), models.NewProfileID(), &models.ComparisonSession{}, store.SessionSaveOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrPermissionDenied))

	err = ro.DeleteFile(context.Background(), "file_abc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrPermissionDenied))

	_, err = ro.UpdateBalance(context.Background(), models.NewProfileID(), -10, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrPermissionDenied))

	err = ro.Migrate(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrPermissionDenied))
}

func TestReadOnlyAllowsReads(t *testing.T) {
	want := &models.ComparisonSession{Title: "kept"}
	fake := &storetest.Fake{
		GetSessionFn: func(ctx context.Context, userID models.ProfileID, id models.SessionID) (*models.ComparisonSession, error) {
			return want, nil
		},
	}
	ro := store.NewReadOnlyStore(fake, func() bool { return true })

	got, err := ro.GetSession(context.Background(), models.NewProfileID(), models.NewSessionID())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadOnlyPassesThroughWhenOff(t *testing.T) {
	called := false
	fake := &storetest.Fake{
		DeleteFileFn: func(ctx context.Context, fileID string) error {
			called = true
			return nil
		},
	}
	ro := store.NewReadOnlyStore(fake, func() bool { return false })

	require.NoError(t, ro.DeleteFile(context.Background(), "file_abc"))
	assert.True(t, called)
}

func TestReadOnlySamplesPerCall(t *testing.T) {
	readOnly := true
	fake := &storetest.Fake{}
	ro := store.NewReadOnlyStore(fake, func() bool { return readOnly })

	err := ro.DeleteFile(context.Background(), "f")
	require.Error(t, err)

	// Flipping maintenance mode takes effect on the next call.
	readOnly = false
	require.NoError(t, ro.DeleteFile(context.Background(), "f"))
}
