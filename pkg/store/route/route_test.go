package route

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelarena/modelarena/pkg/models"
	"github.com/modelarena/modelarena/pkg/store"
	"github.com/modelarena/modelarena/pkg/store/storetest"
)

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("document")
	require.NoError(t, err)
	assert.Equal(t, ModeDocument, mode)

	mode, err = ParseMode("relational")
	require.NoError(t, err)
	assert.Equal(t, ModeRelational, mode)

	_, err = ParseMode("dual-write")
	assert.Error(t, err)
}

func TestRouterDelegates(t *testing.T) {
	want := &models.Profile{Email: "a@b.c"}
	fake := &storetest.Fake{
		GetProfileFn: func(ctx context.Context, id models.ProfileID) (*models.Profile, error) {
			return want, nil
		},
	}
	r := New(ModeRelational, fake, zerolog.Nop())

	got, err := r.GetProfile(context.Background(), models.NewProfileID())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, ModeRelational, r.Mode())
}

func TestRouterNormalizesForeignErrors(t *testing.T) {
	fake := &storetest.Fake{
		GetProfileFn: func(ctx context.Context, id models.ProfileID) (*models.Profile, error) {
			return nil, errors.New("driver: connection reset")
		},
	}
	r := New(ModeRelational, fake, zerolog.Nop())

	_, err := r.GetProfile(context.Background(), models.NewProfileID())
	require.Error(t, err)

	var serr *store.Error
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, store.ErrCodeDatabase, serr.Code)
}

func TestRouterKeepsTaxonomyErrors(t *testing.T) {
	fake := &storetest.Fake{
		CreateProfileFn: func(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
			return nil, store.NewError(store.ErrCodeDuplicateKey, "email already registered", nil)
		},
	}
	r := New(ModeRelational, fake, zerolog.Nop())

	_, err := r.CreateProfile(context.Background(), &models.Profile{})
	assert.True(t, errors.Is(err, store.ErrDuplicateKey))
}

func TestRouterSurfacesNotImplemented(t *testing.T) {
	fake := &storetest.Fake{
		CreateFileFn: func(ctx context.Context, file *models.StoredFile, disableTTL bool) (*models.StoredFile, error) {
			return nil, store.NotImplemented("CreateFile")
		},
	}
	r := New(ModeDocument, fake, zerolog.Nop())

	_, err := r.CreateFile(context.Background(), &models.StoredFile{}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrNotImplemented))
}

func TestRouterNilErrorPassesThrough(t *testing.T) {
	fake := &storetest.Fake{}
	r := New(ModeRelational, fake, zerolog.Nop())

	require.NoError(t, r.DeleteFile(context.Background(), "f"))
}
