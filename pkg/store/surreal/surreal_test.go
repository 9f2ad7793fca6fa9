package surreal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelarena/modelarena/pkg/store"
)

func TestIsNotFound(t *testing.T) {
	assert.False(t, isNotFound(nil))
	assert.True(t, isNotFound(errors.New("Expected a single or multiple results but got 0")))
	assert.True(t, isNotFound(errors.New("cannot unmarshal array into Go value of type models.Profile")))
	assert.False(t, isNotFound(errors.New("connection refused")))
}

func TestMapErrorClassification(t *testing.T) {
	assert.NoError(t, mapError("Op", nil))

	err := mapError("CreateProfile", errors.New("Database index `idx_profiles_email` already contains 'a@b.c'"))
	assert.True(t, errors.Is(err, store.ErrDuplicateKey))

	err = mapError("ListFiles", errors.New("IAM error: Not enough permissions"))
	assert.True(t, errors.Is(err, store.ErrPermissionDenied))

	err = mapError("GetSession", errors.New("websocket: close 1006"))
	assert.True(t, errors.Is(err, store.ErrDatabase))

	// Taxonomy errors pass through unchanged.
	typed := store.NewError(store.ErrCodeNotFound, "already mapped", nil)
	assert.Equal(t, error(typed), mapError("Op", typed))
}

func TestBuildWhere(t *testing.T) {
	where, params, err := buildWhere([]store.Filter{
		store.Equals("email", "a@b.c"),
		store.IsNull("deleted_at"),
		store.Gte("token_balance", 10),
	})
	require.NoError(t, err)
	assert.Equal(t, "email = $p0 AND deleted_at = NONE AND token_balance >= $p2", where)
	assert.Equal(t, map[string]any{"p0": "a@b.c", "p2": 10}, params)
}

func TestBuildWhereEmpty(t *testing.T) {
	where, params, err := buildWhere(nil)
	require.NoError(t, err)
	assert.Equal(t, "true", where)
	assert.Empty(t, params)
}

func TestBuildWhereRejectsBadColumn(t *testing.T) {
	_, _, err := buildWhere([]store.Filter{store.Equals("email; DROP TABLE profiles", "x")})
	assert.Error(t, err)
}

func TestFieldNameGuard(t *testing.T) {
	assert.True(t, fieldName.MatchString("email"))
	assert.True(t, fieldName.MatchString("preferences.theme"))
	assert.True(t, fieldName.MatchString("last_refill"))
	assert.False(t, fieldName.MatchString("email = 'x' OR 1=1"))
	assert.False(t, fieldName.MatchString("1col"))
	assert.False(t, fieldName.MatchString(""))
}
