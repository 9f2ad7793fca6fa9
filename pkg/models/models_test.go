package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseListUpsert(t *testing.T) {
	list := ResponseList{
		{ResponseID: "r1", Text: "first"},
		{ResponseID: "r2", Text: "second"},
	}

	list = list.Upsert(Response{ResponseID: "r2", Text: "revised"})
	require.Len(t, list, 2)
	assert.Equal(t, "revised", list[1].Text)

	list = list.Upsert(Response{ResponseID: "r3", Text: "third"})
	require.Len(t, list, 3)
	assert.Equal(t, "r3", list[2].ResponseID)
}

func TestResponseListRemove(t *testing.T) {
	list := ResponseList{
		{ResponseID: "r1"},
		{ResponseID: "r2"},
		{ResponseID: "r3"},
	}

	kept, removed := list.Remove([]string{"r1", "r3", "missing"})
	assert.Equal(t, int64(2), removed)
	require.Len(t, kept, 1)
	assert.Equal(t, "r2", kept[0].ResponseID)
}

func TestResponseListRemoveNone(t *testing.T) {
	list := ResponseList{{ResponseID: "r1"}}
	kept, removed := list.Remove(nil)
	assert.Equal(t, int64(0), removed)
	assert.Len(t, kept, 1)
}

func TestResponseListScanNull(t *testing.T) {
	var list ResponseList
	require.NoError(t, list.Scan(nil))
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestJSONMapRoundTrip(t *testing.T) {
	m := JSONMap{"theme": "dark", "pageSize": float64(25)}

	v, err := m.Value()
	require.NoError(t, err)

	var decoded JSONMap
	require.NoError(t, decoded.Scan(v))
	assert.Equal(t, m, decoded)
}

func TestJSONMapScanNull(t *testing.T) {
	var m JSONMap
	require.NoError(t, m.Scan(nil))
	assert.NotNil(t, m)
	assert.Empty(t, m)
}

func TestStringListScanString(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan(`["work","research"]`))
	assert.Equal(t, StringList{"work", "research"}, l)
}

func TestSetEphemeral(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	session := &ComparisonSession{}

	session.SetEphemeral(true, 24*time.Hour, now)
	require.NotNil(t, session.ExpiredAt)
	assert.Equal(t, now.Add(24*time.Hour), *session.ExpiredAt)

	// Saving permanently clears any existing expiry.
	session.SetEphemeral(false, 24*time.Hour, now)
	assert.Nil(t, session.ExpiredAt)
}

func TestSessionIsEmpty(t *testing.T) {
	assert.True(t, (&ComparisonSession{}).IsEmpty())
	assert.False(t, (&ComparisonSession{Title: "t"}).IsEmpty())
	assert.False(t, (&ComparisonSession{Responses: ResponseList{{ResponseID: "r"}}}).IsEmpty())
}

func TestProfileIsDeleted(t *testing.T) {
	now := time.Now()
	assert.False(t, (&Profile{}).IsDeleted())
	assert.True(t, (&Profile{DeletedAt: &now}).IsDeleted())
}
