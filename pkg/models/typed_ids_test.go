package models

import (
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileIDJSONRoundTrip(t *testing.T) {
	id := NewProfileID()

	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"`+id.String()+`"`, string(data))

	var decoded ProfileID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)
}

func TestSessionIDJSONInvalid(t *testing.T) {
	var id SessionID
	assert.Error(t, json.Unmarshal([]byte(`"not-a-uuid"`), &id))
	assert.Error(t, json.Unmarshal([]byte(`42`), &id))
}

func TestSessionIDCBORRoundTrip(t *testing.T) {
	id := NewSessionID()

	data, err := cbor.Marshal(id)
	require.NoError(t, err)

	// The wire form is a SurrealDB record ID: tag 8 over [table, id].
	var tag cbor.Tag
	require.NoError(t, cbor.Unmarshal(data, &tag))
	assert.Equal(t, uint64(8), tag.Number)

	arr, ok := tag.Content.([]any)
	require.True(t, ok)
	require.Len(t, arr, 2)
	assert.Equal(t, "comparison_sessions", arr[0])
	assert.Equal(t, id.String(), arr[1])

	var decoded SessionID
	require.NoError(t, decoded.UnmarshalCBOR(data))
	assert.Equal(t, id, decoded)
}

func TestCBORRejectsWrongTable(t *testing.T) {
	// A profile record ID must not decode into a session ID.
	profile := NewProfileID()
	data, err := cbor.Marshal(profile)
	require.NoError(t, err)

	var session SessionID
	assert.Error(t, session.UnmarshalCBOR(data))
}

func TestCBORRejectsUntaggedData(t *testing.T) {
	data, err := cbor.Marshal("plain string")
	require.NoError(t, err)

	var id FileID
	assert.Error(t, id.UnmarshalCBOR(data))
}

func TestTemplateIDSQLValue(t *testing.T) {
	id := NewTemplateID()
	v, err := id.Value()
	require.NoError(t, err)
	assert.Equal(t, id.String(), v)

	// Zero IDs store as NULL so optional uuid columns stay nullable.
	var zero TemplateID
	v, err = zero.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestTransactionIDScan(t *testing.T) {
	raw := uuid.New()

	var fromString TransactionID
	require.NoError(t, fromString.Scan(raw.String()))
	assert.Equal(t, raw, fromString.UUID())

	var fromBytes TransactionID
	require.NoError(t, fromBytes.Scan([]byte(raw.String())))
	assert.Equal(t, raw, fromBytes.UUID())

	var fromNil TransactionID
	require.NoError(t, fromNil.Scan(nil))
	assert.True(t, fromNil.IsZero())

	var fromInt TransactionID
	assert.Error(t, fromInt.Scan(42))
}

func TestRecordIDTables(t *testing.T) {
	assert.Equal(t, "profiles", NewProfileID().RecordID().Table)
	assert.Equal(t, "comparison_sessions", NewSessionID().RecordID().Table)
	assert.Equal(t, "files", NewFileID().RecordID().Table)
	assert.Equal(t, "scoring_templates", NewTemplateID().RecordID().Table)
	assert.Equal(t, "transactions", NewTransactionID().RecordID().Table)
}

func TestParseProfileID(t *testing.T) {
	id := NewProfileID()
	parsed, err := ParseProfileID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseProfileID("")
	assert.Error(t, err)
}
