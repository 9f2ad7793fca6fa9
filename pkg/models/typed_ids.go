package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	surrealdb_models "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Typed IDs wrap a UUID so that a profile ID can never be passed where a
// session ID is expected. Each type carries codecs for the three places an
// identifier crosses a boundary: JSON (HTTP layer), CBOR (SurrealDB RecordID,
// tag 8), and database/sql (PostgreSQL uuid columns via GORM).

// ProfileID is a typed ID for profiles. It equals the identity-provider user
// ID, so profiles are keyed by the same UUID the auth service issues.
type ProfileID struct {
	uuid uuid.UUID
}

func NewProfileID() ProfileID {
	return ProfileID{uuid: uuid.New()}
}

func NewProfileIDFromUUID(id uuid.UUID) ProfileID {
	return ProfileID{uuid: id}
}

func ParseProfileID(s string) (ProfileID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ProfileID{}, fmt.Errorf("invalid profile ID: %w", err)
	}
	return ProfileID{uuid: id}, nil
}

func (p ProfileID) UUID() uuid.UUID { return p.uuid }
func (p ProfileID) String() string  { return p.uuid.String() }
func (p ProfileID) IsZero() bool    { return p.uuid == uuid.Nil }

func (p ProfileID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: "profiles", ID: p.uuid.String()}
}

func (p ProfileID) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.uuid.String())
}

func (p *ProfileID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &p.uuid)
}

func (p ProfileID) MarshalCBOR() ([]byte, error) {
	return marshalCBORID("profiles", p.uuid)
}

func (p *ProfileID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "profiles", &p.uuid)
}

func (p ProfileID) Value() (driver.Value, error) {
	if p.IsZero() {
		return nil, nil
	}
	return p.uuid.String(), nil
}

func (p *ProfileID) Scan(value any) error {
	return scanUUID(value, &p.uuid)
}

func (ProfileID) GormDataType() string { return "uuid" }

// SessionID is a typed ID for comparison sessions. Legacy callers know this
// value as the conversation ID.
type SessionID struct {
	uuid uuid.UUID
}

func NewSessionID() SessionID {
	return SessionID{uuid: uuid.New()}
}

func NewSessionIDFromUUID(id uuid.UUID) SessionID {
	return SessionID{uuid: id}
}

func ParseSessionID(s string) (SessionID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return SessionID{}, fmt.Errorf("invalid session ID: %w", err)
	}
	return SessionID{uuid: id}, nil
}

func (s SessionID) UUID() uuid.UUID { return s.uuid }
func (s SessionID) String() string  { return s.uuid.String() }
func (s SessionID) IsZero() bool    { return s.uuid == uuid.Nil }

func (s SessionID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: "comparison_sessions", ID: s.uuid.String()}
}

func (s SessionID) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.uuid.String())
}

func (s *SessionID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &s.uuid)
}

func (s SessionID) MarshalCBOR() ([]byte, error) {
	return marshalCBORID("comparison_sessions", s.uuid)
}

func (s *SessionID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "comparison_sessions", &s.uuid)
}

func (s SessionID) Value() (driver.Value, error) {
	if s.IsZero() {
		return nil, nil
	}
	return s.uuid.String(), nil
}

func (s *SessionID) Scan(value any) error {
	return scanUUID(value, &s.uuid)
}

func (SessionID) GormDataType() string { return "uuid" }

// FileID is a typed ID for stored file rows. Note this is the row's own
// primary key; the upload is addressed by the separate external identifier
// StoredFile.FileID.
type FileID struct {
	uuid uuid.UUID
}

func NewFileID() FileID {
	return FileID{uuid: uuid.New()}
}

func NewFileIDFromUUID(id uuid.UUID) FileID {
	return FileID{uuid: id}
}

func ParseFileID(s string) (FileID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return FileID{}, fmt.Errorf("invalid file ID: %w", err)
	}
	return FileID{uuid: id}, nil
}

func (f FileID) UUID() uuid.UUID { return f.uuid }
func (f FileID) String() string  { return f.uuid.String() }
func (f FileID) IsZero() bool    { return f.uuid == uuid.Nil }

func (f FileID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: "files", ID: f.uuid.String()}
}

func (f FileID) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.uuid.String())
}

func (f *FileID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &f.uuid)
}

func (f FileID) MarshalCBOR() ([]byte, error) {
	return marshalCBORID("files", f.uuid)
}

func (f *FileID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "files", &f.uuid)
}

func (f FileID) Value() (driver.Value, error) {
	if f.IsZero() {
		return nil, nil
	}
	return f.uuid.String(), nil
}

func (f *FileID) Scan(value any) error {
	return scanUUID(value, &f.uuid)
}

func (FileID) GormDataType() string { return "uuid" }

// TemplateID is a typed ID for scoring templates.
type TemplateID struct {
	uuid uuid.UUID
}

func NewTemplateID() TemplateID {
	return TemplateID{uuid: uuid.New()}
}

func NewTemplateIDFromUUID(id uuid.UUID) TemplateID {
	return TemplateID{uuid: id}
}

func ParseTemplateID(s string) (TemplateID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return TemplateID{}, fmt.Errorf("invalid template ID: %w", err)
	}
	return TemplateID{uuid: id}, nil
}

func (t TemplateID) UUID() uuid.UUID { return t.uuid }
func (t TemplateID) String() string  { return t.uuid.String() }
func (t TemplateID) IsZero() bool    { return t.uuid == uuid.Nil }

func (t TemplateID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: "scoring_templates", ID: t.uuid.String()}
}

func (t TemplateID) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.uuid.String())
}

func (t *TemplateID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &t.uuid)
}

func (t TemplateID) MarshalCBOR() ([]byte, error) {
	return marshalCBORID("scoring_templates", t.uuid)
}

func (t *TemplateID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "scoring_templates", &t.uuid)
}

func (t TemplateID) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.uuid.String(), nil
}

func (t *TemplateID) Scan(value any) error {
	return scanUUID(value, &t.uuid)
}

func (TemplateID) GormDataType() string { return "uuid" }

// TransactionID is a typed ID for ledger transactions.
type TransactionID struct {
	uuid uuid.UUID
}

func NewTransactionID() TransactionID {
	return TransactionID{uuid: uuid.New()}
}

func NewTransactionIDFromUUID(id uuid.UUID) TransactionID {
	return TransactionID{uuid: id}
}

func ParseTransactionID(s string) (TransactionID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return TransactionID{}, fmt.Errorf("invalid transaction ID: %w", err)
	}
	return TransactionID{uuid: id}, nil
}

func (t TransactionID) UUID() uuid.UUID { return t.uuid }
func (t TransactionID) String() string  { return t.uuid.String() }
func (t TransactionID) IsZero() bool    { return t.uuid == uuid.Nil }

func (t TransactionID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{Table: "transactions", ID: t.uuid.String()}
}

func (t TransactionID) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.uuid.String())
}

func (t *TransactionID) UnmarshalJSON(data []byte) error {
	return unmarshalJSONID(data, &t.uuid)
}

func (t TransactionID) MarshalCBOR() ([]byte, error) {
	return marshalCBORID("transactions", t.uuid)
}

func (t *TransactionID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "transactions", &t.uuid)
}

func (t TransactionID) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.uuid.String(), nil
}

func (t *TransactionID) Scan(value any) error {
	return scanUUID(value, &t.uuid)
}

func (TransactionID) GormDataType() string { return "uuid" }

// Helper functions

func unmarshalJSONID(data []byte, target *uuid.UUID) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*target = id
	return nil
}

// marshalCBORID encodes an ID as a SurrealDB RecordID (CBOR tag 8 wrapping a
// [table, id] pair).
func marshalCBORID(table string, id uuid.UUID) ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{table, id.String()},
	})
}

// scanUUID is a helper for implementing sql.Scanner for PostgreSQL/GORM
func scanUUID(value any, target *uuid.UUID) error {
	if value == nil {
		*target = uuid.Nil
		return nil
	}

	switch v := value.(type) {
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return err
		}
		*target = id
	case []byte:
		id, err := uuid.ParseBytes(v)
		if err != nil {
			return err
		}
		*target = id
	default:
		return fmt.Errorf("cannot scan type %T into UUID", value)
	}
	return nil
}

// unmarshalCBORID is a helper for unmarshaling a SurrealDB RecordID from CBOR.
// SurrealDB uses CBOR tag 8 to identify RecordID types in its binary protocol;
// the RecordID is encoded as [table_name, id_string] within the tag.
func unmarshalCBORID(data []byte, expectedTable string, target *uuid.UUID) error {
	if len(data) == 0 {
		return fmt.Errorf("empty CBOR data")
	}

	// Major type 6 is a CBOR tag
	majorType := data[0] >> 5
	if majorType != 6 {
		return fmt.Errorf("expected CBOR tag for RecordID, got major type %d", majorType)
	}

	var tag cbor.Tag
	if err := cbor.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("failed to unmarshal CBOR tag: %w", err)
	}

	if tag.Number != 8 {
		return fmt.Errorf("expected RecordID tag (8), got %d", tag.Number)
	}

	arr, ok := tag.Content.([]any)
	if !ok || len(arr) != 2 {
		return fmt.Errorf("invalid RecordID format: expected [table, id] array")
	}

	table, ok := arr[0].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: table name must be string")
	}

	if table != expectedTable {
		return fmt.Errorf("expected table %s, got %s", expectedTable, table)
	}

	idStr, ok := arr[1].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: ID must be string")
	}

	parsedUUID, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("invalid UUID in RecordID: %w", err)
	}

	*target = parsedUUID
	return nil
}
