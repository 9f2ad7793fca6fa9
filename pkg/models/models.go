package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// TokenType classifies which side of a model call a transaction bills for.
type TokenType string

const (
	TokenTypePrompt     TokenType = "prompt"
	TokenTypeCompletion TokenType = "completion"
)

// TransactionType is the sign of a ledger row. Credits raise the balance,
// debits lower it; the amount itself is always stored non-negative.
type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// Transaction contexts recognized by the billing layer. ContextIncomplete
// marks a completion that was cancelled mid-stream and carries a surcharge.
const (
	ContextMessage    = "message"
	ContextIncomplete = "incomplete"
	ContextAutoRefill = "autoRefill"
	ContextAdmin      = "admin"
)

// FileSourceLocal and friends name where a stored file's bytes live.
const (
	FileSourceLocal   = "local"
	FileSourceS3      = "s3"
	FileSourceOpenAI  = "openai"
	FileSourceExecute = "execute_code"
)

// JSONMap is a flexible key-value bag stored as JSONB in PostgreSQL and as a
// native object in SurrealDB. It backs the fields whose shape varies per row:
// profile preferences, file metadata, and template scoring criteria.
type JSONMap map[string]any

// Value implements the driver.Valuer interface for database storage
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface for database retrieval
func (j *JSONMap) Scan(value any) error {
	if value == nil {
		*j = make(map[string]any)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		bytes = []byte(value.(string))
	}
	return json.Unmarshal(bytes, j)
}

// StringList is a string slice stored as JSONB, used for session tags.
type StringList []string

// Value implements the driver.Valuer interface for database storage
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface for database retrieval
func (l *StringList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		bytes = []byte(value.(string))
	}
	return json.Unmarshal(bytes, l)
}

// Response is one model answer inside a comparison session. Responses are not
// rows of their own; the whole list is embedded in the session document and
// rewritten on every save.
type Response struct {
	ResponseID string    `json:"responseId"`
	ParentID   string    `json:"parentId,omitempty"`
	Model      string    `json:"model,omitempty"`
	Sender     string    `json:"sender,omitempty"`
	Text       string    `json:"text"`
	Unfinished bool      `json:"unfinished,omitempty"`
	IsError    bool      `json:"error,omitempty"`
	TokenCount int       `json:"tokenCount,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ResponseList is the embedded response array of a session, stored as JSONB
// in PostgreSQL and as a nested array in SurrealDB.
type ResponseList []Response

// Value implements the driver.Valuer interface for database storage
func (r ResponseList) Value() (driver.Value, error) {
	if r == nil {
		return json.Marshal(ResponseList{})
	}
	return json.Marshal(r)
}

// Scan implements the sql.Scanner interface for database retrieval
func (r *ResponseList) Scan(value any) error {
	if value == nil {
		*r = ResponseList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		bytes = []byte(value.(string))
	}
	return json.Unmarshal(bytes, r)
}

// Upsert replaces the response with a matching ID, or appends when none
// matches.
func (r ResponseList) Upsert(response Response) ResponseList {
	for i := range r {
		if r[i].ResponseID == response.ResponseID {
			r[i] = response
			return r
		}
	}
	return append(r, response)
}

// Remove drops the named responses, returning the kept list and the removed
// count.
func (r ResponseList) Remove(responseIDs []string) (ResponseList, int64) {
	drop := make(map[string]struct{}, len(responseIDs))
	for _, id := range responseIDs {
		drop[id] = struct{}{}
	}
	kept := r[:0]
	var removed int64
	for _, resp := range r {
		if _, ok := drop[resp.ResponseID]; ok {
			removed++
			continue
		}
		kept = append(kept, resp)
	}
	return kept, removed
}

// Profile is an application user. The row is keyed by the identity provider's
// user ID; authentication itself happens elsewhere, this is only the
// application-side record (plan, preferences, token accounting).
type Profile struct {
	ID              ProfileID  `gorm:"type:uuid;primary_key" json:"id" cbor:"id"`
	Email           string     `gorm:"unique;not null" json:"email" cbor:"email"`
	Username        *string    `gorm:"unique" json:"username,omitempty" cbor:"username,omitempty"`
	Name            string     `json:"name,omitempty" cbor:"name,omitempty"`
	AvatarURL       string     `json:"avatar_url,omitempty" cbor:"avatar_url,omitempty"`
	Role            string     `gorm:"default:user" json:"role" cbor:"role"`
	Plan            string     `gorm:"default:free" json:"plan" cbor:"plan"`
	Preferences     JSONMap    `gorm:"type:jsonb" json:"preferences,omitempty" cbor:"preferences,omitempty"`
	TokenBalance    float64    `gorm:"type:numeric;not null;default:0" json:"token_balance" cbor:"token_balance"`
	TokensCompared  int64      `gorm:"not null;default:0" json:"tokens_compared" cbor:"tokens_compared"`
	ComparisonCount int64      `gorm:"not null;default:0" json:"comparison_count" cbor:"comparison_count"`
	LastRefill      *time.Time `json:"last_refill,omitempty" cbor:"last_refill,omitempty"`
	LastActiveAt    *time.Time `json:"last_active_at,omitempty" cbor:"last_active_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at" cbor:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" cbor:"updated_at"`
	// DeletedAt is a plain timestamp, not gorm.DeletedAt: soft deletion also
	// scrambles the email and clears the username, and deleted rows must stay
	// reachable for audit queries.
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty" cbor:"deleted_at,omitempty"`
}

// BeforeCreate hook to generate ID if not set
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID.IsZero() {
		p.ID = NewProfileID()
	}
	return nil
}

// IsDeleted reports whether the profile has been soft-deleted.
func (p *Profile) IsDeleted() bool {
	return p.DeletedAt != nil
}

// ComparisonSession is a conversation-like container holding the responses of
// several models to the same prompts. Legacy clients address it as a
// "conversation", so the outbound JSON carries conversationId and user
// aliases next to the canonical fields.
type ComparisonSession struct {
	ID         SessionID    `gorm:"type:uuid;primary_key" json:"conversationId" cbor:"id"`
	UserID     ProfileID    `gorm:"type:uuid;not null;index" json:"user" cbor:"user_id"`
	Title      string       `gorm:"default:New Comparison" json:"title" cbor:"title"`
	Endpoint   string       `json:"endpoint,omitempty" cbor:"endpoint,omitempty"`
	Model      string       `json:"model,omitempty" cbor:"model,omitempty"`
	Tags       StringList   `gorm:"type:jsonb" json:"tags,omitempty" cbor:"tags,omitempty"`
	Files      StringList   `gorm:"type:jsonb" json:"files,omitempty" cbor:"files,omitempty"`
	Responses  ResponseList `gorm:"type:jsonb" json:"responses" cbor:"responses"`
	IsArchived bool         `gorm:"not null;default:false" json:"isArchived" cbor:"is_archived"`
	// ExpiredAt is set only on ephemeral sessions; NULL means the session is
	// permanent. A session never holds both an expiry and permanence.
	ExpiredAt *time.Time `gorm:"index" json:"expiredAt,omitempty" cbor:"expired_at,omitempty"`
	CreatedAt time.Time  `json:"createdAt" cbor:"created_at"`
	UpdatedAt time.Time  `gorm:"index" json:"updatedAt" cbor:"updated_at"`
}

// BeforeCreate hook to generate ID if not set
func (s *ComparisonSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID.IsZero() {
		s.ID = NewSessionID()
	}
	return nil
}

// SetEphemeral stamps or clears the expiry according to the temporary flag.
func (s *ComparisonSession) SetEphemeral(temporary bool, retention time.Duration, now time.Time) {
	if temporary {
		expires := now.Add(retention)
		s.ExpiredAt = &expires
	} else {
		s.ExpiredAt = nil
	}
}

// IsEmpty reports whether the session has no title and no responses, the
// condition under which the cleanup pass removes it.
func (s *ComparisonSession) IsEmpty() bool {
	return s.Title == "" && len(s.Responses) == 0
}

// StoredFile is an uploaded file's database record. FileID is the external
// identifier the upload pipeline assigns and clients reference; ID is the
// row's own key. Freshly created files expire after an hour unless the write
// path disables the TTL; any later update or usage marks the file permanent.
type StoredFile struct {
	ID         FileID     `gorm:"type:uuid;primary_key" json:"id" cbor:"id"`
	UserID     ProfileID  `gorm:"type:uuid;not null;index" json:"user" cbor:"user_id"`
	FileID     string     `gorm:"unique;not null" json:"file_id" cbor:"file_id"`
	Filename   string     `gorm:"not null" json:"filename" cbor:"filename"`
	Filepath   string     `json:"filepath,omitempty" cbor:"filepath,omitempty"`
	Type       string     `json:"type,omitempty" cbor:"type,omitempty"`
	Context    string     `gorm:"index" json:"context,omitempty" cbor:"context,omitempty"`
	Source     string     `gorm:"default:local" json:"source" cbor:"source"`
	Bytes      int64      `json:"bytes,omitempty" cbor:"bytes,omitempty"`
	Width      *int       `json:"width,omitempty" cbor:"width,omitempty"`
	Height     *int       `json:"height,omitempty" cbor:"height,omitempty"`
	Embedded   bool       `gorm:"not null;default:false" json:"embedded" cbor:"embedded"`
	UsageCount int64      `gorm:"not null;default:0" json:"usage" cbor:"usage_count"`
	Metadata   JSONMap    `gorm:"type:jsonb" json:"metadata,omitempty" cbor:"metadata,omitempty"`
	ExpiresAt  *time.Time `gorm:"index" json:"expiresAt,omitempty" cbor:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"createdAt" cbor:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" cbor:"updated_at"`
}

// BeforeCreate hook to generate ID if not set
func (f *StoredFile) BeforeCreate(tx *gorm.DB) error {
	if f.ID.IsZero() {
		f.ID = NewFileID()
	}
	return nil
}

// ScoringTemplate is a saved rubric for grading model responses. PresetID is
// the legacy client-side identifier older installations still address
// templates by; lookups accept either key.
type ScoringTemplate struct {
	ID       TemplateID `gorm:"type:uuid;primary_key" json:"id" cbor:"id"`
	UserID   ProfileID  `gorm:"type:uuid;not null;index" json:"user" cbor:"user_id"`
	PresetID *string    `gorm:"index" json:"presetId,omitempty" cbor:"preset_id,omitempty"`
	Title    string     `gorm:"not null" json:"title" cbor:"title"`
	Category string     `gorm:"index" json:"category,omitempty" cbor:"category,omitempty"`
	Criteria JSONMap    `gorm:"type:jsonb" json:"criteria,omitempty" cbor:"criteria,omitempty"`
	// Order ranks templates in listings; NULL ranks last. The user's default
	// template always holds rank 0 and there is at most one default per user.
	Order      *int      `json:"order,omitempty" cbor:"order,omitempty"`
	IsDefault  bool      `gorm:"not null;default:false" json:"defaultPreset" cbor:"is_default"`
	IsPublic   bool      `gorm:"not null;default:false;index" json:"isPublic" cbor:"is_public"`
	UsageCount int64     `gorm:"not null;default:0" json:"usageCount" cbor:"usage_count"`
	CreatedAt  time.Time `json:"createdAt" cbor:"created_at"`
	UpdatedAt  time.Time `gorm:"index" json:"updatedAt" cbor:"updated_at"`
}

// BeforeCreate hook to generate ID if not set
func (t *ScoringTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID.IsZero() {
		t.ID = NewTemplateID()
	}
	return nil
}

// Transaction is an immutable token-ledger row. TokenValue is the signed
// amount applied to the profile balance (negative for spend); Type and Amount
// are the unsigned presentation of the same quantity.
type Transaction struct {
	ID        TransactionID   `gorm:"type:uuid;primary_key" json:"id" cbor:"id"`
	UserID    ProfileID       `gorm:"type:uuid;not null;index" json:"user" cbor:"user_id"`
	SessionID *SessionID      `gorm:"type:uuid;index" json:"conversationId,omitempty" cbor:"session_id,omitempty"`
	TokenType TokenType       `gorm:"not null" json:"tokenType" cbor:"token_type"`
	Context   string          `json:"context,omitempty" cbor:"context,omitempty"`
	Model     string          `json:"model,omitempty" cbor:"model,omitempty"`
	Type      TransactionType `gorm:"not null;index" json:"type" cbor:"type"`
	RawAmount int64           `json:"rawAmount" cbor:"raw_amount"`
	Rate      float64         `json:"rate" cbor:"rate"`
	// TokenValue is the signed balance delta; Amount = |TokenValue|.
	// Rates are fractional, so credit values are too.
	TokenValue float64 `gorm:"type:numeric" json:"tokenValue" cbor:"token_value"`
	Amount     float64 `gorm:"type:numeric;not null" json:"amount" cbor:"amount"`
	// Structured prompt accounting (cache-aware billing); nil on plain rows.
	InputTokens *int64    `json:"inputTokens,omitempty" cbor:"input_tokens,omitempty"`
	WriteTokens *int64    `json:"writeTokens,omitempty" cbor:"write_tokens,omitempty"`
	ReadTokens  *int64    `json:"readTokens,omitempty" cbor:"read_tokens,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt" cbor:"created_at"`
}

// BeforeCreate hook to generate ID if not set
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID.IsZero() {
		t.ID = NewTransactionID()
	}
	return nil
}
