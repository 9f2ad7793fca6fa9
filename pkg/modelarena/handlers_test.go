package modelarena

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelarena/modelarena/pkg/models"
	"github.com/modelarena/modelarena/pkg/store"
	"github.com/modelarena/modelarena/pkg/store/route"
	"github.com/modelarena/modelarena/pkg/store/storetest"
)

// newTestApp assembles an App over a fake store with the same read-only
// wrapper production uses.
func newTestApp(fake store.Store) *App {
	app := &App{
		config: &Config{Mode: route.ModeRelational, Policy: store.DefaultPolicy()},
		log:    zerolog.Nop(),
	}
	app.store = store.NewReadOnlyStore(fake, app.IsReadOnly)
	return app
}

func doRequest(t *testing.T, app *App, method, path string, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set(userHeader, userID)
	}
	rec := httptest.NewRecorder()
	app.routes().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	app := newTestApp(&storetest.Fake{})
	rec := doRequest(t, app, http.MethodGet, "/api/health", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "relational", body["mode"])
}

func TestHandleGetSession(t *testing.T) {
	userID := models.NewProfileID()
	sessionID := models.NewSessionID()
	want := &models.ComparisonSession{ID: sessionID, UserID: userID, Title: "GPT-4o vs Claude"}

	app := newTestApp(&storetest.Fake{
		GetSessionFn: func(ctx context.Context, uid models.ProfileID, id models.SessionID) (*models.ComparisonSession, error) {
			assert.Equal(t, userID, uid)
			assert.Equal(t, sessionID, id)
			return want, nil
		},
	})

	rec := doRequest(t, app, http.MethodGet, "/api/sessions/"+sessionID.String(), userID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.ComparisonSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "GPT-4o vs Claude", got.Title)
	assert.Equal(t, sessionID, got.ID)
}

func TestHandleGetSessionMiss(t *testing.T) {
	app := newTestApp(&storetest.Fake{})
	rec := doRequest(t, app, http.MethodGet, "/api/sessions/"+models.NewSessionID().String(), models.NewProfileID().String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetSessionBadInputs(t *testing.T) {
	app := newTestApp(&storetest.Fake{})

	// Missing user header.
	rec := doRequest(t, app, http.MethodGet, "/api/sessions/"+models.NewSessionID().String(), "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed session ID.
	rec = doRequest(t, app, http.MethodGet, "/api/sessions/not-a-uuid", models.NewProfileID().String(), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSaveSessionPassesOptions(t *testing.T) {
	userID := models.NewProfileID()
	renameTo := models.NewSessionID()

	var gotOpts store.SessionSaveOptions
	app := newTestApp(&storetest.Fake{
		SaveSessionFn: func(ctx context.Context, uid models.ProfileID, session *models.ComparisonSession, opts store.SessionSaveOptions) (*models.ComparisonSession, error) {
			gotOpts = opts
			return session, nil
		},
	})

	rec := doRequest(t, app, http.MethodPost, "/api/sessions", userID.String(), saveSessionRequest{
		Session:      &models.ComparisonSession{Title: "t"},
		NewSessionID: renameTo,
		IsTemporary:  true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, renameTo, gotOpts.NewSessionID)
	assert.True(t, gotOpts.IsTemporary)
}

func TestHandleListSessionsParams(t *testing.T) {
	userID := models.NewProfileID()

	var gotParams store.ListSessionsParams
	app := newTestApp(&storetest.Fake{
		ListSessionsFn: func(ctx context.Context, uid models.ProfileID, params store.ListSessionsParams) (*store.SessionPage, error) {
			gotParams = params
			return &store.SessionPage{Items: []*models.ComparisonSession{}}, nil
		},
	})

	rec := doRequest(t, app, http.MethodGet,
		"/api/sessions?cursor=c1&limit=10&isArchived=true&tags=work,research&search=sonnet", userID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "c1", gotParams.Cursor)
	assert.Equal(t, 10, gotParams.Limit)
	require.NotNil(t, gotParams.IsArchived)
	assert.True(t, *gotParams.IsArchived)
	assert.Equal(t, []string{"work", "research"}, gotParams.Tags)
	assert.Equal(t, "sonnet", gotParams.Search)
}

func TestHandleCreateProfileConflict(t *testing.T) {
	app := newTestApp(&storetest.Fake{
		CreateProfileFn: func(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
			return nil, store.NewError(store.ErrCodeDuplicateKey, "email already registered", nil)
		},
	})

	rec := doRequest(t, app, http.MethodPost, "/api/profiles", "", &models.Profile{Email: "a@b.c"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleNotImplementedStatus(t *testing.T) {
	app := newTestApp(&storetest.Fake{
		CreateFileFn: func(ctx context.Context, file *models.StoredFile, disableTTL bool) (*models.StoredFile, error) {
			return nil, store.NotImplemented("CreateFile")
		},
	})

	rec := doRequest(t, app, http.MethodPost, "/api/files", "", map[string]any{
		"file": &models.StoredFile{FileID: "f1", Filename: "a.txt"},
	})
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestHandleTransactionDisabledByPolicy(t *testing.T) {
	// A nil result means the ledger is switched off; the API reports that
	// rather than fabricating a row.
	app := newTestApp(&storetest.Fake{})

	rec := doRequest(t, app, http.MethodPost, "/api/transactions", "", store.TransactionRequest{
		UserID:    models.NewProfileID(),
		TokenType: models.TokenTypePrompt,
		Model:     "gpt-4o",
		RawAmount: -100,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body["recorded"])
}

func TestAdminReadOnlyToggle(t *testing.T) {
	app := newTestApp(&storetest.Fake{})

	rec := doRequest(t, app, http.MethodPost, "/api/admin/readonly", "", map[string]bool{"readOnly": true})
	require.Equal(t, http.StatusOK, rec.Code)

	// Writes now bounce off the read-only wrapper with 403.
	rec = doRequest(t, app, http.MethodDelete, "/api/files/f1", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Reads keep working.
	rec = doRequest(t, app, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Toggling back restores writes.
	rec = doRequest(t, app, http.MethodPost, "/api/admin/readonly", "", map[string]bool{"readOnly": false})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, app, http.MethodDelete, "/api/files/f1", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandleUpdateBalance(t *testing.T) {
	id := models.NewProfileID()
	app := newTestApp(&storetest.Fake{
		UpdateBalanceFn: func(ctx context.Context, pid models.ProfileID, delta float64, set map[string]any) (*store.Balance, error) {
			assert.Equal(t, id, pid)
			assert.Equal(t, -250.0, delta)
			return &store.Balance{TokenBalance: 750}, nil
		},
	})

	rec := doRequest(t, app, http.MethodPost, "/api/profiles/"+id.String()+"/balance", "", map[string]float64{"delta": -250})
	require.Equal(t, http.StatusOK, rec.Code)

	var balance store.Balance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &balance))
	assert.Equal(t, 750.0, balance.TokenBalance)
}
