package modelarena

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/modelarena/modelarena/pkg/models"
	"github.com/modelarena/modelarena/pkg/store"
)

// userHeader carries the caller's profile ID. Authentication happens
// upstream (the identity provider terminates it); by the time a request
// reaches this server the gateway has already attached the verified ID.
const userHeader = "X-User-ID"

func userIDFrom(r *http.Request) (models.ProfileID, error) {
	return models.ParseProfileID(r.Header.Get(userHeader))
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"mode":   string(a.config.Mode),
	})
}

// Session handlers

type saveSessionRequest struct {
	Session      *models.ComparisonSession `json:"session"`
	NewSessionID models.SessionID          `json:"newConversationId,omitempty"`
	IsTemporary  bool                      `json:"isTemporary,omitempty"`
}

func (a *App) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or missing user ID")
		return
	}

	var req saveSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Session == nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	session, err := a.store.SaveSession(r.Context(), userID, req.Session, store.SessionSaveOptions{
		NewSessionID: req.NewSessionID,
		IsTemporary:  req.IsTemporary,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (a *App) handleBulkSaveSessions(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or missing user ID")
		return
	}

	var sessions []*models.ComparisonSession
	if err := json.NewDecoder(r.Body).Decode(&sessions); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := a.store.BulkSaveSessions(r.Context(), userID, sessions); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"saved": len(sessions)})
}

func (a *App) handleGetSession(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or missing user ID")
		return
	}
	id, err := models.ParseSessionID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	session, err := a.store.GetSession(r.Context(), userID, id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if session == nil {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (a *App) handleGetSessionTitle(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or missing user ID")
		return
	}
	id, err := models.ParseSessionID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	title, err := a.store.GetSessionTitle(r.Context(), userID, id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"title": title})
}

func (a *App) handleGetSessionFiles(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseSessionID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	files, err := a.store.GetSessionFiles(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]string{"files": files})
}

func (a *App) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or missing user ID")
		return
	}

	q := r.URL.Query()
	params := store.ListSessionsParams{
		Cursor: q.Get("cursor"),
		Search: q.Get("search"),
		Order:  q.Get("order"),
	}
	if v := q.Get("limit"); v != "" {
		params.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("isArchived"); v != "" {
		archived := v == "true"
		params.IsArchived = &archived
	}
	if v := q.Get("tags"); v != "" {
		params.Tags = strings.Split(v, ",")
	}

	// An explicit ID set turns the listing into ListSessionsByIDs with the
	// same cursor algorithm.
	if v := q.Get("ids"); v != "" {
		var ids []models.SessionID
		for _, raw := range strings.Split(v, ",") {
			id, err := models.ParseSessionID(raw)
			if err != nil {
				respondError(w, http.StatusBadRequest, "Invalid session ID in ids")
				return
			}
			ids = append(ids, id)
		}
		page, err := a.store.ListSessionsByIDs(r.Context(), userID, ids, params)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, page)
		return
	}

	page, err := a.store.ListSessions(r.Context(), userID, params)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

type deleteSessionsRequest struct {
	SessionIDs []models.SessionID `json:"conversationIds,omitempty"`
	Endpoint   string             `json:"endpoint,omitempty"`
}

func (a *App) handleDeleteSessions(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or missing user ID")
		return
	}

	// An empty body is a valid delete-all request.
	var req deleteSessionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	count, err := a.store.DeleteSessions(r.Context(), userID, store.SessionDeleteFilter{
		SessionIDs: req.SessionIDs,
		Endpoint:   req.Endpoint,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"deleted": count})
}

func (a *App) handleGetResponse(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or missing user ID")
		return
	}
	vars := mux.Vars(r)
	sessionID, err := models.ParseSessionID(vars["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	response, err := a.store.GetResponse(r.Context(), userID, sessionID, vars["responseId"])
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if response == nil {
		respondError(w, http.StatusNotFound, "Response not found")
		return
	}
	respondJSON(w, http.StatusOK, response)
}

func (a *App) handleSaveResponse(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or missing user ID")
		return
	}
	sessionID, err := models.ParseSessionID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	var response models.Response
	if err := json.NewDecoder(r.Body).Decode(&response); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := a.store.SaveResponse(r.Context(), userID, sessionID, response); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, response)
}

func (a *App) handleListResponses(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or missing user ID")
		return
	}
	sessionID, err := models.ParseSessionID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	responses, err := a.store.ListResponses(r.Context(), userID, sessionID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, responses)
}

func (a *App) handleDeleteResponses(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or missing user ID")
		return
	}
	sessionID, err := models.ParseSessionID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	var req struct {
		ResponseIDs []string `json:"responseIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	count, err := a.store.DeleteResponses(r.Context(), userID, sessionID, req.ResponseIDs)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"deleted": count})
}

// File handlers

func (a *App) handleCreateFile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		File       *models.StoredFile `json:"file"`
		DisableTTL bool               `json:"disableTTL,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.File == nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	file, err := a.store.CreateFile(r.Context(), req.File, req.DisableTTL)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, file)
}

func (a *App) handleGetFile(w http.ResponseWriter, r *http.Request) {
	file, err := a.store.FindFile(r.Context(), mux.Vars(r)["fileId"])
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if file == nil {
		respondError(w, http.StatusNotFound, "File not found")
		return
	}
	respondJSON(w, http.StatusOK, file)
}

func (a *App) handleUpdateFile(w http.ResponseWriter, r *http.Request) {
	var update store.FileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	file, err := a.store.UpdateFile(r.Context(), mux.Vars(r)["fileId"], update)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, file)
}

func (a *App) handleTouchFile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Inc int64 `json:"inc,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
	}

	file, err := a.store.TouchFileUsage(r.Context(), mux.Vars(r)["fileId"], req.Inc)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, file)
}

func (a *App) handleListFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.FileFilter{
		Context: q.Get("context"),
		Source:  q.Get("source"),
		Sort:    q.Get("sort"),
	}
	if v := q.Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("fileIds"); v != "" {
		filter.FileIDs = strings.Split(v, ",")
	}
	if v := q.Get("userId"); v != "" {
		userID, err := models.ParseProfileID(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user ID")
			return
		}
		filter.UserID = &userID
	}

	// Tool-resource listings share the endpoint; the parameter narrows by
	// context server-side.
	if tool := q.Get("toolResource"); tool != "" {
		files, err := a.store.ListToolFiles(r.Context(), filter.FileIDs, tool)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, files)
		return
	}

	files, err := a.store.ListFiles(r.Context(), filter)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, files)
}

func (a *App) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := a.store.DeleteFile(r.Context(), mux.Vars(r)["fileId"]); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (a *App) handleDeleteFiles(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileIDs []string          `json:"fileIds,omitempty"`
		UserID  *models.ProfileID `json:"userId,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	count, err := a.store.DeleteFiles(r.Context(), req.FileIDs, req.UserID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"deleted": count})
}

// Template handlers

func (a *App) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Template    *models.ScoringTemplate `json:"template"`
		MakeDefault *bool                   `json:"makeDefault,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Template == nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	template, err := a.store.SaveTemplate(r.Context(), req.Template, store.TemplateSaveOptions{
		MakeDefault: req.MakeDefault,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, template)
}

func (a *App) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or missing user ID")
		return
	}

	// The path segment is a row ID unless it fails to parse, in which case
	// it is treated as a legacy preset ID.
	raw := mux.Vars(r)["id"]
	var id models.TemplateID
	presetID := ""
	if parsed, err := models.ParseTemplateID(raw); err == nil {
		id = parsed
	} else {
		presetID = raw
	}

	template, err := a.store.GetTemplate(r.Context(), userID, id, presetID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if template == nil {
		respondError(w, http.StatusNotFound, "Template not found")
		return
	}
	respondJSON(w, http.StatusOK, template)
}

func (a *App) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or missing user ID")
		return
	}

	q := r.URL.Query()
	templates, err := a.store.ListTemplates(r.Context(), userID, store.TemplateFilter{
		Category:      q.Get("category"),
		IncludePublic: q.Get("includePublic") == "true",
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, templates)
}

func (a *App) handleListPublicTemplates(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	templates, err := a.store.ListPublicTemplates(r.Context(), limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, templates)
}

func (a *App) handleDeleteTemplates(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or missing user ID")
		return
	}

	var req struct {
		IDs []models.TemplateID `json:"ids,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	count, err := a.store.DeleteTemplates(r.Context(), userID, req.IDs)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"deleted": count})
}

func (a *App) handleUseTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseTemplateID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid template ID")
		return
	}

	if err := a.store.IncrementTemplateUsage(r.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Profile handlers

func (a *App) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var profile models.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	created, err := a.store.CreateProfile(r.Context(), &profile)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (a *App) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseProfileID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid profile ID")
		return
	}

	profile, err := a.store.GetProfile(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if profile == nil {
		respondError(w, http.StatusNotFound, "Profile not found")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (a *App) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseProfileID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid profile ID")
		return
	}

	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	profile, err := a.store.UpdateProfile(r.Context(), id, updates)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (a *App) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseProfileID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid profile ID")
		return
	}

	hard := r.URL.Query().Get("hard") == "true"
	if err := a.store.DeleteProfile(r.Context(), id, hard); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (a *App) handleSearchProfiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	profiles, err := a.store.SearchProfiles(r.Context(), q.Get("q"), limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profiles)
}

func (a *App) handleRemainingComparisons(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseProfileID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid profile ID")
		return
	}

	remaining, err := a.store.RemainingComparisons(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"remaining": remaining})
}

func (a *App) handleUpdateBalance(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseProfileID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid profile ID")
		return
	}

	var req struct {
		Delta float64 `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	balance, err := a.store.UpdateBalance(r.Context(), id, req.Delta, nil)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, balance)
}

// Transaction handlers

func (a *App) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req store.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	result, err := a.store.CreateTransaction(r.Context(), req)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if result == nil {
		// Ledger disabled by policy.
		respondJSON(w, http.StatusOK, map[string]bool{"recorded": false})
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (a *App) handleCreateStructuredTransaction(w http.ResponseWriter, r *http.Request) {
	var req store.StructuredTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	result, err := a.store.CreateStructuredTransaction(r.Context(), req)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if result == nil {
		respondJSON(w, http.StatusOK, map[string]bool{"recorded": false})
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (a *App) handleAutoRefill(w http.ResponseWriter, r *http.Request) {
	var req store.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	result, err := a.store.CreateAutoRefillTransaction(r.Context(), req)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if result == nil {
		respondJSON(w, http.StatusOK, map[string]bool{"recorded": false})
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (a *App) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, err := models.ParseProfileID(q.Get("userId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or missing user ID")
		return
	}

	filter := store.TransactionFilter{
		UserID:    userID,
		Type:      models.TransactionType(q.Get("type")),
		TokenType: models.TokenType(q.Get("tokenType")),
	}
	if v := q.Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("conversationId"); v != "" {
		sessionID, err := models.ParseSessionID(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid session ID")
			return
		}
		filter.SessionID = &sessionID
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid since time")
			return
		}
		filter.Since = &since
	}
	if v := q.Get("until"); v != "" {
		until, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid until time")
			return
		}
		filter.Until = &until
	}

	txns, err := a.store.ListTransactions(r.Context(), filter)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, txns)
}

// Administration handlers

func (a *App) handleGetReadOnly(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{"readOnly": a.IsReadOnly()})
}

func (a *App) handleSetReadOnly(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReadOnly bool `json:"readOnly"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	a.SetReadOnly(req.ReadOnly)
	respondJSON(w, http.StatusOK, map[string]bool{"readOnly": a.IsReadOnly()})
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStoreError maps the taxonomy onto HTTP statuses so clients can act
// on the class of failure without parsing messages.
func respondStoreError(w http.ResponseWriter, err error) {
	var serr *store.Error
	if !errors.As(err, &serr) {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	switch serr.Code {
	case store.ErrCodeDuplicateKey, store.ErrCodeForeignKey:
		respondError(w, http.StatusConflict, serr.Message)
	case store.ErrCodePermissionDenied:
		respondError(w, http.StatusForbidden, serr.Message)
	case store.ErrCodeNotFound:
		respondError(w, http.StatusNotFound, serr.Message)
	case store.ErrCodeNotImplemented:
		respondError(w, http.StatusNotImplemented, serr.Message)
	default:
		respondError(w, http.StatusInternalServerError, serr.Message)
	}
}
