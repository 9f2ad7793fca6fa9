package surreal

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/modelarena/modelarena/pkg/models"
	"github.com/modelarena/modelarena/pkg/store"
)

const defaultPageLimit = 25

func (s *Store) SaveSession(ctx context.Context, userID models.ProfileID, session *models.ComparisonSession, opts store.SessionSaveOptions) (*models.ComparisonSession, error) {
	now := time.Now().UTC()

	targetID := session.ID
	if !opts.NewSessionID.IsZero() {
		targetID = opts.NewSessionID
	}

	creating := targetID.IsZero()
	if !creating {
		existing, err := queryOne[models.ComparisonSession](ctx, s,
			"SELECT * FROM comparison_sessions WHERE id = $id AND user_id = $user LIMIT 1",
			map[string]any{"id": targetID, "user": userID})
		if err != nil {
			return nil, mapError("SaveSession", err)
		}
		creating = existing == nil
	} else {
		targetID = models.NewSessionID()
	}

	retention := opts.Retention
	if retention <= 0 {
		retention = s.policy.SessionRetention
	}

	session.ID = targetID
	session.UserID = userID
	session.SetEphemeral(opts.IsTemporary, retention, now)
	session.UpdatedAt = now

	if creating {
		if session.CreatedAt.IsZero() {
			session.CreatedAt = now
		}
		if _, err := surrealdb.Create[models.ComparisonSession](ctx, s.db, tableSessions, session); err != nil {
			return nil, mapError("SaveSession", err)
		}
		if err := s.IncrementComparisonCount(ctx, userID); err != nil {
			return nil, err
		}
	} else {
		if _, err := surrealdb.Update[models.ComparisonSession](ctx, s.db, session.ID.RecordID(), session); err != nil {
			return nil, mapError("SaveSession", err)
		}
	}
	return session, nil
}

func (s *Store) BulkSaveSessions(ctx context.Context, userID models.ProfileID, sessions []*models.ComparisonSession) error {
	now := time.Now().UTC()
	for _, session := range sessions {
		session.UserID = userID
		if session.ID.IsZero() {
			session.ID = models.NewSessionID()
		}
		if session.CreatedAt.IsZero() {
			session.CreatedAt = now
		}
		session.UpdatedAt = now
		// Upsert keyed on the record ID; UPSERT writes through whether or
		// not the record exists.
		_, err := surrealdb.Query[any](ctx, s.db,
			"UPSERT $id CONTENT $content",
			map[string]any{"id": session.ID.RecordID(), "content": session})
		if err != nil {
			return mapError("BulkSaveSessions", err)
		}
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, userID models.ProfileID, id models.SessionID) (*models.ComparisonSession, error) {
	session, err := queryOne[models.ComparisonSession](ctx, s,
		"SELECT * FROM comparison_sessions WHERE id = $id AND user_id = $user LIMIT 1",
		map[string]any{"id": id, "user": userID})
	if err != nil {
		return nil, mapError("GetSession", err)
	}
	return session, nil
}

func (s *Store) SearchSession(ctx context.Context, id models.SessionID) (*models.ComparisonSession, error) {
	session, err := surrealdb.Select[models.ComparisonSession](ctx, s.db, id.RecordID())
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, mapError("SearchSession", err)
	}
	return session, nil
}

func (s *Store) GetSessionTitle(ctx context.Context, userID models.ProfileID, id models.SessionID) (string, error) {
	session, err := s.GetSession(ctx, userID, id)
	if err != nil || session == nil {
		return "", err
	}
	return session.Title, nil
}

func (s *Store) GetSessionFiles(ctx context.Context, id models.SessionID) ([]string, error) {
	session, err := s.SearchSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil || session.Files == nil {
		return []string{}, nil
	}
	return session.Files, nil
}

func (s *Store) ListSessions(ctx context.Context, userID models.ProfileID, params store.ListSessionsParams) (*store.SessionPage, error) {
	return s.listSessions(ctx, userID, nil, params)
}

func (s *Store) ListSessionsByIDs(ctx context.Context, userID models.ProfileID, ids []models.SessionID, params store.ListSessionsParams) (*store.SessionPage, error) {
	if len(ids) == 0 {
		return &store.SessionPage{Items: []*models.ComparisonSession{}}, nil
	}
	return s.listSessions(ctx, userID, ids, params)
}

func (s *Store) listSessions(ctx context.Context, userID models.ProfileID, ids []models.SessionID, params store.ListSessionsParams) (*store.SessionPage, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}

	query := "SELECT * FROM comparison_sessions WHERE user_id = $user AND expired_at = NONE"
	qp := map[string]any{"user": userID}

	if len(ids) > 0 {
		rids := make([]any, len(ids))
		for i, id := range ids {
			rids[i] = id.RecordID()
		}
		query += " AND id IN $ids"
		qp["ids"] = rids
	}
	if params.IsArchived != nil {
		query += " AND is_archived = $archived"
		qp["archived"] = *params.IsArchived
	}
	for i, tag := range params.Tags {
		name := fmt.Sprintf("tag%d", i)
		query += fmt.Sprintf(" AND $%s IN tags", name)
		qp[name] = tag
	}
	if params.Search != "" {
		query += " AND string::contains(string::lowercase(title ?? ''), string::lowercase($search))"
		qp["search"] = params.Search
	}

	asc := params.Order == "asc"
	if params.Cursor != "" {
		after, err := time.Parse(time.RFC3339Nano, params.Cursor)
		if err != nil {
			return nil, store.NewError(store.ErrCodeDatabase, "invalid pagination cursor", err)
		}
		// Strict comparison; boundary-timestamp ties can skip or repeat.
		if asc {
			query += " AND updated_at > $cursor"
		} else {
			query += " AND updated_at < $cursor"
		}
		qp["cursor"] = after
	}
	if asc {
		query += " ORDER BY updated_at ASC"
	} else {
		query += " ORDER BY updated_at DESC"
	}
	query += fmt.Sprintf(" LIMIT %d", limit+1)

	rows, err := queryRows[*models.ComparisonSession](ctx, s, query, qp)
	if err != nil {
		return nil, mapError("ListSessions", err)
	}
	if rows == nil {
		rows = []*models.ComparisonSession{}
	}

	page := store.PageFromRows(rows, limit, func(row *models.ComparisonSession) string {
		return row.UpdatedAt.UTC().Format(time.RFC3339Nano)
	})
	return &page, nil
}

func (s *Store) DeleteSessions(ctx context.Context, userID models.ProfileID, filter store.SessionDeleteFilter) (int64, error) {
	query := "DELETE comparison_sessions WHERE user_id = $user"
	qp := map[string]any{"user": userID}
	if len(filter.SessionIDs) > 0 {
		rids := make([]any, len(filter.SessionIDs))
		for i, id := range filter.SessionIDs {
			rids[i] = id.RecordID()
		}
		query += " AND id IN $ids"
		qp["ids"] = rids
	}
	if filter.Endpoint != "" {
		query += " AND endpoint = $endpoint"
		qp["endpoint"] = filter.Endpoint
	}
	query += " RETURN BEFORE"

	deleted, err := queryRows[models.ComparisonSession](ctx, s, query, qp)
	if err != nil {
		return 0, mapError("DeleteSessions", err)
	}
	return int64(len(deleted)), nil
}

func (s *Store) DeleteEmptySessions(ctx context.Context) (int64, error) {
	query := "DELETE comparison_sessions WHERE (title = NONE OR title = '') AND (responses = NONE OR array::len(responses) = 0) RETURN BEFORE"
	deleted, err := queryRows[models.ComparisonSession](ctx, s, query, nil)
	if err != nil {
		return 0, mapError("DeleteEmptySessions", err)
	}
	return int64(len(deleted)), nil
}

func (s *Store) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	deleted, err := queryRows[models.ComparisonSession](ctx, s,
		"DELETE comparison_sessions WHERE expired_at != NONE AND expired_at <= $now RETURN BEFORE",
		map[string]any{"now": time.Now().UTC()})
	if err != nil {
		return 0, mapError("PurgeExpiredSessions", err)
	}
	return int64(len(deleted)), nil
}

func (s *Store) GetResponse(ctx context.Context, userID models.ProfileID, sessionID models.SessionID, responseID string) (*models.Response, error) {
	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil || session == nil {
		return nil, err
	}
	for i := range session.Responses {
		if session.Responses[i].ResponseID == responseID {
			return &session.Responses[i], nil
		}
	}
	return nil, nil
}

func (s *Store) SaveResponse(ctx context.Context, userID models.ProfileID, sessionID models.SessionID, response models.Response) error {
	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return store.NewError(store.ErrCodeNotFound, "SaveResponse: session not found", nil)
	}
	session.Responses = session.Responses.Upsert(response)
	session.UpdatedAt = time.Now().UTC()
	if _, err := surrealdb.Update[models.ComparisonSession](ctx, s.db, session.ID.RecordID(), session); err != nil {
		return mapError("SaveResponse", err)
	}
	return nil
}

func (s *Store) ListResponses(ctx context.Context, userID models.ProfileID, sessionID models.SessionID) ([]models.Response, error) {
	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.Responses == nil {
		return []models.Response{}, nil
	}
	return session.Responses, nil
}

func (s *Store) DeleteResponses(ctx context.Context, userID models.ProfileID, sessionID models.SessionID, responseIDs []string) (int64, error) {
	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return 0, err
	}
	if session == nil {
		return 0, nil
	}
	kept, removed := session.Responses.Remove(responseIDs)
	if removed == 0 {
		return 0, nil
	}
	session.Responses = kept
	session.UpdatedAt = time.Now().UTC()
	if _, err := surrealdb.Update[models.ComparisonSession](ctx, s.db, session.ID.RecordID(), session); err != nil {
		return 0, mapError("DeleteResponses", err)
	}
	return removed, nil
}
