package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/modelarena/modelarena/pkg/models"
	"github.com/modelarena/modelarena/pkg/store"
)

const defaultPageLimit = 25

func (s *Store) SaveSession(ctx context.Context, userID models.ProfileID, session *models.ComparisonSession, opts store.SessionSaveOptions) (*models.ComparisonSession, error) {
	now := time.Now().UTC()

	// New ID wins over old when the caller renames the session.
	targetID := session.ID
	if !opts.NewSessionID.IsZero() {
		targetID = opts.NewSessionID
	}

	creating := targetID.IsZero()
	if !creating {
		var count int64
		err := s.getDB().WithContext(ctx).Model(&models.ComparisonSession{}).
			Where("id = ? AND user_id = ?", targetID, userID).
			Count(&count).Error
		if err != nil {
			return nil, mapError("SaveSession", err)
		}
		creating = count == 0
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

	if creating {
		if err := s.getDB().WithContext(ctx).Create(session).Error; err != nil {
			return nil, mapError("SaveSession", err)
		}
		if err := s.IncrementComparisonCount(ctx, userID); err != nil {
			return nil, err
		}
	} else {
		if err := s.getDB().WithContext(ctx).Save(session).Error; err != nil {
			return nil, mapError("SaveSession", err)
		}
	}
	return session, nil
}

func (s *Store) BulkSaveSessions(ctx context.Context, userID models.ProfileID, sessions []*models.ComparisonSession) error {
	if len(sessions) == 0 {
		return nil
	}
	for _, session := range sessions {
		session.UserID = userID
		if session.ID.IsZero() {
			session.ID = models.NewSessionID()
		}
	}
	err := s.getDB().WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&sessions).Error
	return mapError("BulkSaveSessions", err)
}

func (s *Store) GetSession(ctx context.Context, userID models.ProfileID, id models.SessionID) (*models.ComparisonSession, error) {
	var session models.ComparisonSession
	err := s.getDB().WithContext(ctx).
		First(&session, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errorsIsNotFound(err) {
			return nil, nil
		}
		return nil, mapError("GetSession", err)
	}
	return &session, nil
}

func (s *Store) SearchSession(ctx context.Context, id models.SessionID) (*models.ComparisonSession, error) {
	var session models.ComparisonSession
	err := s.getDB().WithContext(ctx).First(&session, "id = ?", id).Error
	if err != nil {
		if errorsIsNotFound(err) {
			return nil, nil
		}
		return nil, mapError("SearchSession", err)
	}
	return &session, nil
}

func (s *Store) GetSessionTitle(ctx context.Context, userID models.ProfileID, id models.SessionID) (string, error) {
	var session models.ComparisonSession
	err := s.getDB().WithContext(ctx).Select("title").
		First(&session, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errorsIsNotFound(err) {
			return "", nil
		}
		return "", mapError("GetSessionTitle", err)
	}
	return session.Title, nil
}

func (s *Store) GetSessionFiles(ctx context.Context, id models.SessionID) ([]string, error) {
	var session models.ComparisonSession
	err := s.getDB().WithContext(ctx).Select("files").
		First(&session, "id = ?", id).Error
	if err != nil {
		if errorsIsNotFound(err) {
			return []string{}, nil
		}
		return nil, mapError("GetSessionFiles", err)
	}
	if session.Files == nil {
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

// listSessions is the single listing implementation behind both cursor
// operations. Expired sessions never appear.
func (s *Store) listSessions(ctx context.Context, userID models.ProfileID, ids []models.SessionID, params store.ListSessionsParams) (*store.SessionPage, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}

	q := s.getDB().WithContext(ctx).Model(&models.ComparisonSession{}).
		Where("user_id = ?", userID).
		Where("expired_at IS NULL")

	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	if params.IsArchived != nil {
		q = q.Where("is_archived = ?", *params.IsArchived)
	}
	for _, tag := range params.Tags {
		b, err := json.Marshal([]string{tag})
		if err != nil {
			return nil, mapError("ListSessions", err)
		}
		q = q.Where("tags @> ?", string(b))
	}
	if params.Search != "" {
		q = q.Where("title ILIKE ?", "%"+params.Search+"%")
	}

	asc := params.Order == "asc"
	if params.Cursor != "" {
		after, err := parseCursor(params.Cursor)
		if err != nil {
			return nil, err
		}
		// Strict comparison; rows sharing the boundary timestamp can be
		// skipped or repeated.
		if asc {
			q = q.Where("updated_at > ?", after)
		} else {
			q = q.Where("updated_at < ?", after)
		}
	}
	if asc {
		q = q.Order("updated_at ASC")
	} else {
		q = q.Order("updated_at DESC")
	}

	var rows []*models.ComparisonSession
	if err := q.Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, mapError("ListSessions", err)
	}
	if rows == nil {
		rows = []*models.ComparisonSession{}
	}

	page := store.PageFromRows(rows, limit, func(row *models.ComparisonSession) string {
		return cursorValue(row.UpdatedAt)
	})
	return &page, nil
}

func (s *Store) DeleteSessions(ctx context.Context, userID models.ProfileID, filter store.SessionDeleteFilter) (int64, error) {
	q := s.getDB().WithContext(ctx).Where("user_id = ?", userID)
	if len(filter.SessionIDs) > 0 {
		q = q.Where("id IN ?", filter.SessionIDs)
	}
	if filter.Endpoint != "" {
		q = q.Where("endpoint = ?", filter.Endpoint)
	}
	res := q.Delete(&models.ComparisonSession{})
	if res.Error != nil {
		return 0, mapError("DeleteSessions", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) DeleteEmptySessions(ctx context.Context) (int64, error) {
	res := s.getDB().WithContext(ctx).
		Where("(title IS NULL OR title = '')").
		Where("(responses IS NULL OR responses = '[]'::jsonb)").
		Delete(&models.ComparisonSession{})
	if res.Error != nil {
		return 0, mapError("DeleteEmptySessions", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	res := s.getDB().WithContext(ctx).
		Where("expired_at IS NOT NULL AND expired_at <= ?", time.Now().UTC()).
		Delete(&models.ComparisonSession{})
	if res.Error != nil {
		return 0, mapError("PurgeExpiredSessions", res.Error)
	}
	return res.RowsAffected, nil
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
	err = s.getDB().WithContext(ctx).Save(session).Error
	return mapError("SaveResponse", err)
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
	if err := s.getDB().WithContext(ctx).Save(session).Error; err != nil {
		return 0, mapError("DeleteResponses", err)
	}
	return removed, nil
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
