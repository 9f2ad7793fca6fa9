package surreal

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/modelarena/modelarena/pkg/models"
	"github.com/modelarena/modelarena/pkg/store"
)

func (s *Store) SaveTemplate(ctx context.Context, template *models.ScoringTemplate, opts store.TemplateSaveOptions) (*models.ScoringTemplate, error) {
	now := time.Now().UTC()

	presetID := ""
	if template.PresetID != nil {
		presetID = *template.PresetID
	}
	existing, err := s.GetTemplate(ctx, template.UserID, template.ID, presetID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		template.ID = existing.ID
		template.CreatedAt = existing.CreatedAt
	} else if template.ID.IsZero() {
		template.ID = models.NewTemplateID()
	}

	if opts.MakeDefault != nil {
		if *opts.MakeDefault {
			rank := 0
			template.IsDefault = true
			template.Order = &rank
		} else {
			template.IsDefault = false
			template.Order = nil
		}
	}
	template.UpdatedAt = now
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}

	// Promotion demotes every other default in the same statement batch so
	// no two templates hold the flag at once.
	if opts.MakeDefault != nil && *opts.MakeDefault {
		_, err := surrealdb.Query[any](ctx, s.db,
			"UPDATE scoring_templates SET is_default = false, `order` = NONE, updated_at = $now WHERE user_id = $user AND is_default = true AND id != $id",
			map[string]any{"user": template.UserID, "id": template.ID, "now": now})
		if err != nil {
			return nil, mapError("SaveTemplate", err)
		}
	}

	if existing != nil {
		if _, err := surrealdb.Update[models.ScoringTemplate](ctx, s.db, template.ID.RecordID(), template); err != nil {
			return nil, mapError("SaveTemplate", err)
		}
	} else {
		if _, err := surrealdb.Create[models.ScoringTemplate](ctx, s.db, tableTemplates, template); err != nil {
			return nil, mapError("SaveTemplate", err)
		}
	}
	return template, nil
}

func (s *Store) GetTemplate(ctx context.Context, userID models.ProfileID, id models.TemplateID, presetID string) (*models.ScoringTemplate, error) {
	query := "SELECT * FROM scoring_templates WHERE user_id = $user"
	qp := map[string]any{"user": userID}
	switch {
	case !id.IsZero() && presetID != "":
		query += " AND (id = $id OR preset_id = $preset)"
		qp["id"] = id
		qp["preset"] = presetID
	case !id.IsZero():
		query += " AND id = $id"
		qp["id"] = id
	case presetID != "":
		query += " AND preset_id = $preset"
		qp["preset"] = presetID
	default:
		return nil, nil
	}
	query += " LIMIT 1"

	template, err := queryOne[models.ScoringTemplate](ctx, s, query, qp)
	if err != nil {
		return nil, mapError("GetTemplate", err)
	}
	return template, nil
}

func (s *Store) ListTemplates(ctx context.Context, userID models.ProfileID, filter store.TemplateFilter) ([]*models.ScoringTemplate, error) {
	query := "SELECT *, `order` ?? 10000 AS sort_rank FROM scoring_templates WHERE "
	qp := map[string]any{"user": userID}
	if filter.IncludePublic {
		query += "(user_id = $user OR is_public = true)"
	} else {
		query += "user_id = $user"
	}
	if filter.Category != "" {
		query += " AND category = $category"
		qp["category"] = filter.Category
	}
	// Absent ranks coalesce high so they sort last; recency breaks ties.
	query += " ORDER BY sort_rank ASC, updated_at DESC"

	templates, err := queryRows[*models.ScoringTemplate](ctx, s, query, qp)
	if err != nil {
		return nil, mapError("ListTemplates", err)
	}
	if templates == nil {
		templates = []*models.ScoringTemplate{}
	}
	return templates, nil
}

func (s *Store) ListPublicTemplates(ctx context.Context, limit int) ([]*models.ScoringTemplate, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	templates, err := queryRows[*models.ScoringTemplate](ctx, s,
		fmt.Sprintf("SELECT * FROM scoring_templates WHERE is_public = true ORDER BY usage_count DESC LIMIT %d", limit),
		nil)
	if err != nil {
		return nil, mapError("ListPublicTemplates", err)
	}
	if templates == nil {
		templates = []*models.ScoringTemplate{}
	}
	return templates, nil
}

func (s *Store) DeleteTemplates(ctx context.Context, userID models.ProfileID, ids []models.TemplateID) (int64, error) {
	query := "DELETE scoring_templates WHERE user_id = $user"
	qp := map[string]any{"user": userID}
	if len(ids) > 0 {
		rids := make([]any, len(ids))
		for i, id := range ids {
			rids[i] = id.RecordID()
		}
		query += " AND id IN $ids"
		qp["ids"] = rids
	}
	query += " RETURN BEFORE"

	deleted, err := queryRows[models.ScoringTemplate](ctx, s, query, qp)
	if err != nil {
		return 0, mapError("DeleteTemplates", err)
	}
	return int64(len(deleted)), nil
}

func (s *Store) IncrementTemplateUsage(ctx context.Context, id models.TemplateID) error {
	rows, err := queryRows[models.ScoringTemplate](ctx, s,
		"UPDATE $id SET usage_count += 1, updated_at = $now RETURN AFTER",
		map[string]any{"id": id.RecordID(), "now": time.Now().UTC()})
	if err != nil {
		return mapError("IncrementTemplateUsage", err)
	}
	if len(rows) == 0 {
		return store.NewError(store.ErrCodeNotFound, "IncrementTemplateUsage: template not found", nil)
	}
	return nil
}
