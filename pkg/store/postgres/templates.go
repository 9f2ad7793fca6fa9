package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/modelarena/modelarena/pkg/models"
	"github.com/modelarena/modelarena/pkg/store"
)

func (s *Store) SaveTemplate(ctx context.Context, template *models.ScoringTemplate, opts store.TemplateSaveOptions) (*models.ScoringTemplate, error) {
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

	// Promotion and the demotion of every other default land in one
	// transaction so no two templates hold the flag at once.
	err = s.getDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if opts.MakeDefault != nil && *opts.MakeDefault {
			err := tx.Model(&models.ScoringTemplate{}).
				Where("user_id = ? AND is_default = TRUE AND id <> ?", template.UserID, template.ID).
				Updates(map[string]any{"is_default": false, "order": nil}).Error
			if err != nil {
				return err
			}
		}
		return tx.Save(template).Error
	})
	if err != nil {
		return nil, mapError("SaveTemplate", err)
	}
	return template, nil
}

func (s *Store) GetTemplate(ctx context.Context, userID models.ProfileID, id models.TemplateID, presetID string) (*models.ScoringTemplate, error) {
	q := s.getDB().WithContext(ctx).Where("user_id = ?", userID)
	switch {
	case !id.IsZero() && presetID != "":
		q = q.Where("id = ? OR preset_id = ?", id, presetID)
	case !id.IsZero():
		q = q.Where("id = ?", id)
	case presetID != "":
		q = q.Where("preset_id = ?", presetID)
	default:
		return nil, nil
	}

	var template models.ScoringTemplate
	if err := q.First(&template).Error; err != nil {
		if errorsIsNotFound(err) {
			return nil, nil
		}
		return nil, mapError("GetTemplate", err)
	}
	return &template, nil
}

func (s *Store) ListTemplates(ctx context.Context, userID models.ProfileID, filter store.TemplateFilter) ([]*models.ScoringTemplate, error) {
	q := s.getDB().WithContext(ctx).Model(&models.ScoringTemplate{})
	if filter.IncludePublic {
		q = q.Where("user_id = ? OR is_public = TRUE", userID)
	} else {
		q = q.Where("user_id = ?", userID)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	// Rank first with absent ranks last, recency breaking ties.
	q = q.Order(`"order" ASC NULLS LAST`).Order("updated_at DESC")

	var templates []*models.ScoringTemplate
	if err := q.Find(&templates).Error; err != nil {
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
	var templates []*models.ScoringTemplate
	err := s.getDB().WithContext(ctx).
		Where("is_public = TRUE").
		Order("usage_count DESC").
		Limit(limit).
		Find(&templates).Error
	if err != nil {
		return nil, mapError("ListPublicTemplates", err)
	}
	if templates == nil {
		templates = []*models.ScoringTemplate{}
	}
	return templates, nil
}

func (s *Store) DeleteTemplates(ctx context.Context, userID models.ProfileID, ids []models.TemplateID) (int64, error) {
	q := s.getDB().WithContext(ctx).Where("user_id = ?", userID)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	res := q.Delete(&models.ScoringTemplate{})
	if res.Error != nil {
		return 0, mapError("DeleteTemplates", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) IncrementTemplateUsage(ctx context.Context, id models.TemplateID) error {
	res := s.getDB().WithContext(ctx).Model(&models.ScoringTemplate{}).
		Where("id = ?", id).
		Update("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return mapError("IncrementTemplateUsage", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.NewError(store.ErrCodeNotFound, "IncrementTemplateUsage: template not found", nil)
	}
	return nil
}
