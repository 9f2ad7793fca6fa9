package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/modelarena/modelarena/pkg/models"
	"github.com/modelarena/modelarena/pkg/store"
)

func (s *Store) FindProfile(ctx context.Context, filters []store.Filter, fields []string) (*models.Profile, error) {
	q := applyFilters(s.getDB().WithContext(ctx).Model(&models.Profile{}), filters)
	if len(fields) > 0 {
		q = q.Select(fields)
	}
	var profile models.Profile
	if err := q.First(&profile).Error; err != nil {
		if errorsIsNotFound(err) {
			return nil, nil
		}
		return nil, mapError("FindProfile", err)
	}
	return &profile, nil
}

func (s *Store) GetProfile(ctx context.Context, id models.ProfileID) (*models.Profile, error) {
	var profile models.Profile
	err := s.getDB().WithContext(ctx).First(&profile, "id = ?", id).Error
	if err != nil {
		if errorsIsNotFound(err) {
			return nil, nil
		}
		return nil, mapError("GetProfile", err)
	}
	return &profile, nil
}

func (s *Store) CreateProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	if err := s.getDB().WithContext(ctx).Create(profile).Error; err != nil {
		return nil, mapError("CreateProfile", err)
	}
	return profile, nil
}

// UpdateProfile applies a partial update. Dotted keys merge into the JSONB
// bag they address: {"preferences.theme": "dark"} rewrites only the theme key
// inside preferences via jsonb_set, leaving sibling keys alone.
func (s *Store) UpdateProfile(ctx context.Context, id models.ProfileID, updates map[string]any) (*models.Profile, error) {
	columns := make(map[string]any, len(updates))
	nested := make(map[string]clause.Expr)

	for key, value := range updates {
		column, sub, dotted := strings.Cut(key, ".")
		if !dotted {
			columns[key] = value
			continue
		}
		b, err := json.Marshal(value)
		if err != nil {
			return nil, store.NewError(store.ErrCodeDatabase, "UpdateProfile: encode "+key, err)
		}
		base, ok := nested[column]
		if !ok {
			base = gorm.Expr(fmt.Sprintf("COALESCE(%s, '{}'::jsonb)", column))
		}
		nested[column] = gorm.Expr("jsonb_set(?, ?::text[], ?::jsonb, true)", base, "{"+sub+"}", string(b))
	}
	for column, expr := range nested {
		columns[column] = expr
	}
	if len(columns) == 0 {
		return s.GetProfile(ctx, id)
	}

	res := s.getDB().WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", id).
		Updates(columns)
	if res.Error != nil {
		return nil, mapError("UpdateProfile", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, store.NewError(store.ErrCodeNotFound, "UpdateProfile: profile not found", nil)
	}
	return s.GetProfile(ctx, id)
}

func (s *Store) DeleteProfile(ctx context.Context, id models.ProfileID, hard bool) error {
	if hard {
		res := s.getDB().WithContext(ctx).Delete(&models.Profile{}, "id = ?", id)
		if res.Error != nil {
			return mapError("DeleteProfile", res.Error)
		}
		if res.RowsAffected == 0 {
			return store.NewError(store.ErrCodeNotFound, "DeleteProfile: profile not found", nil)
		}
		return nil
	}

	// Soft delete tombstones the row: the email is scrambled and the
	// username cleared so both unique slots free up for re-registration.
	now := time.Now().UTC()
	res := s.getDB().WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"deleted_at": now,
			"email":      fmt.Sprintf("deleted_%s@deleted.local", id),
			"username":   nil,
		})
	if res.Error != nil {
		return mapError("DeleteProfile", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.NewError(store.ErrCodeNotFound, "DeleteProfile: profile not found", nil)
	}
	return nil
}

func (s *Store) CountProfiles(ctx context.Context, filters []store.Filter) (int64, error) {
	var count int64
	q := applyFilters(s.getDB().WithContext(ctx).Model(&models.Profile{}), filters)
	if err := q.Count(&count).Error; err != nil {
		return 0, mapError("CountProfiles", err)
	}
	return count, nil
}

func (s *Store) ListProfilesByIDs(ctx context.Context, ids []models.ProfileID) ([]*models.Profile, error) {
	if len(ids) == 0 {
		return []*models.Profile{}, nil
	}
	var profiles []*models.Profile
	err := s.getDB().WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error
	if err != nil {
		return nil, mapError("ListProfilesByIDs", err)
	}
	if profiles == nil {
		profiles = []*models.Profile{}
	}
	return profiles, nil
}

func (s *Store) SearchProfiles(ctx context.Context, query string, limit int) ([]*models.Profile, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	pattern := "%" + query + "%"
	var profiles []*models.Profile
	err := s.getDB().WithContext(ctx).
		Where("email ILIKE ? OR username ILIKE ? OR name ILIKE ?", pattern, pattern, pattern).
		Limit(limit).
		Find(&profiles).Error
	if err != nil {
		return nil, mapError("SearchProfiles", err)
	}
	if profiles == nil {
		profiles = []*models.Profile{}
	}
	return profiles, nil
}

func (s *Store) TouchLastActive(ctx context.Context, id models.ProfileID) error {
	err := s.getDB().WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", id).
		Update("last_active_at", time.Now().UTC()).Error
	return mapError("TouchLastActive", err)
}

func (s *Store) IncrementComparisonCount(ctx context.Context, id models.ProfileID) error {
	err := s.getDB().WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", id).
		Update("comparison_count", gorm.Expr("comparison_count + 1")).Error
	return mapError("IncrementComparisonCount", err)
}

func (s *Store) RemainingComparisons(ctx context.Context, id models.ProfileID) (int64, error) {
	var profile models.Profile
	err := s.getDB().WithContext(ctx).Select("plan", "comparison_count").
		First(&profile, "id = ?", id).Error
	if err != nil {
		if errorsIsNotFound(err) {
			return 0, store.NewError(store.ErrCodeNotFound, "RemainingComparisons: profile not found", nil)
		}
		return 0, mapError("RemainingComparisons", err)
	}
	quota := s.policy.QuotaFor(profile.Plan)
	if quota < 0 {
		return -1, nil
	}
	remaining := quota - profile.ComparisonCount
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// UpdateBalance applies the delta and any extra column sets in one
// statement; the balance clamps at zero inside the expression, so concurrent
// debits cannot drive it negative.
func (s *Store) UpdateBalance(ctx context.Context, id models.ProfileID, delta float64, set map[string]any) (*store.Balance, error) {
	updates := map[string]any{
		"token_balance": gorm.Expr("GREATEST(token_balance + ?, 0)", delta),
	}
	for column, value := range set {
		updates[column] = value
	}

	res := s.getDB().WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return nil, mapError("UpdateBalance", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, store.NewError(store.ErrCodeNotFound, "UpdateBalance: profile not found", nil)
	}

	var profile models.Profile
	err := s.getDB().WithContext(ctx).Select("token_balance", "tokens_compared").
		First(&profile, "id = ?", id).Error
	if err != nil {
		return nil, mapError("UpdateBalance", err)
	}
	return &store.Balance{
		TokenBalance:   profile.TokenBalance,
		TokensCompared: profile.TokensCompared,
	}, nil
}
