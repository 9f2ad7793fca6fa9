package surreal

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/modelarena/modelarena/pkg/models"
	"github.com/modelarena/modelarena/pkg/store"
)

// fieldName guards identifiers interpolated into SurrealQL. Values always go
// through $params; only field names from facade internals appear inline, and
// this keeps even those to word characters and dots.
var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

func (s *Store) FindProfile(ctx context.Context, filters []store.Filter, fields []string) (*models.Profile, error) {
	projection := "*"
	if len(fields) > 0 {
		for _, f := range fields {
			if !fieldName.MatchString(f) {
				return nil, store.NewError(store.ErrCodeDatabase, "FindProfile: invalid field "+f, nil)
			}
		}
		projection = strings.Join(fields, ", ")
	}

	where, qp, err := buildWhere(filters)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM profiles WHERE %s LIMIT 1", projection, where)

	profile, err := queryOne[models.Profile](ctx, s, query, qp)
	if err != nil {
		return nil, mapError("FindProfile", err)
	}
	return profile, nil
}

// buildWhere translates the tagged filter variants into a SurrealQL WHERE
// body with $p0.. parameters.
func buildWhere(filters []store.Filter) (string, map[string]any, error) {
	if len(filters) == 0 {
		return "true", map[string]any{}, nil
	}
	clauses := make([]string, 0, len(filters))
	qp := make(map[string]any, len(filters))
	for i, f := range filters {
		if !fieldName.MatchString(f.Column) {
			return "", nil, store.NewError(store.ErrCodeDatabase, "invalid filter column "+f.Column, nil)
		}
		name := fmt.Sprintf("p%d", i)
		switch f.Op {
		case store.OpEquals:
			clauses = append(clauses, fmt.Sprintf("%s = $%s", f.Column, name))
			qp[name] = f.Value
		case store.OpNotEquals:
			clauses = append(clauses, fmt.Sprintf("%s != $%s", f.Column, name))
			qp[name] = f.Value
		case store.OpIn:
			clauses = append(clauses, fmt.Sprintf("%s IN $%s", f.Column, name))
			qp[name] = f.Value
		case store.OpIsNull:
			clauses = append(clauses, fmt.Sprintf("%s = NONE", f.Column))
		case store.OpNotNull:
			clauses = append(clauses, fmt.Sprintf("%s != NONE", f.Column))
		case store.OpGte:
			clauses = append(clauses, fmt.Sprintf("%s >= $%s", f.Column, name))
			qp[name] = f.Value
		case store.OpLte:
			clauses = append(clauses, fmt.Sprintf("%s <= $%s", f.Column, name))
			qp[name] = f.Value
		}
	}
	return strings.Join(clauses, " AND "), qp, nil
}

func (s *Store) GetProfile(ctx context.Context, id models.ProfileID) (*models.Profile, error) {
	profile, err := surrealdb.Select[models.Profile](ctx, s.db, id.RecordID())
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, mapError("GetProfile", err)
	}
	return profile, nil
}

func (s *Store) CreateProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	now := time.Now().UTC()
	if profile.ID.IsZero() {
		profile.ID = models.NewProfileID()
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	if _, err := surrealdb.Create[models.Profile](ctx, s.db, tableProfiles, profile); err != nil {
		return nil, mapError("CreateProfile", err)
	}
	return profile, nil
}

// UpdateProfile applies a partial update. Dotted keys address nested fields
// natively: SurrealQL assigns preferences.theme without rewriting the
// surrounding object.
func (s *Store) UpdateProfile(ctx context.Context, id models.ProfileID, updates map[string]any) (*models.Profile, error) {
	if len(updates) == 0 {
		return s.GetProfile(ctx, id)
	}

	sets := []string{"updated_at = $now"}
	qp := map[string]any{"id": id.RecordID(), "now": time.Now().UTC()}
	i := 0
	for key, value := range updates {
		if !fieldName.MatchString(key) {
			return nil, store.NewError(store.ErrCodeDatabase, "UpdateProfile: invalid field "+key, nil)
		}
		name := fmt.Sprintf("u%d", i)
		sets = append(sets, fmt.Sprintf("%s = $%s", key, name))
		qp[name] = value
		i++
	}

	query := "UPDATE $id SET " + strings.Join(sets, ", ") + " RETURN AFTER"
	rows, err := queryRows[models.Profile](ctx, s, query, qp)
	if err != nil {
		return nil, mapError("UpdateProfile", err)
	}
	if len(rows) == 0 {
		return nil, store.NewError(store.ErrCodeNotFound, "UpdateProfile: profile not found", nil)
	}
	return &rows[0], nil
}

func (s *Store) DeleteProfile(ctx context.Context, id models.ProfileID, hard bool) error {
	if hard {
		if _, err := surrealdb.Delete[models.Profile](ctx, s.db, id.RecordID()); err != nil {
			return mapError("DeleteProfile", err)
		}
		return nil
	}

	rows, err := queryRows[models.Profile](ctx, s,
		"UPDATE $id SET deleted_at = $now, email = $email, username = NONE, updated_at = $now RETURN AFTER",
		map[string]any{
			"id":    id.RecordID(),
			"now":   time.Now().UTC(),
			"email": fmt.Sprintf("deleted_%s@deleted.local", id),
		})
	if err != nil {
		return mapError("DeleteProfile", err)
	}
	if len(rows) == 0 {
		return store.NewError(store.ErrCodeNotFound, "DeleteProfile: profile not found", nil)
	}
	return nil
}

func (s *Store) CountProfiles(ctx context.Context, filters []store.Filter) (int64, error) {
	where, qp, err := buildWhere(filters)
	if err != nil {
		return 0, err
	}
	type countRow struct {
		Count int64 `cbor:"count" json:"count"`
	}
	row, err := queryOne[countRow](ctx, s,
		fmt.Sprintf("SELECT count() AS count FROM profiles WHERE %s GROUP ALL", where), qp)
	if err != nil {
		return 0, mapError("CountProfiles", err)
	}
	if row == nil {
		return 0, nil
	}
	return row.Count, nil
}

func (s *Store) ListProfilesByIDs(ctx context.Context, ids []models.ProfileID) ([]*models.Profile, error) {
	if len(ids) == 0 {
		return []*models.Profile{}, nil
	}
	rids := make([]any, len(ids))
	for i, id := range ids {
		rids[i] = id.RecordID()
	}
	profiles, err := queryRows[*models.Profile](ctx, s,
		"SELECT * FROM profiles WHERE id IN $ids",
		map[string]any{"ids": rids})
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
	profiles, err := queryRows[*models.Profile](ctx, s,
		fmt.Sprintf("SELECT * FROM profiles WHERE string::contains(string::lowercase(email ?? ''), $q) OR string::contains(string::lowercase(username ?? ''), $q) OR string::contains(string::lowercase(name ?? ''), $q) LIMIT %d", limit),
		map[string]any{"q": strings.ToLower(query)})
	if err != nil {
		return nil, mapError("SearchProfiles", err)
	}
	if profiles == nil {
		profiles = []*models.Profile{}
	}
	return profiles, nil
}

func (s *Store) TouchLastActive(ctx context.Context, id models.ProfileID) error {
	_, err := surrealdb.Query[any](ctx, s.db,
		"UPDATE $id SET last_active_at = $now, updated_at = $now",
		map[string]any{"id": id.RecordID(), "now": time.Now().UTC()})
	return mapError("TouchLastActive", err)
}

func (s *Store) IncrementComparisonCount(ctx context.Context, id models.ProfileID) error {
	_, err := surrealdb.Query[any](ctx, s.db,
		"UPDATE $id SET comparison_count += 1, updated_at = $now",
		map[string]any{"id": id.RecordID(), "now": time.Now().UTC()})
	return mapError("IncrementComparisonCount", err)
}

func (s *Store) RemainingComparisons(ctx context.Context, id models.ProfileID) (int64, error) {
	profile, err := s.GetProfile(ctx, id)
	if err != nil {
		return 0, err
	}
	if profile == nil {
		return 0, store.NewError(store.ErrCodeNotFound, "RemainingComparisons: profile not found", nil)
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

// UpdateBalance clamps inside the UPDATE expression, so concurrent debits
// cannot drive the balance negative.
func (s *Store) UpdateBalance(ctx context.Context, id models.ProfileID, delta float64, set map[string]any) (*store.Balance, error) {
	sets := []string{"token_balance = math::max(token_balance + $delta, 0)", "updated_at = $now"}
	qp := map[string]any{"id": id.RecordID(), "delta": delta, "now": time.Now().UTC()}
	i := 0
	for key, value := range set {
		if !fieldName.MatchString(key) {
			return nil, store.NewError(store.ErrCodeDatabase, "UpdateBalance: invalid field "+key, nil)
		}
		name := fmt.Sprintf("s%d", i)
		sets = append(sets, fmt.Sprintf("%s = $%s", key, name))
		qp[name] = value
		i++
	}

	query := "UPDATE $id SET " + strings.Join(sets, ", ") + " RETURN AFTER"
	rows, err := queryRows[models.Profile](ctx, s, query, qp)
	if err != nil {
		return nil, mapError("UpdateBalance", err)
	}
	if len(rows) == 0 {
		return nil, store.NewError(store.ErrCodeNotFound, "UpdateBalance: profile not found", nil)
	}
	return &store.Balance{
		TokenBalance:   rows[0].TokenBalance,
		TokensCompared: rows[0].TokensCompared,
	}, nil
}
