package surreal

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/modelarena/modelarena/pkg/models"
	"github.com/modelarena/modelarena/pkg/store"
)

func (s *Store) CreateFile(ctx context.Context, file *models.StoredFile, disableTTL bool) (*models.StoredFile, error) {
	now := time.Now().UTC()
	if disableTTL {
		file.ExpiresAt = nil
	} else {
		expires := now.Add(s.policy.FileTTL)
		file.ExpiresAt = &expires
	}
	file.UpdatedAt = now

	existing, err := s.FindFile(ctx, file.FileID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		// Replace the row's content but keep its key and creation time.
		file.ID = existing.ID
		file.CreatedAt = existing.CreatedAt
		if _, err := surrealdb.Update[models.StoredFile](ctx, s.db, file.ID.RecordID(), file); err != nil {
			return nil, mapError("CreateFile", err)
		}
		return file, nil
	}

	if file.ID.IsZero() {
		file.ID = models.NewFileID()
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = now
	}
	if _, err := surrealdb.Create[models.StoredFile](ctx, s.db, tableFiles, file); err != nil {
		return nil, mapError("CreateFile", err)
	}
	return file, nil
}

func (s *Store) UpdateFile(ctx context.Context, fileID string, update store.FileUpdate) (*models.StoredFile, error) {
	sets := []string{"expires_at = NONE", "updated_at = $now"}
	qp := map[string]any{"fid": fileID, "now": time.Now().UTC()}

	assign := func(field string, value any) {
		name := "v_" + field
		sets = append(sets, fmt.Sprintf("%s = $%s", field, name))
		qp[name] = value
	}
	if update.Filename != nil {
		assign("filename", *update.Filename)
	}
	if update.Filepath != nil {
		assign("filepath", *update.Filepath)
	}
	if update.Type != nil {
		assign("type", *update.Type)
	}
	if update.Context != nil {
		assign("context", *update.Context)
	}
	if update.Source != nil {
		assign("source", *update.Source)
	}
	if update.Bytes != nil {
		assign("bytes", *update.Bytes)
	}
	if update.Embedded != nil {
		assign("embedded", *update.Embedded)
	}
	if update.Metadata != nil {
		assign("metadata", update.Metadata)
	}

	query := "UPDATE files SET " + strings.Join(sets, ", ") + " WHERE file_id = $fid RETURN AFTER"
	rows, err := queryRows[models.StoredFile](ctx, s, query, qp)
	if err != nil {
		return nil, mapError("UpdateFile", err)
	}
	if len(rows) == 0 {
		return nil, store.NewError(store.ErrCodeNotFound, "UpdateFile: file not found", nil)
	}
	return &rows[0], nil
}

func (s *Store) TouchFileUsage(ctx context.Context, fileID string, inc int64) (*models.StoredFile, error) {
	if inc == 0 {
		inc = 1
	}
	rows, err := queryRows[models.StoredFile](ctx, s,
		"UPDATE files SET usage_count += $inc, expires_at = NONE, metadata.temp_file_id = NONE, updated_at = $now WHERE file_id = $fid RETURN AFTER",
		map[string]any{"inc": inc, "fid": fileID, "now": time.Now().UTC()})
	if err != nil {
		return nil, mapError("TouchFileUsage", err)
	}
	if len(rows) == 0 {
		return nil, store.NewError(store.ErrCodeNotFound, "TouchFileUsage: file not found", nil)
	}
	return &rows[0], nil
}

func (s *Store) FindFile(ctx context.Context, fileID string) (*models.StoredFile, error) {
	file, err := queryOne[models.StoredFile](ctx, s,
		"SELECT * FROM files WHERE file_id = $fid LIMIT 1",
		map[string]any{"fid": fileID})
	if err != nil {
		return nil, mapError("FindFile", err)
	}
	return file, nil
}

func (s *Store) ListFiles(ctx context.Context, filter store.FileFilter) ([]*models.StoredFile, error) {
	query := "SELECT * FROM files WHERE true"
	qp := map[string]any{}
	if filter.UserID != nil {
		query += " AND user_id = $user"
		qp["user"] = *filter.UserID
	}
	if len(filter.FileIDs) > 0 {
		query += " AND file_id IN $fids"
		qp["fids"] = filter.FileIDs
	}
	if filter.Context != "" {
		query += " AND context = $context"
		qp["context"] = filter.Context
	}
	if filter.Source != "" {
		query += " AND source = $source"
		qp["source"] = filter.Source
	}
	if column, desc := (store.Options{Sort: filter.Sort}).SortColumn(); column != "" {
		dir := "ASC"
		if desc {
			dir = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY %s %s", column, dir)
	} else {
		query += " ORDER BY created_at DESC"
	}
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	files, err := queryRows[*models.StoredFile](ctx, s, query, qp)
	if err != nil {
		return nil, mapError("ListFiles", err)
	}
	if files == nil {
		files = []*models.StoredFile{}
	}
	return files, nil
}

func (s *Store) ListToolFiles(ctx context.Context, fileIDs []string, toolResource string) ([]*models.StoredFile, error) {
	if len(fileIDs) == 0 {
		return []*models.StoredFile{}, nil
	}
	files, err := queryRows[*models.StoredFile](ctx, s,
		"SELECT * FROM files WHERE file_id IN $fids AND context = $context",
		map[string]any{"fids": fileIDs, "context": toolResource})
	if err != nil {
		return nil, mapError("ListToolFiles", err)
	}
	if files == nil {
		files = []*models.StoredFile{}
	}
	return files, nil
}

func (s *Store) DeleteFile(ctx context.Context, fileID string) error {
	deleted, err := queryRows[models.StoredFile](ctx, s,
		"DELETE files WHERE file_id = $fid RETURN BEFORE",
		map[string]any{"fid": fileID})
	if err != nil {
		return mapError("DeleteFile", err)
	}
	if len(deleted) == 0 {
		return store.NewError(store.ErrCodeNotFound, "DeleteFile: file not found", nil)
	}
	return nil
}

func (s *Store) DeleteFiles(ctx context.Context, fileIDs []string, userID *models.ProfileID) (int64, error) {
	query := "DELETE files WHERE"
	qp := map[string]any{}
	switch {
	case len(fileIDs) > 0:
		query += " file_id IN $fids"
		qp["fids"] = fileIDs
		if userID != nil {
			query += " AND user_id = $user"
			qp["user"] = *userID
		}
	case userID != nil:
		query += " user_id = $user"
		qp["user"] = *userID
	default:
		return 0, nil
	}
	query += " RETURN BEFORE"

	deleted, err := queryRows[models.StoredFile](ctx, s, query, qp)
	if err != nil {
		return 0, mapError("DeleteFiles", err)
	}
	return int64(len(deleted)), nil
}

// BatchUpdateFilePaths runs the path rewrites concurrently and tolerates
// partial failure: the returned count is how many updates landed, and the
// error is non-nil only when every update failed.
func (s *Store) BatchUpdateFilePaths(ctx context.Context, updates []store.FilePathUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
		mu        sync.Mutex
		firstErr  error
	)
	for _, u := range updates {
		wg.Add(1)
		go func(u store.FilePathUpdate) {
			defer wg.Done()
			rows, err := queryRows[models.StoredFile](ctx, s,
				"UPDATE files SET filepath = $path, updated_at = $now WHERE file_id = $fid RETURN AFTER",
				map[string]any{"path": u.Filepath, "fid": u.FileID, "now": time.Now().UTC()})
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			if len(rows) > 0 {
				succeeded.Add(1)
			}
		}(u)
	}
	wg.Wait()

	count := int(succeeded.Load())
	if count == 0 && firstErr != nil {
		return 0, mapError("BatchUpdateFilePaths", firstErr)
	}
	return count, nil
}
