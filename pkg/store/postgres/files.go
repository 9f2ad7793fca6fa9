package postgres

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

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
	if file.ID.IsZero() {
		file.ID = models.NewFileID()
	}

	// Upsert keyed on the external file ID; re-creating replaces the row's
	// content but keeps its row key and creation time.
	err := s.getDB().WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "file_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "filename", "filepath", "type", "context", "source",
			"bytes", "width", "height", "embedded", "metadata", "expires_at",
			"updated_at",
		}),
	}).Create(file).Error
	if err != nil {
		return nil, mapError("CreateFile", err)
	}
	return s.FindFile(ctx, file.FileID)
}

func (s *Store) UpdateFile(ctx context.Context, fileID string, update store.FileUpdate) (*models.StoredFile, error) {
	updates := map[string]any{
		// Any explicit update makes the file permanent.
		"expires_at": nil,
	}
	if update.Filename != nil {
		updates["filename"] = *update.Filename
	}
	if update.Filepath != nil {
		updates["filepath"] = *update.Filepath
	}
	if update.Type != nil {
		updates["type"] = *update.Type
	}
	if update.Context != nil {
		updates["context"] = *update.Context
	}
	if update.Source != nil {
		updates["source"] = *update.Source
	}
	if update.Bytes != nil {
		updates["bytes"] = *update.Bytes
	}
	if update.Embedded != nil {
		updates["embedded"] = *update.Embedded
	}
	if update.Metadata != nil {
		updates["metadata"] = update.Metadata
	}

	res := s.getDB().WithContext(ctx).Model(&models.StoredFile{}).
		Where("file_id = ?", fileID).
		Updates(updates)
	if res.Error != nil {
		return nil, mapError("UpdateFile", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, store.NewError(store.ErrCodeNotFound, "UpdateFile: file not found", nil)
	}
	return s.FindFile(ctx, fileID)
}

func (s *Store) TouchFileUsage(ctx context.Context, fileID string, inc int64) (*models.StoredFile, error) {
	if inc == 0 {
		inc = 1
	}
	res := s.getDB().WithContext(ctx).Model(&models.StoredFile{}).
		Where("file_id = ?", fileID).
		Updates(map[string]any{
			"usage_count": gorm.Expr("usage_count + ?", inc),
			"expires_at":  nil,
			"metadata":    gorm.Expr("COALESCE(metadata, '{}'::jsonb) - 'temp_file_id'"),
		})
	if res.Error != nil {
		return nil, mapError("TouchFileUsage", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, store.NewError(store.ErrCodeNotFound, "TouchFileUsage: file not found", nil)
	}
	return s.FindFile(ctx, fileID)
}

func (s *Store) FindFile(ctx context.Context, fileID string) (*models.StoredFile, error) {
	var file models.StoredFile
	err := s.getDB().WithContext(ctx).First(&file, "file_id = ?", fileID).Error
	if err != nil {
		if errorsIsNotFound(err) {
			return nil, nil
		}
		return nil, mapError("FindFile", err)
	}
	return &file, nil
}

func (s *Store) ListFiles(ctx context.Context, filter store.FileFilter) ([]*models.StoredFile, error) {
	q := s.getDB().WithContext(ctx).Model(&models.StoredFile{})
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if len(filter.FileIDs) > 0 {
		q = q.Where("file_id IN ?", filter.FileIDs)
	}
	if filter.Context != "" {
		q = q.Where("context = ?", filter.Context)
	}
	if filter.Source != "" {
		q = q.Where("source = ?", filter.Source)
	}
	q = applyOptions(q, store.Options{Sort: filter.Sort, Limit: filter.Limit})
	if filter.Sort == "" {
		q = q.Order("created_at DESC")
	}

	var files []*models.StoredFile
	if err := q.Find(&files).Error; err != nil {
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
	var files []*models.StoredFile
	err := s.getDB().WithContext(ctx).
		Where("file_id IN ?", fileIDs).
		Where("context = ?", toolResource).
		Find(&files).Error
	if err != nil {
		return nil, mapError("ListToolFiles", err)
	}
	if files == nil {
		files = []*models.StoredFile{}
	}
	return files, nil
}

func (s *Store) DeleteFile(ctx context.Context, fileID string) error {
	res := s.getDB().WithContext(ctx).Where("file_id = ?", fileID).Delete(&models.StoredFile{})
	if res.Error != nil {
		return mapError("DeleteFile", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.NewError(store.ErrCodeNotFound, "DeleteFile: file not found", nil)
	}
	return nil
}

func (s *Store) DeleteFiles(ctx context.Context, fileIDs []string, userID *models.ProfileID) (int64, error) {
	q := s.getDB().WithContext(ctx)
	switch {
	case len(fileIDs) > 0:
		q = q.Where("file_id IN ?", fileIDs)
		if userID != nil {
			q = q.Where("user_id = ?", *userID)
		}
	case userID != nil:
		q = q.Where("user_id = ?", *userID)
	default:
		return 0, nil
	}
	res := q.Delete(&models.StoredFile{})
	if res.Error != nil {
		return 0, mapError("DeleteFiles", res.Error)
	}
	return res.RowsAffected, nil
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
			res := s.getDB().WithContext(ctx).Model(&models.StoredFile{}).
				Where("file_id = ?", u.FileID).
				Update("filepath", u.Filepath)
			if res.Error != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = res.Error
				}
				mu.Unlock()
				return
			}
			if res.RowsAffected > 0 {
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
