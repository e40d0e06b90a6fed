package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"ecomsync/internal/models"
)

var ErrNotFound = errors.New("record not found")

// RecordSync stores the outcome of a sync attempt. The record for the same
// entity is updated in place and its attempt counter increased.
func (d *Database) RecordSync(ctx context.Context, rec *models.SyncRecord) error {
	return d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.SyncRecord
		err := tx.Where("entity_type = ? AND external_id = ?", rec.EntityType, rec.ExternalID).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			rec.Attempts = 1
			if err := tx.Create(rec).Error; err != nil {
				return fmt.Errorf("failed to create sync record: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("failed to load sync record: %w", err)
		}

		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		rec.Attempts = existing.Attempts + 1
		if rec.RemoteID == nil {
			rec.RemoteID = existing.RemoteID
		}
		if err := tx.Save(rec).Error; err != nil {
			return fmt.Errorf("failed to update sync record: %w", err)
		}
		return nil
	})
}

func (d *Database) RecordIssue(ctx context.Context, issue *models.SyncIssue) error {
	if err := d.DB.WithContext(ctx).Create(issue).Error; err != nil {
		return fmt.Errorf("failed to create issue: %w", err)
	}
	return nil
}

// IssueFilter narrows ListIssues. Zero values do not filter.
type IssueFilter struct {
	Code       string
	Severity   models.IssueSeverity
	EntityType models.EntityType
	Resolved   *bool
	Offset     int
	Limit      int
}

// ListIssues returns a page of issues, newest first, and the total number of
// matching issues.
func (d *Database) ListIssues(ctx context.Context, f IssueFilter) ([]models.SyncIssue, int64, error) {
	query := d.DB.WithContext(ctx).Model(&models.SyncIssue{})
	if f.Code != "" {
		query = query.Where("code = ?", f.Code)
	}
	if f.Severity != "" {
		query = query.Where("severity = ?", f.Severity)
	}
	if f.EntityType != "" {
		query = query.Where("entity_type = ?", f.EntityType)
	}
	if f.Resolved != nil {
		query = query.Where("is_resolved = ?", *f.Resolved)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count issues: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	var issues []models.SyncIssue
	if err := query.Order("created_at DESC").Offset(f.Offset).Limit(limit).Find(&issues).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list issues: %w", err)
	}
	return issues, total, nil
}

func (d *Database) GetIssue(ctx context.Context, id string) (*models.SyncIssue, error) {
	var issue models.SyncIssue
	if err := d.DB.WithContext(ctx).First(&issue, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch issue: %w", err)
	}
	return &issue, nil
}

// ResolveIssue marks an issue resolved. Resolving twice keeps the first
// resolution time.
func (d *Database) ResolveIssue(ctx context.Context, id string) (*models.SyncIssue, error) {
	issue, err := d.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	if issue.IsResolved {
		return issue, nil
	}

	now := time.Now().UTC()
	issue.IsResolved = true
	issue.ResolvedAt = &now
	if err := d.DB.WithContext(ctx).Save(issue).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve issue: %w", err)
	}
	return issue, nil
}

// UpdateConnectionStatus sets the status of a connection. A nil syncErr
// clears the last error and a successful move to ACTIVE stamps LastSync.
func (d *Database) UpdateConnectionStatus(ctx context.Context, id string, status models.ConnectionStatus, syncErr error) error {
	updates := map[string]interface{}{"status": status, "last_error": nil}
	if syncErr != nil {
		msg := syncErr.Error()
		updates["last_error"] = msg
	}
	if status == models.ConnectionStatusActive && syncErr == nil {
		updates["last_sync"] = time.Now().UTC()
	}

	res := d.DB.WithContext(ctx).Model(&models.Connection{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update connection: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
