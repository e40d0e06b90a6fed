package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SyncIssue is a problem met while syncing an entity, kept until someone
// resolves it.
type SyncIssue struct {
	ID           string        `json:"id" gorm:"primaryKey;size:36"`
	SyncRecordID *string       `json:"sync_record_id" gorm:"size:36;index"`
	EntityType   EntityType    `json:"entity_type" gorm:"not null"`
	ExternalID   string        `json:"external_id" gorm:"not null;index"`
	Code         string        `json:"code" gorm:"not null;index"`
	Severity     IssueSeverity `json:"severity" gorm:"not null"`
	Explanation  string        `json:"explanation" gorm:"type:text;not null"`
	Context      *string       `json:"context" gorm:"type:text"`
	IsResolved   bool          `json:"is_resolved" gorm:"default:false"`
	ResolvedAt   *time.Time    `json:"resolved_at"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type IssueSeverity string

const (
	IssueSeverityLow      IssueSeverity = "LOW"
	IssueSeverityMedium   IssueSeverity = "MEDIUM"
	IssueSeverityHigh     IssueSeverity = "HIGH"
	IssueSeverityCritical IssueSeverity = "CRITICAL"
)

func (i *SyncIssue) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}
