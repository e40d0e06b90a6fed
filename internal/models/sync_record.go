package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SyncRecord is the latest outcome of pushing one store entity to the
// platform.
type SyncRecord struct {
	ID         string     `json:"id" gorm:"primaryKey;size:36"`
	EntityType EntityType `json:"entity_type" gorm:"not null;uniqueIndex:idx_sync_records_entity"`
	ExternalID string     `json:"external_id" gorm:"not null;uniqueIndex:idx_sync_records_entity"`
	RemoteID   *string    `json:"remote_id"`
	Status     SyncStatus `json:"status" gorm:"not null;default:PENDING"`
	Payload    string     `json:"payload" gorm:"type:text"`
	ErrorCode  *string    `json:"error_code"`
	Error      *string    `json:"error" gorm:"type:text"`
	Attempts   int        `json:"attempts" gorm:"default:0"`
	SyncedAt   *time.Time `json:"synced_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type EntityType string

const (
	EntityOrder         EntityType = "ORDER"
	EntityAbandonedCart EntityType = "ABANDONED_CART"
	EntityCustomer      EntityType = "CUSTOMER"
	EntityProduct       EntityType = "PRODUCT"
)

type SyncStatus string

const (
	SyncStatusPending SyncStatus = "PENDING"
	SyncStatusSynced  SyncStatus = "SYNCED"
	SyncStatusPartial SyncStatus = "PARTIAL"
	SyncStatusFailed  SyncStatus = "FAILED"
	SyncStatusSkipped SyncStatus = "SKIPPED"
)

func (r *SyncRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
