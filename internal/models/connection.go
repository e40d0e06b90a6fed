package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Connection links a store to a platform connection id.
type Connection struct {
	ID           string           `json:"id" gorm:"primaryKey;size:36"`
	Name         string           `json:"name" gorm:"not null"`
	StoreURL     string           `json:"store_url" gorm:"not null;uniqueIndex"`
	ConnectionID string           `json:"connection_id" gorm:"not null"`
	Currency     string           `json:"currency" gorm:"default:USD"`
	Status       ConnectionStatus `json:"status" gorm:"default:INACTIVE"`
	LastSync     *time.Time       `json:"last_sync"`
	LastError    *string          `json:"last_error" gorm:"type:text"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

type ConnectionStatus string

const (
	ConnectionStatusActive   ConnectionStatus = "ACTIVE"
	ConnectionStatusInactive ConnectionStatus = "INACTIVE"
	ConnectionStatusError    ConnectionStatus = "ERROR"
	ConnectionStatusSyncing  ConnectionStatus = "SYNCING"
)

func (c *Connection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
