package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ecomsync/internal/logger"
	"ecomsync/internal/models"
)

type SyncRecordHandler struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewSyncRecordHandler(db *gorm.DB, logger *logger.Logger) *SyncRecordHandler {
	return &SyncRecordHandler{
		db:     db,
		logger: logger,
	}
}

func (h *SyncRecordHandler) List(c *gin.Context) {
	var records []models.SyncRecord

	page, limit := pagination(c)
	offset := (page - 1) * limit

	query := h.db.WithContext(c.Request.Context()).Model(&models.SyncRecord{})

	if entityType := c.Query("entity_type"); entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if externalID := c.Query("external_id"); externalID != "" {
		query = query.Where("external_id = ?", externalID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count sync records"})
		return
	}

	if err := query.Order("updated_at DESC").Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		h.logger.Error("Failed to fetch sync records: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sync records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": records,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func (h *SyncRecordHandler) Get(c *gin.Context) {
	id := c.Param("id")

	var record models.SyncRecord
	if err := h.db.WithContext(c.Request.Context()).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Sync record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sync record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": record})
}
