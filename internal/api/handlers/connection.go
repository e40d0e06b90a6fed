package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ecomsync/internal/database"
	"ecomsync/internal/ecom"
	"ecomsync/internal/events"
	"ecomsync/internal/logger"
	"ecomsync/internal/models"
	"ecomsync/internal/woocommerce"
)

// CatalogSource pages through the store catalog.
type CatalogSource interface {
	SyncProducts(ctx context.Context, handle func(ctx context.Context, products []woocommerce.Product) error) (int, error)
}

type ConnectionHandler struct {
	db        *database.Database
	catalog   CatalogSource
	publisher Publisher
	logger    *logger.Logger
}

func NewConnectionHandler(db *database.Database, catalog CatalogSource, publisher Publisher, logger *logger.Logger) *ConnectionHandler {
	return &ConnectionHandler{
		db:        db,
		catalog:   catalog,
		publisher: publisher,
		logger:    logger,
	}
}

func (h *ConnectionHandler) List(c *gin.Context) {
	var connections []models.Connection

	if err := h.db.DB.WithContext(c.Request.Context()).Find(&connections).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch connections"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": connections})
}

func (h *ConnectionHandler) Get(c *gin.Context) {
	connection, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": connection})
}

type createConnectionRequest struct {
	Name         string `json:"name" binding:"required"`
	StoreURL     string `json:"store_url" binding:"required,url"`
	ConnectionID string `json:"connection_id" binding:"required"`
	Currency     string `json:"currency"`
}

func (h *ConnectionHandler) Create(c *gin.Context) {
	var req createConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	connection := models.Connection{
		Name:         req.Name,
		StoreURL:     req.StoreURL,
		ConnectionID: req.ConnectionID,
		Currency:     req.Currency,
		Status:       models.ConnectionStatusInactive,
	}
	if connection.Currency == "" {
		connection.Currency = "USD"
	}

	if err := h.db.DB.WithContext(c.Request.Context()).Create(&connection).Error; err != nil {
		h.logger.Error("Failed to create connection: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create connection"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": connection})
}

// Sync queues a product event for every catalog product. The connection is
// SYNCING meanwhile and ends ACTIVE, or ERROR with the failure kept.
func (h *ConnectionHandler) Sync(c *gin.Context) {
	connection, ok := h.load(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if err := h.db.UpdateConnectionStatus(ctx, connection.ID, models.ConnectionStatusSyncing, nil); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update connection"})
		return
	}

	queued, syncErr := h.catalog.SyncProducts(ctx, func(ctx context.Context, products []woocommerce.Product) error {
		for i := range products {
			payload, err := json.Marshal(&products[i])
			if err != nil {
				return fmt.Errorf("failed to encode product %d: %w", products[i].ID, err)
			}
			if err := h.publisher.Publish(ctx, events.New(woocommerce.EventProductUpdated, ecom.SourceHistorical, payload)); err != nil {
				return err
			}
		}
		return nil
	})

	status := models.ConnectionStatusActive
	if syncErr != nil {
		status = models.ConnectionStatusError
	}
	if err := h.db.UpdateConnectionStatus(context.WithoutCancel(ctx), connection.ID, status, syncErr); err != nil {
		h.logger.Error("Failed to update connection %s: %v", connection.ID, err)
	}

	if syncErr != nil {
		h.logger.Errorw("Catalog sync failed", "connection", connection.ID, "queued", queued, "error", syncErr)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Catalog sync failed", "queued": queued})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Sync queued", "queued": queued})
}

func (h *ConnectionHandler) load(c *gin.Context) (*models.Connection, bool) {
	var connection models.Connection
	if err := h.db.DB.WithContext(c.Request.Context()).First(&connection, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Connection not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch connection"})
		return nil, false
	}
	return &connection, true
}
