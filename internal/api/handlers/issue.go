package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ecomsync/internal/database"
	"ecomsync/internal/logger"
	"ecomsync/internal/models"
)

// IssueStore reads and resolves sync issues.
type IssueStore interface {
	ListIssues(ctx context.Context, f database.IssueFilter) ([]models.SyncIssue, int64, error)
	GetIssue(ctx context.Context, id string) (*models.SyncIssue, error)
	ResolveIssue(ctx context.Context, id string) (*models.SyncIssue, error)
}

type IssueHandler struct {
	store  IssueStore
	logger *logger.Logger
}

func NewIssueHandler(store IssueStore, logger *logger.Logger) *IssueHandler {
	return &IssueHandler{
		store:  store,
		logger: logger,
	}
}

func (h *IssueHandler) List(c *gin.Context) {
	page, limit := pagination(c)

	filter := database.IssueFilter{
		Code:       c.Query("code"),
		Severity:   models.IssueSeverity(c.Query("severity")),
		EntityType: models.EntityType(c.Query("entity_type")),
		Offset:     (page - 1) * limit,
		Limit:      limit,
	}
	if resolved, err := strconv.ParseBool(c.Query("resolved")); err == nil {
		filter.Resolved = &resolved
	}

	issues, total, err := h.store.ListIssues(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to fetch issues: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch issues"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": issues,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func (h *IssueHandler) Get(c *gin.Context) {
	issue, err := h.store.GetIssue(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to fetch issue")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": issue})
}

func (h *IssueHandler) Resolve(c *gin.Context) {
	issue, err := h.store.ResolveIssue(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to resolve issue")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": issue})
}

func (h *IssueHandler) respondError(c *gin.Context, err error, msg string) {
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		return
	}
	h.logger.Error("%s: %v", msg, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// pagination reads page and limit, defaulting to 1 and 20 and capping limit
// at 100.
func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
