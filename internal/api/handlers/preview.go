package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecomsync/internal/cofe"
	"ecomsync/internal/ecom"
	"ecomsync/internal/literal"
	"ecomsync/internal/logger"
	"ecomsync/internal/woocommerce"
)

// PreviewHandler shows what would be sent for a cart or product without
// sending it.
type PreviewHandler struct {
	products   *ecom.ProductMapper
	catalog    *cofe.Mapper
	serializer *literal.Serializer
	logger     *logger.Logger
}

func NewPreviewHandler(products *ecom.ProductMapper, catalog *cofe.Mapper, serializer *literal.Serializer, logger *logger.Logger) *PreviewHandler {
	return &PreviewHandler{
		products:   products,
		catalog:    catalog,
		serializer: serializer,
		logger:     logger,
	}
}

type cartPreviewRequest struct {
	Items []woocommerce.CartItem     `json:"items" binding:"required"`
	Data  map[string]*ecom.ItemData `json:"data"`
}

type itemError struct {
	Index int    `json:"index"`
	Key   string `json:"key,omitempty"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// Cart maps cart line items. Failed items are null in data and described in
// errors.
func (h *PreviewHandler) Cart(c *gin.Context) {
	var req cartPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := h.products.MapLineItems(c.Request.Context(), req.Items, req.Data)
	errs := make([]itemError, 0)
	for _, f := range ecom.Failures(results) {
		errs = append(errs, itemError{Index: f.Index, Key: f.Key, Code: f.Code, Error: f.Err.Error()})
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   ecom.Products(results),
		"errors": errs,
	})
}

type productPreviewRequest struct {
	Product *woocommerce.Product `json:"product" binding:"required"`
	Parent  *woocommerce.Product `json:"parent"`
}

// Product maps a store product and returns the catalog literal.
func (h *PreviewHandler) Product(c *gin.Context) {
	var req productPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	obj, err := h.catalog.Map(c.Request.Context(), req.Product, req.Parent)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "code": cofe.CodeMapProduct})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"literal":  h.serializer.Object(obj),
		"mutation": cofe.UpsertDocument(h.serializer, []literal.Object{obj}),
	}})
}
