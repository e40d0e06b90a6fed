package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ecomsync/internal/ecom"
	"ecomsync/internal/events"
	"ecomsync/internal/logger"
	"ecomsync/internal/woocommerce"
)

const (
	headerTopic     = "X-WC-Webhook-Topic"
	headerSignature = "X-WC-Webhook-Signature"
	maxWebhookBody  = 5 << 20
)

// Publisher queues events for the worker.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

type WebhookHandler struct {
	publisher Publisher
	secret    string
	logger    *logger.Logger
}

func NewWebhookHandler(publisher Publisher, secret string, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		publisher: publisher,
		secret:    secret,
		logger:    logger,
	}
}

// WooCommerce accepts a store webhook and queues it as an event. Deliveries
// without a topic are the store's ping and are acknowledged as is.
func (h *WebhookHandler) WooCommerce(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	topic := c.GetHeader(headerTopic)
	if topic == "" {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
		return
	}

	if h.secret != "" && !validSignature(h.secret, body, c.GetHeader(headerSignature)) {
		h.logger.Warnw("Rejected webhook with bad signature", "topic", topic, "client_ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	eventType, err := woocommerce.EventType(topic)
	if err != nil {
		if errors.Is(err, woocommerce.ErrUnsupportedTopic) {
			c.JSON(http.StatusOK, gin.H{"message": "Topic ignored"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event := events.New(eventType, ecom.SourceRealTime, body)
	if err := h.publisher.Publish(c.Request.Context(), event); err != nil {
		h.logger.Errorw("Failed to queue webhook", "topic", topic, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to queue event"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"data": gin.H{"id": event.ID, "type": event.Type}})
}

// validSignature checks the base64 HMAC-SHA256 of body sent by the store.
func validSignature(secret string, body []byte, signature string) bool {
	got, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
