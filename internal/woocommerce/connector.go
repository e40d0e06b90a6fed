package woocommerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ecomsync/internal/logger"
)

// Event types emitted for store webhooks.
const (
	EventOrderCreated    = "order.created"
	EventOrderUpdated    = "order.updated"
	EventCartAbandoned   = "cart.abandoned"
	EventCustomerCreated = "customer.created"
	EventCustomerUpdated = "customer.updated"
	EventProductCreated  = "product.created"
	EventProductUpdated  = "product.updated"
)

var ErrUnsupportedTopic = errors.New("woocommerce: unsupported webhook topic")

// ProductLister pages through the store catalog.
type ProductLister interface {
	ListProducts(ctx context.Context, page, perPage int) ([]Product, int, error)
}

type Connector struct {
	lister  ProductLister
	logger  *logger.Logger
	perPage int
}

func NewConnector(lister ProductLister, logger *logger.Logger) *Connector {
	return &Connector{
		lister:  lister,
		logger:  logger,
		perPage: 50,
	}
}

// SyncProducts walks the catalog page by page and hands every page to
// handle. It stops at the first error.
func (wc *Connector) SyncProducts(ctx context.Context, handle func(ctx context.Context, products []Product) error) (int, error) {
	synced := 0
	for page := 1; ; page++ {
		products, totalPages, err := wc.lister.ListProducts(ctx, page, wc.perPage)
		if err != nil {
			return synced, fmt.Errorf("failed to fetch products page %d: %w", page, err)
		}
		if len(products) == 0 {
			break
		}

		if err := handle(ctx, products); err != nil {
			return synced, err
		}
		synced += len(products)
		wc.logger.Debug("Synced catalog page %d/%d (%d products)", page, totalPages, len(products))

		if totalPages > 0 && page >= totalPages {
			break
		}
		if totalPages == 0 && len(products) < wc.perPage {
			break
		}
	}

	wc.logger.Info("Catalog sync finished: %d products", synced)
	return synced, nil
}

// EventType maps a webhook topic to the event type published for it.
func EventType(topic string) (string, error) {
	switch topic {
	case EventOrderCreated, EventOrderUpdated, EventCartAbandoned,
		EventCustomerCreated, EventCustomerUpdated,
		EventProductCreated, EventProductUpdated:
		return topic, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedTopic, topic)
}

// DecodeWebhook decodes a webhook payload into the store type for topic.
func DecodeWebhook(topic string, payload []byte) (interface{}, error) {
	var target interface{}
	switch topic {
	case EventOrderCreated, EventOrderUpdated:
		target = &Order{}
	case EventCartAbandoned:
		target = &Cart{}
	case EventCustomerCreated, EventCustomerUpdated:
		target = &Customer{}
	case EventProductCreated, EventProductUpdated:
		target = &Product{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTopic, topic)
	}

	if err := json.Unmarshal(payload, target); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	return target, nil
}
