package processors

import (
	"context"
	"errors"
	"fmt"

	"ecomsync/internal/cofe"
	"ecomsync/internal/ecom"
	"ecomsync/internal/events"
	"ecomsync/internal/logger"
	"ecomsync/internal/woocommerce"
	"ecomsync/internal/worker/processors/export"
	"ecomsync/internal/worker/processors/validation"
)

// ErrInvalidRecord wraps validation failures; such events are dropped.
var ErrInvalidRecord = errors.New("record failed validation")

// EventProcessor maps store events and hands the records to the exporter.
type EventProcessor struct {
	logger    *logger.Logger
	orders    *ecom.OrderMapper
	customers *ecom.CustomerMapper
	products  *cofe.Mapper
	validator *validation.Validator
	exporter  *export.Exporter
}

func NewEventProcessor(
	orders *ecom.OrderMapper,
	customers *ecom.CustomerMapper,
	products *cofe.Mapper,
	validator *validation.Validator,
	exporter *export.Exporter,
	logger *logger.Logger,
) *EventProcessor {
	return &EventProcessor{
		logger:    logger,
		orders:    orders,
		customers: customers,
		products:  products,
		validator: validator,
		exporter:  exporter,
	}
}

// Process handles one event.
func (ep *EventProcessor) Process(ctx context.Context, event events.Event) error {
	ep.logger.Debug("Processing %s event %s", event.Type, event.ID)

	decoded, err := woocommerce.DecodeWebhook(event.Type, event.Payload)
	if err != nil {
		return err
	}

	switch v := decoded.(type) {
	case *woocommerce.Order:
		order, results := ep.orders.MapOrder(ctx, v, event.Source)
		return ep.exportOrder(ctx, event, order, ep.customers.MapOrderCustomer(v), results)
	case *woocommerce.Cart:
		order, results := ep.orders.MapAbandonedCart(ctx, v)
		return ep.exportOrder(ctx, event, order, ep.customers.MapCartCustomer(v), results)
	case *woocommerce.Customer:
		customer := ep.customers.MapCustomer(v)
		if err := customer.ApplyFields(event.Overrides); err != nil {
			ep.logger.Warnw("Ignoring invalid overrides", "event", event.ID, "error", err)
		}
		if err := ep.validator.ValidateCustomer(customer); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
		return ep.exporter.ExportCustomer(ctx, customer)
	case *woocommerce.Product:
		objs, failures := ep.products.MapBatch(ctx, []woocommerce.Product{*v})
		return ep.exporter.ExportProducts(ctx, objs, failures)
	}
	return fmt.Errorf("%w: %s", woocommerce.ErrUnsupportedTopic, event.Type)
}

func (ep *EventProcessor) exportOrder(ctx context.Context, event events.Event, order *ecom.Order, customer *ecom.Customer, results []ecom.Result) error {
	if err := order.ApplyFields(event.Overrides); err != nil {
		ep.logger.Warnw("Ignoring invalid overrides", "event", event.ID, "error", err)
	}
	if err := ep.validator.ValidateOrder(order); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := ep.validator.ValidateCustomer(customer); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return ep.exporter.ExportOrder(ctx, order, customer, results)
}
