package ecom

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ecomsync/internal/config"
	"ecomsync/internal/logger"
	"ecomsync/internal/normalize"
	"ecomsync/internal/woocommerce"
)

// OrderMapper builds platform orders from store orders and abandoned carts.
type OrderMapper struct {
	products *ProductMapper
	settings config.Settings
	logger   *logger.Logger
	now      func() time.Time
}

func NewOrderMapper(products *ProductMapper, settings config.Settings, logger *logger.Logger) *OrderMapper {
	return &OrderMapper{products: products, settings: settings, logger: logger, now: time.Now}
}

// MapOrder converts a store order. The returned results describe each line
// item; failed items are left out of the order's products.
func (m *OrderMapper) MapOrder(ctx context.Context, order *woocommerce.Order, source int) (*Order, []Result) {
	items := make([]woocommerce.CartItem, len(order.LineItems))
	data := make(map[string]*ItemData, len(order.LineItems))
	for i, li := range order.LineItems {
		items[i] = lineItemToCartItem(li)
		if li.ID == 0 {
			// unsaved line items share id 0
			items[i].Key = "line-" + strconv.Itoa(i)
		}
		data[items[i].Key] = &ItemData{Name: li.Name}
	}
	results := m.products.MapLineItems(ctx, items, data)

	o := &Order{
		ExternalID:          strconv.FormatInt(order.ID, 10),
		Source:              source,
		Email:               strings.TrimSpace(order.Billing.Email),
		OrderProducts:       Succeeded(results),
		OrderNumber:         order.Number,
		OrderURL:            m.orderURL(order.ID),
		ExternalCreatedDate: normalize.ISODate(order.DateCreatedGMT),
		ExternalUpdatedDate: normalize.ISODate(order.DateModifiedGMT),
		TotalPrice:          normalize.MinorUnits(order.Total),
		ShippingAmount:      normalize.MinorUnits(order.ShippingTotal),
		TaxAmount:           normalize.MinorUnits(order.TotalTax),
		DiscountAmount:      normalize.MinorUnits(order.DiscountTotal),
		Currency:            firstNonEmpty(order.Currency, m.settings.Currency),
		ConnectionID:        m.settings.ConnectionID,
	}
	if len(order.ShippingLines) > 0 {
		o.ShippingMethod = order.ShippingLines[0].MethodTitle
	}
	m.logFailures("order", o.ExternalID, results)
	return o, results
}

// MapAbandonedCart converts an abandoned cart into a checkout order. Carts
// without an abandonment time are stamped with the current time.
func (m *OrderMapper) MapAbandonedCart(ctx context.Context, cart *woocommerce.Cart) (*Order, []Result) {
	items := append([]woocommerce.CartItem(nil), cart.Items...)
	data := make(map[string]*ItemData, len(items))
	for i := range items {
		if items[i].Key == "" {
			items[i].Key = strconv.Itoa(i)
		}
		if items[i].Name != "" {
			data[items[i].Key] = &ItemData{Name: items[i].Name}
		}
	}
	results := m.products.MapLineItems(ctx, items, data)

	abandoned := normalize.ISODate(cart.AbandonedAtGMT)
	if abandoned == nil {
		abandoned = normalize.ISODate(m.now())
	}

	o := &Order{
		ExternalCheckoutID:  cart.ID,
		Source:              SourceRealTime,
		Email:               strings.TrimSpace(cart.CustomerEmail),
		OrderProducts:       Succeeded(results),
		OrderURL:            cart.CartURL,
		ExternalCreatedDate: normalize.ISODate(cart.DateCreatedGMT),
		AbandonedDate:       abandoned,
		TotalPrice:          normalize.MinorUnits(cart.Total),
		Currency:            firstNonEmpty(cart.Currency, m.settings.Currency),
		ConnectionID:        m.settings.ConnectionID,
	}
	m.logFailures("cart", cart.ID, results)
	return o, results
}

func (m *OrderMapper) orderURL(id int64) string {
	if m.settings.StoreURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/my-account/view-order/%d/", strings.TrimRight(m.settings.StoreURL, "/"), id)
}

func (m *OrderMapper) logFailures(kind, id string, results []Result) {
	failed := Failures(results)
	if len(failed) == 0 {
		return
	}
	m.logger.Warnw("Some line items could not be mapped",
		"code", CodeMapLineItem,
		kind, id,
		"failed", len(failed),
		"total", len(results))
}

func lineItemToCartItem(li woocommerce.LineItem) woocommerce.CartItem {
	item := map[string]interface{}{
		"name": li.Name,
		"sku":  li.SKU,
	}
	if li.Price != "" {
		item["price"] = li.Price.String()
	}
	if li.Image != nil {
		item["image_url"] = li.Image.Src
	}
	return woocommerce.CartItem{
		Key:         strconv.FormatInt(li.ID, 10),
		ProductID:   li.ProductID,
		VariationID: li.VariationID,
		Quantity:    li.Quantity,
		Name:        li.Name,
		LineTotal:   jsonNumber(li.Total),
		Item:        item,
	}
}
