package ecom

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomsync/internal/config"
	"ecomsync/internal/logger"
	"ecomsync/internal/woocommerce"
)

var testSettings = config.Settings{
	ConnectionID: "7",
	Currency:     "USD",
	StoreURL:     "https://shop.test/",
}

func TestMapOrder(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*woocommerce.Product{10: shoes()}}
	products := NewProductMapper(catalog, testSettings, logger.NewNop())
	m := NewOrderMapper(products, testSettings, logger.NewNop())

	order := &woocommerce.Order{
		ID:              501,
		Number:          "501",
		Currency:        "EUR",
		DateCreatedGMT:  "2024-03-01T10:00:00",
		DateModifiedGMT: "2024-03-01T11:30:00",
		Total:           "125.98",
		ShippingTotal:   "6.00",
		TotalTax:        "0.00",
		DiscountTotal:   "1.5",
		Billing:         woocommerce.Address{Email: " buyer@example.com "},
		LineItems: []woocommerce.LineItem{
			{ID: 1, Name: "Runner", ProductID: 10, Quantity: 2, Total: "119.98"},
			{ID: 2, Quantity: 1},
		},
		ShippingLines: []woocommerce.ShippingLine{{MethodTitle: "Flat rate"}},
	}

	o, results := m.MapOrder(context.Background(), order, SourceRealTime)

	assert.Equal(t, "501", o.ExternalID)
	assert.Equal(t, "buyer@example.com", o.Email)
	assert.Equal(t, "EUR", o.Currency)
	assert.Equal(t, "7", o.ConnectionID)
	assert.Equal(t, int64(12598), o.TotalPrice)
	assert.Equal(t, int64(600), o.ShippingAmount)
	assert.Zero(t, o.TaxAmount)
	assert.Equal(t, int64(150), o.DiscountAmount)
	assert.Equal(t, "Flat rate", o.ShippingMethod)
	assert.Equal(t, "https://shop.test/my-account/view-order/501/", o.OrderURL)
	require.NotNil(t, o.ExternalCreatedDate)
	assert.Equal(t, "2024-03-01T10:00:00Z", *o.ExternalCreatedDate)

	require.Len(t, results, 2)
	assert.Len(t, Failures(results), 1)
	require.Len(t, o.OrderProducts, 1)
	assert.Equal(t, "Runner", o.OrderProducts[0].Name)
	assert.Equal(t, 2, o.OrderProducts[0].Quantity)
	assert.NoError(t, o.Validate())
}

func TestMapOrderKeepsNamesOfUnsavedLineItems(t *testing.T) {
	catalog := &fakeCatalog{products: map[int64]*woocommerce.Product{10: shoes()}}
	products := NewProductMapper(catalog, testSettings, logger.NewNop())
	m := NewOrderMapper(products, testSettings, logger.NewNop())

	order := &woocommerce.Order{
		ID: 502,
		LineItems: []woocommerce.LineItem{
			{Name: "Runner (left)", ProductID: 10, Quantity: 1},
			{Name: "Runner (right)", ProductID: 10, Quantity: 1},
		},
	}

	o, results := m.MapOrder(context.Background(), order, SourceRealTime)

	require.Len(t, results, 2)
	assert.Empty(t, Failures(results))
	assert.NotEqual(t, results[0].Key, results[1].Key)
	require.Len(t, o.OrderProducts, 2)
	assert.Equal(t, "Runner (left)", o.OrderProducts[0].Name)
	assert.Equal(t, "Runner (right)", o.OrderProducts[1].Name)
}

func TestMapAbandonedCart(t *testing.T) {
	products := NewProductMapper(nil, testSettings, logger.NewNop())
	m := NewOrderMapper(products, testSettings, logger.NewNop())
	m.now = func() time.Time { return time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC) }

	cart := &woocommerce.Cart{
		ID:            "cart-9",
		CustomerEmail: "shopper@example.com",
		Total:         "20",
		CartURL:       "https://shop.test/cart",
		Items: []woocommerce.CartItem{
			{ProductID: 10, Quantity: 1, Name: "Runner", Data: shoes()},
		},
	}

	o, results := m.MapAbandonedCart(context.Background(), cart)

	assert.Len(t, results, 1)
	assert.True(t, o.IsAbandonedCart())
	assert.Equal(t, "cart-9", o.Identifier())
	assert.Equal(t, "USD", o.Currency)
	assert.Equal(t, int64(2000), o.TotalPrice)
	require.NotNil(t, o.AbandonedDate)
	assert.Equal(t, "2024-05-02T08:00:00Z", *o.AbandonedDate)
	require.Len(t, o.OrderProducts, 1)
	assert.Equal(t, "RUN", o.OrderProducts[0].SKU)
	assert.Empty(t, cart.Items[0].Key)
}

func TestOrderApplyFields(t *testing.T) {
	o := &Order{Source: SourceRealTime}

	err := o.ApplyFields(map[string]interface{}{
		"source":      0,
		"totalPrice":  "10.50",
		"email":       "x@example.com",
		"bogus":       true,
		"orderNumber": []int{1},
	})

	assert.ErrorIs(t, err, ErrUnknownField)
	assert.ErrorIs(t, err, ErrFieldType)
	assert.Equal(t, SourceHistorical, o.Source)
	assert.Equal(t, int64(1050), o.TotalPrice)
	assert.Equal(t, "x@example.com", o.Email)
}

func TestOrderValidateListsMissingFields(t *testing.T) {
	err := (&Order{}).Validate()
	require.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "email")
	assert.Contains(t, err.Error(), "orderProducts")
}
