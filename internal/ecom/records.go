// Package ecom holds the remote platform's ecommerce records and the mappers
// that build them from store objects.
package ecom

// Order sources understood by the platform.
const (
	SourceHistorical = 0
	SourceRealTime   = 1
)

// Product is one line of an order or abandoned cart. Price is in minor
// units.
type Product struct {
	ExternalID  string  `json:"externalid"`
	Name        string  `json:"name"`
	Price       int64   `json:"price"`
	Quantity    int     `json:"quantity"`
	Category    *string `json:"category"`
	SKU         string  `json:"sku,omitempty"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	ProductURL  string  `json:"productUrl,omitempty"`
}

// Order is an order or, when ExternalCheckoutID and AbandonedDate are set,
// an abandoned cart. Amounts are in minor units.
type Order struct {
	ExternalID          string     `json:"externalid,omitempty"`
	ExternalCheckoutID  string     `json:"externalcheckoutid,omitempty"`
	Source              int        `json:"source"`
	Email               string     `json:"email"`
	OrderProducts       []*Product `json:"orderProducts"`
	OrderURL            string     `json:"orderUrl,omitempty"`
	OrderNumber         string     `json:"orderNumber,omitempty"`
	ExternalCreatedDate *string    `json:"externalCreatedDate,omitempty"`
	ExternalUpdatedDate *string    `json:"externalUpdatedDate,omitempty"`
	AbandonedDate       *string    `json:"abandonedDate,omitempty"`
	ShippingMethod      string     `json:"shippingMethod,omitempty"`
	TotalPrice          int64      `json:"totalPrice"`
	ShippingAmount      int64      `json:"shippingAmount"`
	TaxAmount           int64      `json:"taxAmount"`
	DiscountAmount      int64      `json:"discountAmount"`
	Currency            string     `json:"currency"`
	ConnectionID        string     `json:"connectionid"`
	CustomerID          string     `json:"customerid,omitempty"`
}

// Customer is the platform's view of a store customer.
type Customer struct {
	ConnectionID     string `json:"connectionid"`
	ExternalID       string `json:"externalid"`
	Email            string `json:"email"`
	FirstName        string `json:"firstName,omitempty"`
	LastName         string `json:"lastName,omitempty"`
	AcceptsMarketing string `json:"acceptsMarketing,omitempty"`
}

// OrderPayload wraps an order for the REST endpoint.
type OrderPayload struct {
	EcomOrder *Order `json:"ecomOrder"`
}

// CustomerPayload wraps a customer for the REST endpoint.
type CustomerPayload struct {
	EcomCustomer *Customer `json:"ecomCustomer"`
}

// IsAbandonedCart reports whether o describes an abandoned checkout.
func (o *Order) IsAbandonedCart() bool {
	return o.ExternalCheckoutID != "" && o.AbandonedDate != nil
}

// Identifier returns the id the order is tracked under.
func (o *Order) Identifier() string {
	if o.ExternalID != "" {
		return o.ExternalID
	}
	return o.ExternalCheckoutID
}
