package ecom

import (
	"encoding/json"
	"strconv"
	"strings"

	"ecomsync/internal/config"
	"ecomsync/internal/woocommerce"
)

// CustomerMapper builds platform customers from registered customers and
// guest orders.
type CustomerMapper struct {
	settings config.Settings
}

func NewCustomerMapper(settings config.Settings) *CustomerMapper {
	return &CustomerMapper{settings: settings}
}

// MapCustomer converts a registered customer. Missing names and email fall
// back to the billing address.
func (m *CustomerMapper) MapCustomer(c *woocommerce.Customer) *Customer {
	out := &Customer{
		ConnectionID: m.settings.ConnectionID,
		ExternalID:   strconv.FormatInt(c.ID, 10),
		Email:        strings.TrimSpace(firstNonEmpty(c.Email, c.Billing.Email)),
		FirstName:    firstNonEmpty(c.FirstName, c.Billing.FirstName),
		LastName:     firstNonEmpty(c.LastName, c.Billing.LastName),
	}
	if c.ID == 0 {
		out.ExternalID = out.Email
	}
	if c.AcceptsMarketing != nil {
		out.AcceptsMarketing = boolFlag(*c.AcceptsMarketing)
	}
	return out
}

// MapOrderCustomer derives the customer of an order. Guest orders are keyed
// by their billing email.
func (m *CustomerMapper) MapOrderCustomer(o *woocommerce.Order) *Customer {
	email := strings.TrimSpace(o.Billing.Email)
	out := &Customer{
		ConnectionID: m.settings.ConnectionID,
		ExternalID:   email,
		Email:        email,
		FirstName:    o.Billing.FirstName,
		LastName:     o.Billing.LastName,
	}
	if o.CustomerID > 0 {
		out.ExternalID = strconv.FormatInt(o.CustomerID, 10)
	}
	return out
}

// MapCartCustomer derives the customer of an abandoned cart.
func (m *CustomerMapper) MapCartCustomer(c *woocommerce.Cart) *Customer {
	email := strings.TrimSpace(c.CustomerEmail)
	out := &Customer{
		ConnectionID: m.settings.ConnectionID,
		ExternalID:   email,
		Email:        email,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
	}
	if c.CustomerID > 0 {
		out.ExternalID = strconv.FormatInt(c.CustomerID, 10)
	}
	return out
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func jsonNumber(s string) json.Number {
	return json.Number(strings.TrimSpace(s))
}
