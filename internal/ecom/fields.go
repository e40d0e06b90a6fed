package ecom

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ecomsync/internal/normalize"
)

var (
	ErrMissingField = errors.New("ecom: required field missing")
	ErrUnknownField = errors.New("ecom: unknown field")
	ErrFieldType    = errors.New("ecom: wrong field type")
)

// fieldSetter assigns one wire field of a record.
type fieldSetter[T any] func(*T, interface{}) error

var orderFieldSetters = map[string]fieldSetter[Order]{
	"externalid":          func(o *Order, v interface{}) error { return setString(&o.ExternalID, v) },
	"externalcheckoutid":  func(o *Order, v interface{}) error { return setString(&o.ExternalCheckoutID, v) },
	"source":              func(o *Order, v interface{}) error { return setInt(&o.Source, v) },
	"email":               func(o *Order, v interface{}) error { return setString(&o.Email, v) },
	"orderUrl":            func(o *Order, v interface{}) error { return setString(&o.OrderURL, v) },
	"orderNumber":         func(o *Order, v interface{}) error { return setString(&o.OrderNumber, v) },
	"externalCreatedDate": func(o *Order, v interface{}) error { o.ExternalCreatedDate = normalize.ISODate(v); return nil },
	"externalUpdatedDate": func(o *Order, v interface{}) error { o.ExternalUpdatedDate = normalize.ISODate(v); return nil },
	"abandonedDate":       func(o *Order, v interface{}) error { o.AbandonedDate = normalize.ISODate(v); return nil },
	"shippingMethod":      func(o *Order, v interface{}) error { return setString(&o.ShippingMethod, v) },
	"totalPrice":          func(o *Order, v interface{}) error { o.TotalPrice = normalize.MinorUnits(v); return nil },
	"shippingAmount":      func(o *Order, v interface{}) error { o.ShippingAmount = normalize.MinorUnits(v); return nil },
	"taxAmount":           func(o *Order, v interface{}) error { o.TaxAmount = normalize.MinorUnits(v); return nil },
	"discountAmount":      func(o *Order, v interface{}) error { o.DiscountAmount = normalize.MinorUnits(v); return nil },
	"currency":            func(o *Order, v interface{}) error { return setString(&o.Currency, v) },
	"connectionid":        func(o *Order, v interface{}) error { return setString(&o.ConnectionID, v) },
	"customerid":          func(o *Order, v interface{}) error { return setString(&o.CustomerID, v) },
}

var customerFieldSetters = map[string]fieldSetter[Customer]{
	"connectionid":     func(c *Customer, v interface{}) error { return setString(&c.ConnectionID, v) },
	"externalid":       func(c *Customer, v interface{}) error { return setString(&c.ExternalID, v) },
	"email":            func(c *Customer, v interface{}) error { return setString(&c.Email, v) },
	"firstName":        func(c *Customer, v interface{}) error { return setString(&c.FirstName, v) },
	"lastName":         func(c *Customer, v interface{}) error { return setString(&c.LastName, v) },
	"acceptsMarketing": func(c *Customer, v interface{}) error { return setString(&c.AcceptsMarketing, v) },
}

// ApplyFields assigns wire-named fields to o. Unknown names and values of the
// wrong type are reported together; the other fields are still applied.
func (o *Order) ApplyFields(fields map[string]interface{}) error {
	return applyFields(o, orderFieldSetters, fields)
}

// ApplyFields assigns wire-named fields to c.
func (c *Customer) ApplyFields(fields map[string]interface{}) error {
	return applyFields(c, customerFieldSetters, fields)
}

func applyFields[T any](record *T, setters map[string]fieldSetter[T], fields map[string]interface{}) error {
	var errs []error
	for name, value := range fields {
		set, ok := setters[name]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownField, name))
			continue
		}
		if err := set(record, value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func setString(dst *string, v interface{}) error {
	switch s := v.(type) {
	case nil:
		*dst = ""
	case string:
		*dst = strings.TrimSpace(s)
	case fmt.Stringer:
		*dst = s.String()
	case int:
		*dst = strconv.Itoa(s)
	case int64:
		*dst = strconv.FormatInt(s, 10)
	case float64:
		*dst = strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Errorf("%w: %T", ErrFieldType, v)
	}
	return nil
}

func setInt(dst *int, v interface{}) error {
	n, _ := normalize.CappedInt(v)
	if n == nil {
		return fmt.Errorf("%w: %v", ErrFieldType, v)
	}
	*dst = int(*n)
	return nil
}

// requirements collects required-field checks shared by the record types.
type requirements []requirement

type requirement struct {
	field   string
	present bool
}

func (r requirements) check(record string) error {
	var missing []string
	for _, req := range r {
		if !req.present {
			missing = append(missing, req.field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s needs %s", ErrMissingField, record, strings.Join(missing, ", "))
	}
	return nil
}

// Validate checks the fields the platform requires for an order.
func (o *Order) Validate() error {
	return requirements{
		{"externalid or externalcheckoutid", o.Identifier() != ""},
		{"email", o.Email != ""},
		{"connectionid", o.ConnectionID != ""},
		{"currency", o.Currency != ""},
		{"orderProducts", len(o.OrderProducts) > 0},
	}.check("order")
}

// Validate checks the fields the platform requires for a customer.
func (c *Customer) Validate() error {
	return requirements{
		{"connectionid", c.ConnectionID != ""},
		{"externalid", c.ExternalID != ""},
		{"email", c.Email != ""},
	}.check("customer")
}

// Validate checks the fields the platform requires for an order line.
func (p *Product) Validate() error {
	return requirements{
		{"externalid", p.ExternalID != ""},
		{"name", p.Name != ""},
	}.check("product")
}
