package validation

import (
	"errors"
	"fmt"

	"ecomsync/internal/ecom"
	"ecomsync/internal/logger"
)

// CodeInvalidRecord tags records rejected before export.
const CodeInvalidRecord = "EVAL_104"

// Validator checks mapped records before they are exported.
type Validator struct {
	logger *logger.Logger
}

func New(logger *logger.Logger) *Validator {
	return &Validator{logger: logger}
}

// ValidateOrder checks the order and every product it carries.
func (v *Validator) ValidateOrder(order *ecom.Order) error {
	var errs []error
	if err := order.Validate(); err != nil {
		errs = append(errs, err)
	}
	for i, p := range order.OrderProducts {
		if p == nil {
			continue
		}
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("orderProducts[%d]: %w", i, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		v.logger.Warnw("Order failed validation",
			"code", CodeInvalidRecord,
			"order", order.Identifier(),
			"error", err)
		return err
	}
	return nil
}

func (v *Validator) ValidateCustomer(customer *ecom.Customer) error {
	if err := customer.Validate(); err != nil {
		v.logger.Warnw("Customer failed validation",
			"code", CodeInvalidRecord,
			"customer", customer.ExternalID,
			"error", err)
		return err
	}
	return nil
}
