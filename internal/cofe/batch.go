package cofe

import (
	"context"
	"errors"
	"fmt"

	"ecomsync/internal/literal"
	"ecomsync/internal/woocommerce"
)

// UpsertMutation is the catalog mutation that receives mapped products.
const UpsertMutation = "bulkUpsertProducts"

// Failure records a product that could not be mapped.
type Failure struct {
	ProductID int64
	Err       error
}

// MapBatch maps a page of store products. Variable products are expanded
// into their variations when a catalog is configured. Failures are returned
// alongside the mapped products and never stop the batch.
func (m *Mapper) MapBatch(ctx context.Context, products []woocommerce.Product) ([]literal.Object, []Failure) {
	var (
		out      []literal.Object
		failures []Failure
	)
	push := func(product, parent *woocommerce.Product) {
		obj, err := m.Map(ctx, product, parent)
		if err != nil {
			failures = append(failures, Failure{ProductID: idOf(product), Err: err})
			return
		}
		out = append(out, obj)
	}

	for i := range products {
		p := &products[i]
		switch {
		case len(p.Variations) > 0 && m.catalog != nil:
			for _, id := range p.Variations {
				v, err := m.catalog.Variation(ctx, p.ID, id)
				if err != nil {
					failures = append(failures, Failure{ProductID: id, Err: fmt.Errorf("failed to load variation: %w", err)})
					continue
				}
				push(v, p)
			}
		case p.IsVariation() && m.catalog != nil:
			parent, err := m.catalog.Product(ctx, p.ParentID)
			if err != nil && !errors.Is(err, woocommerce.ErrNotFound) {
				failures = append(failures, Failure{ProductID: p.ID, Err: fmt.Errorf("failed to load parent: %w", err)})
				continue
			}
			push(p, parent)
		default:
			push(p, nil)
		}
	}
	return out, failures
}

// UpsertDocument renders the mutation that upserts products.
func UpsertDocument(s *literal.Serializer, products []literal.Object) string {
	return literal.Mutation(UpsertMutation, s.Serialize("products", products), "storePrimaryId")
}

func idOf(p *woocommerce.Product) int64 {
	if p == nil {
		return 0
	}
	return p.ID
}
