package ecom

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"ecomsync/internal/config"
	"ecomsync/internal/description"
	"ecomsync/internal/logger"
	"ecomsync/internal/normalize"
	"ecomsync/internal/woocommerce"
)

// unknownCategory is what the store reports for uncategorised variations.
const unknownCategory = "Unknown"

var ErrUnmappableItem = errors.New("ecom: line item has no id and no name")

// ItemData is explicit data supplied alongside a line item. When it is
// present and the item's product resolves, the full mapping is used.
type ItemData struct {
	Name string
}

// ProductMapper converts cart and order line items into products.
type ProductMapper struct {
	catalog  woocommerce.Catalog
	settings config.Settings
	logger   *logger.Logger
}

// NewProductMapper creates a mapper. catalog may be nil, in which case only
// products embedded in the line items are used.
func NewProductMapper(catalog woocommerce.Catalog, settings config.Settings, logger *logger.Logger) *ProductMapper {
	return &ProductMapper{catalog: catalog, settings: settings, logger: logger}
}

// MapLineItems maps every item. A failing item yields a Result with Err set
// and a nil Product; the others are unaffected.
func (m *ProductMapper) MapLineItems(ctx context.Context, items []woocommerce.CartItem, data map[string]*ItemData) []Result {
	results := make([]Result, len(items))
	for i := range items {
		var override *ItemData
		if data != nil {
			override = data[items[i].Key]
		}
		results[i] = m.mapOne(ctx, i, items[i], override)
	}
	return results
}

func (m *ProductMapper) mapOne(ctx context.Context, index int, item woocommerce.CartItem, data *ItemData) (res Result) {
	res = Result{Index: index, Key: item.Key}
	defer func() {
		if r := recover(); r != nil {
			res.Product = nil
			res.Err = fmt.Errorf("panic mapping line item: %v", r)
		}
		if res.Err != nil {
			res.Code = CodeMapLineItem
			m.logger.Errorw("Failed to map line item",
				"code", CodeMapLineItem,
				"index", index,
				"product_id", item.ProductID,
				"variation_id", item.VariationID,
				"error", res.Err)
		}
	}()

	res.Product, res.Err = m.MapLineItem(ctx, item, data)
	return res
}

// MapLineItem maps a single line item. The full mapping applies when the
// item's product can be resolved and data is given; otherwise the product is
// built from the item's own fields.
func (m *ProductMapper) MapLineItem(ctx context.Context, item woocommerce.CartItem, data *ItemData) (*Product, error) {
	variation, parent, err := m.resolve(ctx, item)
	if err != nil {
		return nil, err
	}

	var p *Product
	if (variation != nil || parent != nil) && data != nil {
		p = m.fullMapping(item, variation, parent, data)
	} else {
		p, err = m.genericMapping(item)
		if err != nil {
			return nil, err
		}
	}
	p.Quantity = item.Quantity
	return p, nil
}

// resolve finds the variation and parent behind a line item. Products the
// store no longer knows are treated as unresolvable; other lookup errors
// fail the item.
func (m *ProductMapper) resolve(ctx context.Context, item woocommerce.CartItem) (variation, parent *woocommerce.Product, err error) {
	if item.Data != nil {
		if !item.Data.IsVariation() {
			return nil, item.Data, nil
		}
		variation = item.Data
		parentID := item.Data.ParentID
		if parentID == 0 {
			parentID = item.ProductID
		}
		parent, err = m.lookup(func() (*woocommerce.Product, error) { return m.catalog.Product(ctx, parentID) }, parentID)
		return variation, parent, err
	}

	if m.catalog == nil || item.ProductID == 0 {
		return nil, nil, nil
	}
	parent, err = m.lookup(func() (*woocommerce.Product, error) { return m.catalog.Product(ctx, item.ProductID) }, item.ProductID)
	if err != nil {
		return nil, nil, err
	}
	if item.VariationID > 0 {
		variation, err = m.lookup(func() (*woocommerce.Product, error) {
			return m.catalog.Variation(ctx, item.ProductID, item.VariationID)
		}, item.ProductID)
		if err != nil {
			return nil, nil, err
		}
	}
	return variation, parent, nil
}

func (m *ProductMapper) lookup(fetch func() (*woocommerce.Product, error), parentID int64) (*woocommerce.Product, error) {
	if m.catalog == nil || parentID == 0 {
		return nil, nil
	}
	p, err := fetch()
	if errors.Is(err, woocommerce.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve product %d: %w", parentID, err)
	}
	return p, nil
}

func (m *ProductMapper) fullMapping(item woocommerce.CartItem, variation, parent *woocommerce.Product, data *ItemData) *Product {
	p := &Product{ExternalID: externalID(item, variation, parent)}

	primary := variation
	if primary == nil {
		primary = parent
	}

	p.Name = firstNonEmpty(data.Name, nameOf(variation), nameOf(parent))
	p.Price = normalize.MinorUnits(primary.Price)

	p.Category = categoryOf(variation)
	if p.Category == nil || *p.Category == unknownCategory {
		if fromParent := categoryOf(parent); fromParent != nil {
			p.Category = fromParent
		}
	}

	p.ImageURL = firstNonEmpty(imageOf(variation), imageOf(parent))
	p.ProductURL = firstNonEmpty(permalinkOf(variation), permalinkOf(parent))
	p.SKU = firstNonEmpty(skuOf(variation), skuOf(parent))
	p.Description = description.Clean(firstNonEmpty(m.describe(variation), m.describe(parent)))
	return p
}

// genericMapping builds a product from the raw line item. The item
// sub-object, when present, supplies the image, url, sku and category.
func (m *ProductMapper) genericMapping(item woocommerce.CartItem) (*Product, error) {
	name := firstNonEmpty(item.Name, item.ItemString("name"))
	id := item.VariationID
	if id == 0 {
		id = item.ProductID
	}
	if id == 0 && name == "" {
		return nil, ErrUnmappableItem
	}

	p := &Product{Name: name}
	if id > 0 {
		p.ExternalID = strconv.FormatInt(id, 10)
	}
	if item.LineTotal != "" {
		p.Price = normalize.MinorUnits(item.LineTotal)
	} else if item.Item != nil {
		p.Price = normalize.MinorUnits(item.Item["price"])
	}
	if item.Item == nil {
		return p, nil
	}

	p.Category = normalize.String(item.ItemString("category"))
	p.ImageURL = firstNonEmpty(item.ItemString("image_url"), item.ItemString("imageUrl"))
	p.ProductURL = firstNonEmpty(item.ItemString("product_url"), item.ItemString("permalink"))
	p.SKU = item.ItemString("sku")
	p.Description = description.Clean(item.ItemString("description"))
	return p, nil
}

func (m *ProductMapper) describe(p *woocommerce.Product) string {
	if p == nil {
		return ""
	}
	return description.Select(m.settings.DescriptionSource, p.ShortDescription, p.Description)
}

func externalID(item woocommerce.CartItem, variation, parent *woocommerce.Product) string {
	switch {
	case item.VariationID > 0:
		return strconv.FormatInt(item.VariationID, 10)
	case variation != nil && variation.ID > 0:
		return strconv.FormatInt(variation.ID, 10)
	case item.ProductID > 0:
		return strconv.FormatInt(item.ProductID, 10)
	case parent != nil:
		return strconv.FormatInt(parent.ID, 10)
	}
	return ""
}

func categoryOf(p *woocommerce.Product) *string {
	if p == nil {
		return nil
	}
	return normalize.JoinNames(p.CategoryNames())
}

func nameOf(p *woocommerce.Product) string {
	if p == nil {
		return ""
	}
	return p.Name
}

func imageOf(p *woocommerce.Product) string {
	if p == nil {
		return ""
	}
	return p.ImageURL()
}

func permalinkOf(p *woocommerce.Product) string {
	if p == nil {
		return ""
	}
	return p.Permalink
}

func skuOf(p *woocommerce.Product) string {
	if p == nil {
		return ""
	}
	return p.SKU
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
