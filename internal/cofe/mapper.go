// Package cofe maps store products into the commerce catalog's product
// shape and serializes them for the catalog's GraphQL endpoint.
package cofe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"ecomsync/internal/config"
	"ecomsync/internal/description"
	"ecomsync/internal/literal"
	"ecomsync/internal/logger"
	"ecomsync/internal/normalize"
	"ecomsync/internal/woocommerce"
)

const (
	// CodeMapProduct tags failed product mappings.
	CodeMapProduct = "ECPS_127"
	// CodeCapped tags integer fields clamped to the 32-bit bound.
	CodeCapped = "ECPS_131"
)

// Stock status tokens.
const (
	StockBackorder  literal.Enum = "BACKORDER"
	StockInStock    literal.Enum = "IN_STOCK"
	StockOutOfStock literal.Enum = "OUT_OF_STOCK"
)

var ErrMissingProductID = errors.New("cofe: product has no id")

// Mapper builds catalog product objects. The media resolver and catalog are
// optional: without a resolver the image urls embedded in the product are
// used, without a catalog variations are mapped without their parent.
type Mapper struct {
	media    woocommerce.MediaResolver
	catalog  woocommerce.Catalog
	settings config.Settings
	logger   *logger.Logger
}

func NewMapper(media woocommerce.MediaResolver, catalog woocommerce.Catalog, settings config.Settings, logger *logger.Logger) *Mapper {
	return &Mapper{media: media, catalog: catalog, settings: settings, logger: logger}
}

// Map converts product, with parent set for variations. On failure it logs
// the error and returns a nil object together with the error.
func (m *Mapper) Map(ctx context.Context, product, parent *woocommerce.Product) (obj literal.Object, err error) {
	defer func() {
		if r := recover(); r != nil {
			obj = nil
			err = fmt.Errorf("panic mapping product: %v", r)
		}
		if err != nil {
			var id int64
			if product != nil {
				id = product.ID
			}
			m.logger.Errorw("Failed to map catalog product",
				"code", CodeMapProduct,
				"product_id", id,
				"error", err)
		}
	}()

	if product == nil || product.ID == 0 {
		return nil, ErrMissingProductID
	}
	return m.build(ctx, product, parent), nil
}

func (m *Mapper) build(ctx context.Context, p, parent *woocommerce.Product) literal.Object {
	baseID := p.ID
	if parent != nil {
		baseID = parent.ID
	} else if p.ParentID > 0 {
		baseID = p.ParentID
	}

	fields := literal.Object{
		{Key: "storeBaseProductId", Value: strconv.FormatInt(baseID, 10)},
		{Key: "storePrimaryId", Value: strconv.FormatInt(p.ID, 10)},
		{Key: "sku", Value: normalize.String(fallback(p.SKU, parent, func(q *woocommerce.Product) string { return q.SKU }))},
		{Key: "name", Value: normalize.String(p.Name)},
		{Key: "description", Value: normalize.String(m.description(p, parent))},
		{Key: "currency", Value: normalize.String(m.settings.Currency)},
		{Key: "priceAmount", Value: normalize.PriceDecimal(p.Price)},
		{Key: "regularPriceAmount", Value: normalize.PriceDecimal(firstNonEmpty(p.RegularPrice, p.Price))},
		{Key: "weight", Value: normalize.DimensionDecimal(fallback(p.Weight, parent, func(q *woocommerce.Product) string { return q.Weight }))},
		{Key: "length", Value: dimension(p, parent, func(d woocommerce.Dimensions) string { return d.Length })},
		{Key: "width", Value: dimension(p, parent, func(d woocommerce.Dimensions) string { return d.Width })},
		{Key: "height", Value: dimension(p, parent, func(d woocommerce.Dimensions) string { return d.Height })},
		{Key: "images", Value: m.images(ctx, p, parent)},
		{Key: "storeCreatedDate", Value: normalize.ISODate(p.DateCreatedGMT)},
		{Key: "storeModifiedDate", Value: normalize.ISODate(p.DateModifiedGMT)},
		{Key: "status", Value: normalize.String(p.Status)},
		{Key: "isVisible", Value: p.CatalogVisibility != "hidden"},
		{Key: "isFeatured", Value: p.Featured},
		{Key: "isOnSale", Value: p.OnSale},
		{Key: "isVirtual", Value: p.Virtual},
		{Key: "stockStatus", Value: stockStatus(p)},
		{Key: "stockQuantity", Value: m.cappedInt(p.ID, "stockQuantity", p.StockQuantity)},
		{Key: "averageRating", Value: normalize.DimensionDecimal(p.AverageRating)},
		{Key: "ratingCount", Value: m.cappedInt(p.ID, "ratingCount", p.RatingCount)},
		{Key: "totalSales", Value: m.cappedInt(p.ID, "totalSales", p.TotalSales)},
		{Key: "categories", Value: names(p, parent, (*woocommerce.Product).CategoryNames)},
		{Key: "tags", Value: names(p, parent, (*woocommerce.Product).TagNames)},
		{Key: "productUrl", Value: normalize.String(fallback(p.Permalink, parent, func(q *woocommerce.Product) string { return q.Permalink }))},
		{Key: "attributes", Value: attributes(p, parent)},
	}
	return fields
}

func (m *Mapper) description(p, parent *woocommerce.Product) string {
	text := description.Select(m.settings.DescriptionSource, p.ShortDescription, p.Description)
	if strings.TrimSpace(text) == "" && parent != nil {
		text = description.Select(m.settings.DescriptionSource, parent.ShortDescription, parent.Description)
	}
	return description.Clean(text)
}

// cappedInt returns the integer value of v, or nil when the store has none.
func (m *Mapper) cappedInt(productID int64, field string, v interface{}) interface{} {
	n, capped := normalize.CappedInt(v)
	if capped {
		m.logger.Warnw("Integer value capped",
			"code", CodeCapped,
			"product_id", productID,
			"field", field,
			"value", fmt.Sprintf("%v", v),
			"max", normalize.MaxInt)
	}
	if n == nil {
		return nil
	}
	return *n
}

// images resolves the primary image and the gallery. Images that fail to
// resolve are skipped.
func (m *Mapper) images(ctx context.Context, p, parent *woocommerce.Product) interface{} {
	source := p
	if p.ImageID() == 0 && p.ImageURL() == "" && parent != nil {
		source = parent
	}

	var out literal.List
	if m.media == nil {
		for _, img := range embeddedImages(source) {
			if img.Src == "" {
				continue
			}
			out = append(out, image(img.Src, 0, 0))
		}
	} else {
		ids := append([]int64{source.ImageID()}, source.GalleryImageIDs()...)
		for _, id := range ids {
			if id == 0 {
				continue
			}
			media, err := m.media.Media(ctx, id)
			if err != nil || media == nil || media.SourceURL == "" {
				m.logger.Warnw("Skipping product image",
					"product_id", p.ID,
					"image_id", id,
					"error", err)
				continue
			}
			out = append(out, image(media.SourceURL, media.MediaDetails.Width, media.MediaDetails.Height))
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func embeddedImages(p *woocommerce.Product) []woocommerce.Image {
	if p.Image != nil {
		return append([]woocommerce.Image{*p.Image}, p.Images...)
	}
	return p.Images
}

func image(url string, width, height int) literal.Object {
	return literal.Object{
		{Key: "url", Value: url},
		{Key: "width", Value: positive(width)},
		{Key: "height", Value: positive(height)},
	}
}

func positive(n int) interface{} {
	if n <= 0 {
		return nil
	}
	return n
}

// stockStatus returns the stock token. Backorders win over the in-stock flag.
func stockStatus(p *woocommerce.Product) interface{} {
	if p.IsOnBackorder() {
		return StockBackorder
	}
	inStock := p.InStock()
	switch {
	case inStock == nil:
		return nil
	case *inStock:
		return StockInStock
	default:
		return StockOutOfStock
	}
}

func dimension(p, parent *woocommerce.Product, pick func(woocommerce.Dimensions) string) *decimal.Decimal {
	if d := normalize.DimensionDecimal(pick(p.Dimensions)); d != nil {
		return d
	}
	if parent != nil {
		return normalize.DimensionDecimal(pick(parent.Dimensions))
	}
	return nil
}

func names(p, parent *woocommerce.Product, list func(*woocommerce.Product) []string) *string {
	if joined := normalize.JoinNames(list(p)); joined != nil {
		return joined
	}
	if parent != nil {
		return normalize.JoinNames(list(parent))
	}
	return nil
}

func fallback(v string, parent *woocommerce.Product, pick func(*woocommerce.Product) string) string {
	if strings.TrimSpace(v) != "" || parent == nil {
		return v
	}
	return pick(parent)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// attributes collects the product attributes and public meta data. Keys are
// sanitized for the transport; nested values are sent as JSON strings.
func attributes(p, parent *woocommerce.Product) interface{} {
	var out literal.Object
	add := func(key string, value interface{}) {
		key = normalize.SanitizeKey(key)
		if key == "" {
			return
		}
		if _, exists := out.Get(key); exists {
			return
		}
		out = append(out, literal.Field{Key: key, Value: attributeValue(value)})
	}

	for _, src := range []*woocommerce.Product{p, parent} {
		if src == nil {
			continue
		}
		for _, a := range src.Attributes {
			switch {
			case a.Option != "":
				add(a.Name, a.Option)
			case len(a.Options) > 0:
				add(a.Name, a.Options)
			}
		}
	}
	for _, meta := range p.MetaData {
		if strings.HasPrefix(meta.Key, "_") {
			continue
		}
		add(meta.Key, meta.Value)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// attributeValue keeps scalars, JSON-encodes nested structures and drops
// anything else.
func attributeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case string, bool:
		return val
	case float64:
		return decimal.NewFromFloat(val)
	case json.Number:
		if d, ok := normalize.Decimal(val); ok {
			return d
		}
		return string(val)
	case int, int64:
		return val
	case []string, []interface{}, map[string]interface{}:
		encoded, err := json.Marshal(val)
		if err != nil {
			return nil
		}
		return string(encoded)
	default:
		return nil
	}
}
