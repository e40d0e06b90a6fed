package woocommerce

import (
	"encoding/json"
	"strings"
)

const (
	StockStatusInStock    = "instock"
	StockStatusOutOfStock = "outofstock"
	StockStatusBackorder  = "onbackorder"
)

// Product represents a product or a product variation as returned by the
// WooCommerce REST API.
type Product struct {
	ID                int64       `json:"id"`
	ParentID          int64       `json:"parent_id"`
	Name              string      `json:"name"`
	Slug              string      `json:"slug"`
	Type              string      `json:"type"`
	Status            string      `json:"status"`
	Featured          bool        `json:"featured"`
	CatalogVisibility string      `json:"catalog_visibility"`
	Description       string      `json:"description"`
	ShortDescription  string      `json:"short_description"`
	SKU               string      `json:"sku"`
	Price             string      `json:"price"`
	RegularPrice      string      `json:"regular_price"`
	SalePrice         string      `json:"sale_price"`
	OnSale            bool        `json:"on_sale"`
	Purchasable       bool        `json:"purchasable"`
	Virtual           bool        `json:"virtual"`
	Downloadable      bool        `json:"downloadable"`
	Permalink         string      `json:"permalink"`
	DateCreatedGMT    string      `json:"date_created_gmt"`
	DateModifiedGMT   string      `json:"date_modified_gmt"`
	StockStatus       string      `json:"stock_status"`
	StockQuantity     json.Number `json:"stock_quantity,omitempty"`
	Weight            string      `json:"weight"`
	Dimensions        Dimensions  `json:"dimensions"`
	Images            []Image     `json:"images"`
	Image             *Image      `json:"image,omitempty"`
	Categories        []Category  `json:"categories"`
	Tags              []Tag       `json:"tags"`
	Attributes        []Attribute `json:"attributes"`
	MetaData          []MetaData  `json:"meta_data"`
	AverageRating     string      `json:"average_rating"`
	RatingCount       json.Number `json:"rating_count,omitempty"`
	TotalSales        json.Number `json:"total_sales,omitempty"`
	Variations        []int64     `json:"variations"`
}

// Dimensions holds the store's textual dimension values.
type Dimensions struct {
	Length string `json:"length"`
	Width  string `json:"width"`
	Height string `json:"height"`
}

// Image represents a product image
type Image struct {
	ID   int64  `json:"id"`
	Src  string `json:"src"`
	Name string `json:"name"`
	Alt  string `json:"alt"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Attribute is a product attribute. Variations carry a single Option, parents
// the list of Options.
type Attribute struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Option    string   `json:"option,omitempty"`
	Options   []string `json:"options,omitempty"`
	Variation bool     `json:"variation"`
	Visible   bool     `json:"visible"`
}

type MetaData struct {
	ID    int64       `json:"id"`
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// Media is a WordPress attachment.
type Media struct {
	ID           int64        `json:"id"`
	SourceURL    string       `json:"source_url"`
	MediaDetails MediaDetails `json:"media_details"`
}

type MediaDetails struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsVariation reports whether p is a variation of another product.
func (p *Product) IsVariation() bool {
	return p.Type == "variation" || p.ParentID > 0
}

// CategoryNames returns the category names in store order.
func (p *Product) CategoryNames() []string {
	names := make([]string, 0, len(p.Categories))
	for _, c := range p.Categories {
		names = append(names, c.Name)
	}
	return names
}

func (p *Product) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	return names
}

// ImageID returns the primary image id, or 0.
func (p *Product) ImageID() int64 {
	if p.Image != nil && p.Image.ID > 0 {
		return p.Image.ID
	}
	if len(p.Images) > 0 {
		return p.Images[0].ID
	}
	return 0
}

// GalleryImageIDs returns the ids of the images after the primary one.
func (p *Product) GalleryImageIDs() []int64 {
	if len(p.Images) < 2 {
		return nil
	}
	ids := make([]int64, 0, len(p.Images)-1)
	for _, img := range p.Images[1:] {
		if img.ID > 0 {
			ids = append(ids, img.ID)
		}
	}
	return ids
}

// ImageURL returns the primary image source, or "".
func (p *Product) ImageURL() string {
	if p.Image != nil && p.Image.Src != "" {
		return p.Image.Src
	}
	if len(p.Images) > 0 {
		return p.Images[0].Src
	}
	return ""
}

// InStock reports the stock state, or nil when the store does not say.
func (p *Product) InStock() *bool {
	var v bool
	switch p.StockStatus {
	case StockStatusInStock, StockStatusBackorder:
		v = true
	case StockStatusOutOfStock:
		v = false
	default:
		return nil
	}
	return &v
}

func (p *Product) IsOnBackorder() bool {
	return p.StockStatus == StockStatusBackorder
}

// Meta returns the value of the first meta entry named key.
func (p *Product) Meta(key string) (interface{}, bool) {
	for _, m := range p.MetaData {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// CartItem is one line of a shopping cart. Data holds the resolved product
// when the cart payload embeds it; Item holds any raw item fields.
type CartItem struct {
	Key         string                 `json:"key"`
	ProductID   int64                  `json:"product_id"`
	VariationID int64                  `json:"variation_id"`
	Quantity    int                    `json:"quantity"`
	Name        string                 `json:"name"`
	LineTotal   json.Number            `json:"line_total,omitempty"`
	Data        *Product               `json:"data,omitempty"`
	Item        map[string]interface{} `json:"item,omitempty"`
}

// ItemString returns a string field of the raw item sub-object.
func (c *CartItem) ItemString(key string) string {
	if c.Item == nil {
		return ""
	}
	if s, ok := c.Item[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// Cart is an abandoned cart reported by the store.
type Cart struct {
	ID             string      `json:"id"`
	CustomerID     int64       `json:"customer_id"`
	CustomerEmail  string      `json:"customer_email"`
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	Currency       string      `json:"currency"`
	Total          json.Number `json:"total,omitempty"`
	CartURL        string      `json:"cart_url"`
	DateCreatedGMT string      `json:"date_created_gmt"`
	AbandonedAtGMT string      `json:"abandoned_at_gmt"`
	Items          []CartItem  `json:"items"`
}

type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone"`
}

type LineItem struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	ProductID   int64       `json:"product_id"`
	VariationID int64       `json:"variation_id"`
	Quantity    int         `json:"quantity"`
	SKU         string      `json:"sku"`
	Price       json.Number `json:"price,omitempty"`
	Total       string      `json:"total"`
	Image       *Image      `json:"image,omitempty"`
}

type ShippingLine struct {
	MethodTitle string `json:"method_title"`
	MethodID    string `json:"method_id"`
	Total       string `json:"total"`
}

// Order represents a WooCommerce order.
type Order struct {
	ID               int64          `json:"id"`
	ParentID         int64          `json:"parent_id"`
	Number           string         `json:"number"`
	Status           string         `json:"status"`
	Currency         string         `json:"currency"`
	CreatedVia       string         `json:"created_via"`
	DateCreatedGMT   string         `json:"date_created_gmt"`
	DateModifiedGMT  string         `json:"date_modified_gmt"`
	DateCompletedGMT string         `json:"date_completed_gmt"`
	DiscountTotal    string         `json:"discount_total"`
	ShippingTotal    string         `json:"shipping_total"`
	TotalTax         string         `json:"total_tax"`
	Total            string         `json:"total"`
	CustomerID       int64          `json:"customer_id"`
	Billing          Address        `json:"billing"`
	Shipping         Address        `json:"shipping"`
	PaymentMethod    string         `json:"payment_method"`
	LineItems        []LineItem     `json:"line_items"`
	ShippingLines    []ShippingLine `json:"shipping_lines"`
}

// Customer represents a registered store customer.
type Customer struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Username         string     `json:"username"`
	DateCreatedGMT   string     `json:"date_created_gmt"`
	Billing          Address    `json:"billing"`
	Shipping         Address    `json:"shipping"`
	MetaData         []MetaData `json:"meta_data"`
	AcceptsMarketing *bool      `json:"accepts_marketing,omitempty"`
}
