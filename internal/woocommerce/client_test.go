package woocommerce

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomsync/internal/logger"
)

func newStoreServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wc/v3/products/10", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "ck" || pass != "cs" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"id":10,"name":"Tee","price":"19.99","stock_status":"instock","rating_count":4,"total_sales":"12",
			"categories":[{"id":1,"name":"Shirts"}],"images":[{"id":100,"src":"https://shop/tee.jpg"},{"id":101,"src":"https://shop/tee2.jpg"}]}`))
	})
	mux.HandleFunc("/wp-json/wc/v3/products/10/variations/11", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":11,"price":"21.00","sku":"TEE-L","image":{"id":102,"src":"https://shop/tee-l.jpg"}}`))
	})
	mux.HandleFunc("/wp-json/wp/v2/media/100", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":100,"source_url":"https://shop/tee.jpg","media_details":{"width":800,"height":600}}`))
	})
	mux.HandleFunc("/wp-json/wc/v3/products", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "5", r.URL.Query().Get("per_page"))
		w.Header().Set("X-WP-TotalPages", "3")
		w.Write([]byte(`[{"id":1},{"id":2}]`))
	})
	mux.HandleFunc("/wp-json/wc/v3/products/500", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientProduct(t *testing.T) {
	srv := newStoreServer(t)
	c := NewClient(srv.URL+"/", "ck", "cs", logger.NewNop())

	p, err := c.Product(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "Tee", p.Name)
	assert.Equal(t, "12", p.TotalSales.String())
	assert.Equal(t, []string{"Shirts"}, p.CategoryNames())
	assert.Equal(t, int64(100), p.ImageID())
	assert.Equal(t, []int64{101}, p.GalleryImageIDs())
}

func TestClientVariationDefaultsParent(t *testing.T) {
	srv := newStoreServer(t)
	c := NewClient(srv.URL, "ck", "cs", logger.NewNop())

	v, err := c.Variation(context.Background(), 10, 11)
	require.NoError(t, err)
	assert.Equal(t, int64(10), v.ParentID)
	assert.True(t, v.IsVariation())
	assert.Equal(t, int64(102), v.ImageID())
	assert.Equal(t, "https://shop/tee-l.jpg", v.ImageURL())
}

func TestClientMedia(t *testing.T) {
	srv := newStoreServer(t)
	c := NewClient(srv.URL, "ck", "cs", logger.NewNop())

	m, err := c.Media(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 800, m.MediaDetails.Width)
	assert.Equal(t, "https://shop/tee.jpg", m.SourceURL)
}

func TestClientErrors(t *testing.T) {
	srv := newStoreServer(t)
	c := NewClient(srv.URL, "ck", "cs", logger.NewNop())

	_, err := c.Product(context.Background(), 404)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = c.Product(context.Background(), 500)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")

	bad := NewClient(srv.URL, "ck", "wrong", logger.NewNop())
	_, err = bad.Product(context.Background(), 10)
	assert.Error(t, err)
}

func TestClientListProducts(t *testing.T) {
	srv := newStoreServer(t)
	c := NewClient(srv.URL, "ck", "cs", logger.NewNop())

	products, pages, err := c.ListProducts(context.Background(), 2, 5)
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, 3, pages)
}

func TestProductStockHelpers(t *testing.T) {
	p := &Product{StockStatus: StockStatusBackorder}
	require.NotNil(t, p.InStock())
	assert.True(t, *p.InStock())
	assert.True(t, p.IsOnBackorder())

	p.StockStatus = StockStatusOutOfStock
	require.NotNil(t, p.InStock())
	assert.False(t, *p.InStock())

	p.StockStatus = ""
	assert.Nil(t, p.InStock())
}

func TestCartItemItemString(t *testing.T) {
	item := CartItem{Item: map[string]interface{}{"sku": " ABC ", "n": 3}}
	assert.Equal(t, "ABC", item.ItemString("sku"))
	assert.Equal(t, "", item.ItemString("n"))
	assert.Equal(t, "", (&CartItem{}).ItemString("sku"))
}
