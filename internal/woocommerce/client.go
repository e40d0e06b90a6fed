package woocommerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ecomsync/internal/logger"
)

var ErrNotFound = errors.New("woocommerce: resource not found")

// Catalog resolves products and variations by id.
type Catalog interface {
	Product(ctx context.Context, id int64) (*Product, error)
	Variation(ctx context.Context, parentID, id int64) (*Product, error)
}

// MediaResolver resolves attachment ids to image metadata.
type MediaResolver interface {
	Media(ctx context.Context, id int64) (*Media, error)
}

type Client struct {
	storeURL       string
	consumerKey    string
	consumerSecret string
	httpClient     *http.Client
	logger         *logger.Logger
}

func NewClient(storeURL, consumerKey, consumerSecret string, logger *logger.Logger) *Client {
	return &Client{
		storeURL:       strings.TrimRight(storeURL, "/"),
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Product fetches a single product by ID
func (c *Client) Product(ctx context.Context, id int64) (*Product, error) {
	var product Product
	if _, err := c.get(ctx, fmt.Sprintf("/wp-json/wc/v3/products/%d", id), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Variation fetches a variation of parentID
func (c *Client) Variation(ctx context.Context, parentID, id int64) (*Product, error) {
	var variation Product
	path := fmt.Sprintf("/wp-json/wc/v3/products/%d/variations/%d", parentID, id)
	if _, err := c.get(ctx, path, nil, &variation); err != nil {
		return nil, err
	}
	if variation.ParentID == 0 {
		variation.ParentID = parentID
	}
	if variation.Type == "" {
		variation.Type = "variation"
	}
	return &variation, nil
}

// Media fetches a WordPress attachment
func (c *Client) Media(ctx context.Context, id int64) (*Media, error) {
	var media Media
	if _, err := c.get(ctx, fmt.Sprintf("/wp-json/wp/v2/media/%d", id), nil, &media); err != nil {
		return nil, err
	}
	return &media, nil
}

// ListProducts fetches one page of products and reports the total page count.
func (c *Client) ListProducts(ctx context.Context, page, perPage int) ([]Product, int, error) {
	q := map[string]string{
		"page":     strconv.Itoa(page),
		"per_page": strconv.Itoa(perPage),
		"orderby":  "id",
		"order":    "asc",
	}

	var products []Product
	resp, err := c.get(ctx, "/wp-json/wc/v3/products", q, &products)
	if err != nil {
		return nil, 0, err
	}

	totalPages, _ := strconv.Atoi(resp.Header.Get("X-WP-TotalPages"))
	return products, totalPages, nil
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, target interface{}) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.storeURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.consumerKey, c.consumerSecret)
	req.Header.Set("Accept", "application/json")

	if len(query) > 0 {
		q := req.URL.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API request failed: %d - %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("woocommerce GET %s ok", path)
	return resp, nil
}
