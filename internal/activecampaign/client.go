// Package activecampaign talks to the marketing platform's REST and
// catalog GraphQL endpoints.
package activecampaign

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ecomsync/internal/ecom"
	"ecomsync/internal/logger"
)

// APIError is a non-2xx answer from the platform.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed: %d - %s", e.StatusCode, e.Body)
}

// Client calls the platform API. Requests are not retried.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logger.Logger
}

func NewClient(baseURL, apiKey string, logger *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

type customerList struct {
	EcomCustomers []struct {
		ID string `json:"id"`
	} `json:"ecomCustomers"`
}

type orderList struct {
	EcomOrders []struct {
		ID string `json:"id"`
	} `json:"ecomOrders"`
}

type recordID struct {
	ID string `json:"id"`
}

// UpsertCustomer creates the customer or updates the one already known for
// its email and connection. It returns the platform id.
func (c *Client) UpsertCustomer(ctx context.Context, customer *ecom.Customer) (string, error) {
	q := url.Values{}
	q.Set("filters[email]", customer.Email)
	q.Set("filters[connectionid]", customer.ConnectionID)

	var existing customerList
	if err := c.do(ctx, http.MethodGet, "/api/3/ecomCustomers", q, nil, &existing); err != nil {
		return "", err
	}

	var out struct {
		EcomCustomer recordID `json:"ecomCustomer"`
	}
	payload := ecom.CustomerPayload{EcomCustomer: customer}
	if len(existing.EcomCustomers) > 0 {
		id := existing.EcomCustomers[0].ID
		if err := c.do(ctx, http.MethodPut, "/api/3/ecomCustomers/"+id, nil, payload, &out); err != nil {
			return "", err
		}
		return id, nil
	}
	if err := c.do(ctx, http.MethodPost, "/api/3/ecomCustomers", nil, payload, &out); err != nil {
		return "", err
	}
	return out.EcomCustomer.ID, nil
}

// UpsertOrder creates or updates an order or abandoned cart and returns the
// platform id.
func (c *Client) UpsertOrder(ctx context.Context, order *ecom.Order) (string, error) {
	q := url.Values{}
	q.Set("filters[connectionid]", order.ConnectionID)
	if order.ExternalID != "" {
		q.Set("filters[externalid]", order.ExternalID)
	} else {
		q.Set("filters[externalcheckoutid]", order.ExternalCheckoutID)
	}

	var existing orderList
	if err := c.do(ctx, http.MethodGet, "/api/3/ecomOrders", q, nil, &existing); err != nil {
		return "", err
	}

	var out struct {
		EcomOrder recordID `json:"ecomOrder"`
	}
	payload := ecom.OrderPayload{EcomOrder: order}
	if len(existing.EcomOrders) > 0 {
		id := existing.EcomOrders[0].ID
		if err := c.do(ctx, http.MethodPut, "/api/3/ecomOrders/"+id, nil, payload, &out); err != nil {
			return "", err
		}
		return id, nil
	}
	if err := c.do(ctx, http.MethodPost, "/api/3/ecomOrders", nil, payload, &out); err != nil {
		return "", err
	}
	return out.EcomOrder.ID, nil
}

// GraphQLError is one entry of a GraphQL error list.
type GraphQLError struct {
	Message string `json:"message"`
}

// QueryError carries the errors returned with a GraphQL response.
type QueryError struct {
	Errors []GraphQLError
}

func (e *QueryError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ge := range e.Errors {
		msgs[i] = ge.Message
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// Query sends a GraphQL document to the catalog endpoint and returns the
// data member of the answer.
func (c *Client) Query(ctx context.Context, document string) (json.RawMessage, error) {
	var out struct {
		Data   json.RawMessage `json:"data"`
		Errors []GraphQLError  `json:"errors"`
	}
	body := map[string]string{"query": document}
	if err := c.do(ctx, http.MethodPost, "/api/graphql", nil, body, &out); err != nil {
		return nil, err
	}
	if len(out.Errors) > 0 {
		return out.Data, &QueryError{Errors: out.Errors}
	}
	return out.Data, nil
}

// Features returns the plan features enabled for the account.
func (c *Client) Features(ctx context.Context) (map[string]bool, error) {
	var out struct {
		Features []struct {
			Name    string `json:"name"`
			Enabled bool   `json:"enabled"`
		} `json:"features"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/3/accountPlanFeatures", nil, nil, &out); err != nil {
		return nil, err
	}
	features := make(map[string]bool, len(out.Features))
	for _, f := range out.Features {
		features[f.Name] = f.Enabled
	}
	return features, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, target interface{}) error {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}
	req.Header.Set("Api-Token", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("%s %s", method, path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
