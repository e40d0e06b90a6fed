package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomsync/internal/cofe"
	"ecomsync/internal/config"
	"ecomsync/internal/database"
	"ecomsync/internal/ecom"
	"ecomsync/internal/events"
	"ecomsync/internal/literal"
	"ecomsync/internal/logger"
	"ecomsync/internal/models"
	"ecomsync/internal/woocommerce"
)

type fakePublisher struct {
	events []events.Event
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, e events.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

type fakeCatalog struct {
	pages [][]woocommerce.Product
	err   error
}

func (f *fakeCatalog) SyncProducts(ctx context.Context, handle func(ctx context.Context, products []woocommerce.Product) error) (int, error) {
	n := 0
	for _, page := range f.pages {
		if err := handle(ctx, page); err != nil {
			return n, err
		}
		n += len(page)
	}
	return n, f.err
}

type testServer struct {
	router    *gin.Engine
	db        *database.Database
	publisher *fakePublisher
	catalog   *fakeCatalog
}

func newTestServer(t *testing.T, secret string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_").Replace(t.Name())
	db, err := database.New(fmt.Sprintf("sqlite://file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewNop()
	settings := config.Settings{Currency: "USD", ConnectionID: "1"}
	publisher := &fakePublisher{}
	catalog := &fakeCatalog{}
	srv := New(&config.Config{Env: "test", WebhookSecret: secret}, log, Dependencies{
		DB:         db,
		Publisher:  publisher,
		Catalog:    catalog,
		Products:   ecom.NewProductMapper(nil, settings, log),
		CofeMapper: cofe.NewMapper(nil, nil, settings, log),
		Serializer: literal.NewSerializer(log),
	})
	return &testServer{router: srv.Router(), db: db, publisher: publisher, catalog: catalog}
}

func (ts *testServer) do(method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestWebhookQueuesEvent(t *testing.T) {
	ts := newTestServer(t, "s3cret")
	body := []byte(`{"id": 12}`)

	w := ts.do(http.MethodPost, "/api/v1/webhooks/woocommerce", body, map[string]string{
		"X-WC-Webhook-Topic":     "order.created",
		"X-WC-Webhook-Signature": sign("s3cret", body),
	})

	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, ts.publisher.events, 1)
	assert.Equal(t, "order.created", ts.publisher.events[0].Type)
	assert.JSONEq(t, `{"id": 12}`, string(ts.publisher.events[0].Payload))
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	ts := newTestServer(t, "s3cret")

	w := ts.do(http.MethodPost, "/api/v1/webhooks/woocommerce", []byte(`{}`), map[string]string{
		"X-WC-Webhook-Topic":     "order.created",
		"X-WC-Webhook-Signature": sign("other", []byte(`{}`)),
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, ts.publisher.events)
}

func TestWebhookPingAndIgnoredTopic(t *testing.T) {
	ts := newTestServer(t, "")

	w := ts.do(http.MethodPost, "/api/v1/webhooks/woocommerce", []byte(`webhook_id=3`), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodPost, "/api/v1/webhooks/woocommerce", []byte(`{}`), map[string]string{"X-WC-Webhook-Topic": "coupon.created"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, ts.publisher.events)
}

func TestWebhookPublishFailure(t *testing.T) {
	ts := newTestServer(t, "")
	ts.publisher.err = errors.New("broker down")

	w := ts.do(http.MethodPost, "/api/v1/webhooks/woocommerce", []byte(`{}`), map[string]string{"X-WC-Webhook-Topic": "cart.abandoned"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPreviewCart(t *testing.T) {
	ts := newTestServer(t, "")
	body := []byte(`{"items": [
		{"key": "a", "product_id": 1, "quantity": 2, "name": "Tee", "line_total": "10"},
		{"key": "b", "quantity": 1},
		{"key": "c", "product_id": 3, "quantity": 1, "name": "Cap"}
	]}`)

	w := ts.do(http.MethodPost, "/api/v1/preview/cart", body, nil)

	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	data := out["data"].([]interface{})
	require.Len(t, data, 3)
	assert.Equal(t, "Tee", data[0].(map[string]interface{})["name"])
	assert.Nil(t, data[1])
	assert.Equal(t, "Cap", data[2].(map[string]interface{})["name"])
	errs := out["errors"].([]interface{})
	require.Len(t, errs, 1)
	assert.Equal(t, ecom.CodeMapLineItem, errs[0].(map[string]interface{})["code"])
}

func TestPreviewProduct(t *testing.T) {
	ts := newTestServer(t, "")

	w := ts.do(http.MethodPost, "/api/v1/preview/product", []byte(`{"product": {"id": 4, "name": "Mug", "price": "8.50", "stock_status": "instock"}}`), nil)

	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Contains(t, data["literal"], `name:"Mug"`)
	assert.Contains(t, data["literal"], `priceAmount:8.5`)
	assert.Contains(t, data["literal"], `stockStatus:IN_STOCK`)
	assert.True(t, strings.HasPrefix(data["mutation"].(string), "mutation{bulkUpsertProducts(products:{"))

	w = ts.do(http.MethodPost, "/api/v1/preview/product", []byte(`{"product": {"name": "No id"}}`), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, cofe.CodeMapProduct, decode(t, w)["code"])
}

func TestIssueRoutes(t *testing.T) {
	ts := newTestServer(t, "")
	issue := &models.SyncIssue{EntityType: models.EntityOrder, ExternalID: "1", Code: "EPF_168", Severity: models.IssueSeverityMedium, Explanation: "x"}
	require.NoError(t, ts.db.RecordIssue(context.Background(), issue))

	w := ts.do(http.MethodGet, "/api/v1/issues?resolved=false", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 1)

	w = ts.do(http.MethodPost, "/api/v1/issues/"+issue.ID+"/resolve", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["data"].(map[string]interface{})["is_resolved"])

	w = ts.do(http.MethodGet, "/api/v1/issues/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSyncRecordRoutes(t *testing.T) {
	ts := newTestServer(t, "")
	rec := &models.SyncRecord{EntityType: models.EntityCustomer, ExternalID: "9", Status: models.SyncStatusSynced}
	require.NoError(t, ts.db.RecordSync(context.Background(), rec))

	w := ts.do(http.MethodGet, "/api/v1/sync-records?entity_type=CUSTOMER", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 1)

	w = ts.do(http.MethodGet, "/api/v1/sync-records/"+rec.ID, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodGet, "/api/v1/sync-records/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConnectionSync(t *testing.T) {
	ts := newTestServer(t, "")
	ts.catalog.pages = [][]woocommerce.Product{{{ID: 1}, {ID: 2}}, {{ID: 3}}}

	w := ts.do(http.MethodPost, "/api/v1/connections", []byte(`{"name": "Shop", "store_url": "https://shop.test", "connection_id": "5"}`), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["data"].(map[string]interface{})["id"].(string)

	w = ts.do(http.MethodPost, "/api/v1/connections/"+id+"/sync", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decode(t, w)["queued"])
	require.Len(t, ts.publisher.events, 3)
	assert.Equal(t, woocommerce.EventProductUpdated, ts.publisher.events[0].Type)
	assert.Equal(t, ecom.SourceHistorical, ts.publisher.events[0].Source)

	var conn models.Connection
	require.NoError(t, ts.db.DB.First(&conn, "id = ?", id).Error)
	assert.Equal(t, models.ConnectionStatusActive, conn.Status)
	assert.NotNil(t, conn.LastSync)

	w = ts.do(http.MethodGet, "/api/v1/connections", nil, nil)
	assert.Len(t, decode(t, w)["data"], 1)
}

func TestConnectionSyncFailure(t *testing.T) {
	ts := newTestServer(t, "")
	ts.catalog.err = errors.New("store unreachable")

	w := ts.do(http.MethodPost, "/api/v1/connections", []byte(`{"name": "Shop", "store_url": "https://shop.test", "connection_id": "5"}`), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["data"].(map[string]interface{})["id"].(string)

	w = ts.do(http.MethodPost, "/api/v1/connections/"+id+"/sync", nil, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var conn models.Connection
	require.NoError(t, ts.db.DB.First(&conn, "id = ?", id).Error)
	assert.Equal(t, models.ConnectionStatusError, conn.Status)
	require.NotNil(t, conn.LastError)
	assert.Equal(t, "store unreachable", *conn.LastError)
}
