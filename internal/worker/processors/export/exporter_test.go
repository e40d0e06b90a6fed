package export

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomsync/internal/activecampaign"
	"ecomsync/internal/cofe"
	"ecomsync/internal/ecom"
	"ecomsync/internal/literal"
	"ecomsync/internal/logger"
	"ecomsync/internal/models"
)

type fakePlatform struct {
	customerErr error
	queryErr    error
	orders      []*ecom.Order
	documents   []string
}

func (f *fakePlatform) UpsertCustomer(ctx context.Context, c *ecom.Customer) (string, error) {
	if f.customerErr != nil {
		return "", f.customerErr
	}
	return "c-1", nil
}

func (f *fakePlatform) UpsertOrder(ctx context.Context, o *ecom.Order) (string, error) {
	f.orders = append(f.orders, o)
	return "o-1", nil
}

func (f *fakePlatform) Query(ctx context.Context, document string) (json.RawMessage, error) {
	f.documents = append(f.documents, document)
	return nil, f.queryErr
}

type fakeGate map[string]bool

func (g fakeGate) Enabled(ctx context.Context, name string) (bool, error) {
	return g[name], nil
}

type fakeStore struct {
	records []*models.SyncRecord
	issues  []*models.SyncIssue
}

func (s *fakeStore) RecordSync(ctx context.Context, rec *models.SyncRecord) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *fakeStore) RecordIssue(ctx context.Context, issue *models.SyncIssue) error {
	s.issues = append(s.issues, issue)
	return nil
}

func newExporter(p *fakePlatform, gate fakeGate, store *fakeStore) *Exporter {
	log := logger.NewNop()
	return New(p, gate, store, literal.NewSerializer(log), log)
}

func TestExportOrderPartial(t *testing.T) {
	p, store := &fakePlatform{}, &fakeStore{}
	e := newExporter(p, fakeGate{}, store)

	order := &ecom.Order{ExternalID: "501"}
	results := []ecom.Result{
		{Index: 0, Product: &ecom.Product{ExternalID: "1"}},
		{Index: 1, Key: "b", Err: errors.New("boom"), Code: ecom.CodeMapLineItem},
	}

	require.NoError(t, e.ExportOrder(context.Background(), order, &ecom.Customer{}, results))

	require.Len(t, p.orders, 1)
	assert.Equal(t, "c-1", p.orders[0].CustomerID)
	require.Len(t, store.records, 1)
	assert.Equal(t, models.SyncStatusPartial, store.records[0].Status)
	assert.Equal(t, "o-1", *store.records[0].RemoteID)
	assert.NotNil(t, store.records[0].SyncedAt)
	require.Len(t, store.issues, 1)
	assert.Equal(t, ecom.CodeMapLineItem, store.issues[0].Code)
	assert.JSONEq(t, `{"index":1,"key":"b"}`, *store.issues[0].Context)
}

func TestExportOrderCustomerFailure(t *testing.T) {
	p, store := &fakePlatform{customerErr: errors.New("422")}, &fakeStore{}
	e := newExporter(p, fakeGate{}, store)

	err := e.ExportOrder(context.Background(), &ecom.Order{ExternalID: "9"}, &ecom.Customer{}, nil)

	assert.ErrorContains(t, err, "422")
	assert.Empty(t, p.orders)
	require.Len(t, store.records, 1)
	assert.Equal(t, models.SyncStatusFailed, store.records[0].Status)
	require.NotNil(t, store.records[0].ErrorCode)
	assert.Equal(t, CodeExportFailed, *store.records[0].ErrorCode)
	require.Len(t, store.issues, 1)
	assert.Equal(t, CodeExportFailed, store.issues[0].Code)
}

func TestExportAbandonedCartNeedsFeature(t *testing.T) {
	p, store := &fakePlatform{}, &fakeStore{}
	e := newExporter(p, fakeGate{}, store)
	abandoned := "2024-01-01T00:00:00Z"

	err := e.ExportOrder(context.Background(), &ecom.Order{ExternalCheckoutID: "cart", AbandonedDate: &abandoned}, &ecom.Customer{}, nil)

	require.NoError(t, err)
	assert.Empty(t, p.orders)
	require.Len(t, store.records, 1)
	assert.Equal(t, models.EntityAbandonedCart, store.records[0].EntityType)
	assert.Equal(t, models.SyncStatusSkipped, store.records[0].Status)
}

func TestExportProducts(t *testing.T) {
	p, store := &fakePlatform{}, &fakeStore{}
	e := newExporter(p, fakeGate{activecampaign.FeatureCatalog: true}, store)

	products := []literal.Object{{{Key: "storePrimaryId", Value: "7"}}}
	failures := []cofe.Failure{{ProductID: 8, Err: cofe.ErrMissingProductID}}

	require.NoError(t, e.ExportProducts(context.Background(), products, failures))

	require.Len(t, p.documents, 1)
	assert.Equal(t, `mutation{bulkUpsertProducts(products:{storePrimaryId:"7"}){storePrimaryId}}`, p.documents[0])
	require.Len(t, store.records, 2)
	assert.Equal(t, "8", store.records[0].ExternalID)
	assert.Equal(t, models.SyncStatusFailed, store.records[0].Status)
	require.NotNil(t, store.records[0].ErrorCode)
	assert.Equal(t, cofe.CodeMapProduct, *store.records[0].ErrorCode)
	assert.Equal(t, "7", store.records[1].ExternalID)
	assert.Nil(t, store.records[1].ErrorCode)
	assert.Equal(t, models.SyncStatusSynced, store.records[1].Status)
	assert.Equal(t, `{storePrimaryId:"7"}`, store.records[1].Payload)
	require.Len(t, store.issues, 1)
	assert.Equal(t, cofe.CodeMapProduct, store.issues[0].Code)
}

func TestExportProductsSkippedWithoutFeature(t *testing.T) {
	p, store := &fakePlatform{}, &fakeStore{}
	e := newExporter(p, fakeGate{}, store)

	require.NoError(t, e.ExportProducts(context.Background(), []literal.Object{{{Key: "storePrimaryId", Value: "7"}}}, nil))
	assert.Empty(t, p.documents)
	assert.Empty(t, store.records)
}
