package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ecomsync/internal/activecampaign"
	"ecomsync/internal/cofe"
	"ecomsync/internal/ecom"
	"ecomsync/internal/literal"
	"ecomsync/internal/logger"
	"ecomsync/internal/models"
)

// CodeExportFailed tags records the platform refused.
const CodeExportFailed = "EEXP_112"

// Platform is the part of the platform API the exporter uses.
type Platform interface {
	UpsertCustomer(ctx context.Context, customer *ecom.Customer) (string, error)
	UpsertOrder(ctx context.Context, order *ecom.Order) (string, error)
	Query(ctx context.Context, document string) (json.RawMessage, error)
}

// FeatureGate reports whether a plan feature is enabled.
type FeatureGate interface {
	Enabled(ctx context.Context, name string) (bool, error)
}

// SyncStore keeps sync outcomes.
type SyncStore interface {
	RecordSync(ctx context.Context, rec *models.SyncRecord) error
	RecordIssue(ctx context.Context, issue *models.SyncIssue) error
}

// Exporter pushes mapped records to the platform and records the outcome.
type Exporter struct {
	platform   Platform
	gate       FeatureGate
	store      SyncStore
	serializer *literal.Serializer
	logger     *logger.Logger
	now        func() time.Time
}

func New(platform Platform, gate FeatureGate, store SyncStore, serializer *literal.Serializer, logger *logger.Logger) *Exporter {
	return &Exporter{
		platform:   platform,
		gate:       gate,
		store:      store,
		serializer: serializer,
		logger:     logger,
		now:        time.Now,
	}
}

// ExportOrder upserts the customer, then the order. Line items that could
// not be mapped are recorded as issues and mark the sync PARTIAL.
func (e *Exporter) ExportOrder(ctx context.Context, order *ecom.Order, customer *ecom.Customer, results []ecom.Result) error {
	entity := models.EntityOrder
	if order.IsAbandonedCart() {
		entity = models.EntityAbandonedCart
		enabled, err := e.gate.Enabled(ctx, activecampaign.FeatureAbandonedCarts)
		if err != nil {
			return fmt.Errorf("failed to check plan features: %w", err)
		}
		if !enabled {
			e.logger.Info("Abandoned carts are not part of the plan, skipping cart %s", order.Identifier())
			return e.record(ctx, entity, order.Identifier(), models.SyncStatusSkipped, order, nil, nil, "")
		}
	}

	customerID, err := e.platform.UpsertCustomer(ctx, customer)
	if err != nil {
		return e.fail(ctx, entity, order.Identifier(), order, fmt.Errorf("failed to upsert customer: %w", err))
	}
	order.CustomerID = customerID

	remoteID, err := e.platform.UpsertOrder(ctx, order)
	if err != nil {
		return e.fail(ctx, entity, order.Identifier(), order, fmt.Errorf("failed to upsert order: %w", err))
	}

	status := models.SyncStatusSynced
	failures := ecom.Failures(results)
	if len(failures) > 0 {
		status = models.SyncStatusPartial
	}
	if err := e.record(ctx, entity, order.Identifier(), status, order, &remoteID, nil, ""); err != nil {
		return err
	}
	for _, f := range failures {
		e.issue(ctx, entity, order.Identifier(), f.Code, models.IssueSeverityMedium,
			fmt.Sprintf("line item %d could not be mapped: %v", f.Index, f.Err),
			map[string]interface{}{"index": f.Index, "key": f.Key})
	}
	return nil
}

// ExportCustomer upserts a customer.
func (e *Exporter) ExportCustomer(ctx context.Context, customer *ecom.Customer) error {
	remoteID, err := e.platform.UpsertCustomer(ctx, customer)
	if err != nil {
		return e.fail(ctx, models.EntityCustomer, customer.ExternalID, customer, fmt.Errorf("failed to upsert customer: %w", err))
	}
	return e.record(ctx, models.EntityCustomer, customer.ExternalID, models.SyncStatusSynced, customer, &remoteID, nil, "")
}

// ExportProducts sends mapped catalog products in one mutation when the
// plan includes the catalog. Mapping failures become issues.
func (e *Exporter) ExportProducts(ctx context.Context, products []literal.Object, failures []cofe.Failure) error {
	enabled, err := e.gate.Enabled(ctx, activecampaign.FeatureCatalog)
	if err != nil {
		return fmt.Errorf("failed to check plan features: %w", err)
	}
	if !enabled {
		e.logger.Info("Catalog sync is not part of the plan, skipping %d products", len(products))
		return nil
	}

	for _, f := range failures {
		id := fmt.Sprintf("%d", f.ProductID)
		e.issue(ctx, models.EntityProduct, id, cofe.CodeMapProduct, models.IssueSeverityHigh,
			fmt.Sprintf("product could not be mapped: %v", f.Err), nil)
		if err := e.record(ctx, models.EntityProduct, id, models.SyncStatusFailed, nil, nil, f.Err, cofe.CodeMapProduct); err != nil {
			return err
		}
	}
	if len(products) == 0 {
		return nil
	}

	document := cofe.UpsertDocument(e.serializer, products)
	_, queryErr := e.platform.Query(ctx, document)

	status := models.SyncStatusSynced
	if queryErr != nil {
		status = models.SyncStatusFailed
		e.logger.Errorw("Catalog upsert failed", "code", CodeExportFailed, "products", len(products), "error", queryErr)
	}
	for _, p := range products {
		id := primaryID(p)
		if err := e.record(ctx, models.EntityProduct, id, status, e.serializer.Object(p), nil, queryErr, CodeExportFailed); err != nil {
			return err
		}
	}
	if queryErr != nil {
		return fmt.Errorf("failed to upsert products: %w", queryErr)
	}
	return nil
}

func (e *Exporter) fail(ctx context.Context, entity models.EntityType, id string, payload interface{}, cause error) error {
	e.logger.Errorw("Export failed", "code", CodeExportFailed, "entity", entity, "id", id, "error", cause)
	if err := e.record(ctx, entity, id, models.SyncStatusFailed, payload, nil, cause, CodeExportFailed); err != nil {
		return errors.Join(cause, err)
	}
	e.issue(ctx, entity, id, CodeExportFailed, models.IssueSeverityHigh, cause.Error(), nil)
	return cause
}

func (e *Exporter) record(ctx context.Context, entity models.EntityType, id string, status models.SyncStatus, payload interface{}, remoteID *string, cause error, code string) error {
	rec := &models.SyncRecord{
		EntityType: entity,
		ExternalID: id,
		RemoteID:   remoteID,
		Status:     status,
		Payload:    encodePayload(payload),
	}
	if status == models.SyncStatusSynced || status == models.SyncStatusPartial {
		now := e.now().UTC()
		rec.SyncedAt = &now
	}
	if cause != nil {
		msg := cause.Error()
		rec.Error = &msg
		rec.ErrorCode = &code
	}
	if err := e.store.RecordSync(ctx, rec); err != nil {
		return fmt.Errorf("failed to record sync: %w", err)
	}
	return nil
}

// issue records a problem. Storage errors are logged only, the sync outcome
// itself is already stored.
func (e *Exporter) issue(ctx context.Context, entity models.EntityType, id, code string, severity models.IssueSeverity, explanation string, details map[string]interface{}) {
	issue := &models.SyncIssue{
		EntityType:  entity,
		ExternalID:  id,
		Code:        code,
		Severity:    severity,
		Explanation: explanation,
	}
	if details != nil {
		encoded := encodePayload(details)
		issue.Context = &encoded
	}
	if err := e.store.RecordIssue(ctx, issue); err != nil {
		e.logger.Errorw("Failed to record issue", "code", code, "entity", entity, "id", id, "error", err)
	}
}

func encodePayload(payload interface{}) string {
	switch p := payload.(type) {
	case nil:
		return ""
	case string:
		return p
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(raw)
}

func primaryID(p literal.Object) string {
	if v, ok := p.Get("storePrimaryId"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
