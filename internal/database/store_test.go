package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomsync/internal/models"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := New(fmt.Sprintf("sqlite://file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func TestRecordSyncUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	first := &models.SyncRecord{EntityType: models.EntityOrder, ExternalID: "501", Status: models.SyncStatusFailed, ErrorCode: strPtr("EPF_168")}
	require.NoError(t, db.RecordSync(ctx, first))
	assert.Equal(t, 1, first.Attempts)

	second := &models.SyncRecord{EntityType: models.EntityOrder, ExternalID: "501", Status: models.SyncStatusSynced, RemoteID: strPtr("77")}
	require.NoError(t, db.RecordSync(ctx, second))
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Attempts)

	var stored []models.SyncRecord
	require.NoError(t, db.DB.Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.Equal(t, models.SyncStatusSynced, stored[0].Status)
	assert.Nil(t, stored[0].ErrorCode)
	require.NotNil(t, stored[0].RemoteID)
	assert.Equal(t, "77", *stored[0].RemoteID)
}

func TestIssues(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	for _, code := range []string{"EPF_168", "ECPS_127", "EPF_168"} {
		require.NoError(t, db.RecordIssue(ctx, &models.SyncIssue{
			EntityType:  models.EntityOrder,
			ExternalID:  "501",
			Code:        code,
			Severity:    models.IssueSeverityMedium,
			Explanation: "line item could not be mapped",
		}))
	}

	issues, total, err := db.ListIssues(ctx, IssueFilter{Code: "EPF_168"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, issues, 2)

	resolved, err := db.ResolveIssue(ctx, issues[0].ID)
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)
	require.NotNil(t, resolved.ResolvedAt)

	open := false
	_, total, err = db.ListIssues(ctx, IssueFilter{Resolved: &open})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, err = db.ResolveIssue(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdateConnectionStatus(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	conn := &models.Connection{Name: "Shop", StoreURL: "https://shop.test", ConnectionID: "3"}
	require.NoError(t, db.DB.Create(conn).Error)

	require.NoError(t, db.UpdateConnectionStatus(ctx, conn.ID, models.ConnectionStatusError, errors.New("401 from store")))
	var got models.Connection
	require.NoError(t, db.DB.First(&got, "id = ?", conn.ID).Error)
	assert.Equal(t, models.ConnectionStatusError, got.Status)
	require.NotNil(t, got.LastError)
	assert.Equal(t, "401 from store", *got.LastError)

	require.NoError(t, db.UpdateConnectionStatus(ctx, conn.ID, models.ConnectionStatusActive, nil))
	var after models.Connection
	require.NoError(t, db.DB.First(&after, "id = ?", conn.ID).Error)
	assert.Nil(t, after.LastError)
	assert.NotNil(t, after.LastSync)

	assert.ErrorIs(t, db.UpdateConnectionStatus(ctx, "nope", models.ConnectionStatusActive, nil), ErrNotFound)
}
