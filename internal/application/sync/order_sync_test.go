package sync

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"meridian-core-woo-layer/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderFixture() (*OrderSync, *fakeStore, *fakeStates, *fakeBus, *fakeIndex, *fakeClient) {
	store := newFakeStore()
	states := newFakeStates()
	bus := &fakeBus{}
	index := newFakeIndex()
	client := newFakeClient()
	strategy := NewOrderSync(store, states, bus, index, zerolog.Nop())
	return strategy, store, states, bus, index, client
}

func TestOrderSyncWalksAllPagesAndReportsProgress(t *testing.T) {
	strategy, store, _, _, _, client := newOrderFixture()
	now := time.Now().UTC().Truncate(time.Second)

	var pages [][]json.RawMessage
	id := int64(1)
	for _, size := range []int{25, 25, 10} {
		var page []json.RawMessage
		for i := 0; i < size; i++ {
			page = append(page, orderJSON(id, "processing", now.Add(-time.Hour), 0, "jo@example.com", 11))
			id++
		}
		pages = append(pages, page)
	}
	client.pages["orders"] = pages

	job := &fakeJob{}
	result, err := strategy.Sync(context.Background(), client, testTenant, false, job)
	require.NoError(t, err)

	assert.Equal(t, 60, result.ItemsProcessed)
	assert.Equal(t, 0, result.ItemsSkipped)
	assert.Len(t, store.orders, 60)
	assert.Equal(t, 3, client.listCalls["orders"])
	assert.Equal(t, []int{33, 67, 100}, job.progress)
}

func TestOrderSyncSkipsInvalidRecordsWithoutAbortingThePage(t *testing.T) {
	strategy, store, _, _, _, client := newOrderFixture()
	now := time.Now().UTC()

	client.pages["orders"] = [][]json.RawMessage{{
		orderJSON(1, "processing", now.Add(-time.Hour), 0, "a@example.com", 11),
		json.RawMessage(`{"status":"processing"}`), // no id, no total, no line items
		json.RawMessage(`{not json`),
		orderJSON(2, "processing", now.Add(-time.Hour), 0, "b@example.com", 11),
	}}

	result, err := strategy.Sync(context.Background(), client, testTenant, false, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ItemsProcessed)
	assert.Equal(t, 2, result.ItemsSkipped)
	assert.Len(t, store.orders, 2)
}

func TestOrderSyncIncrementalCursorAppliesSafetyBuffer(t *testing.T) {
	strategy, _, states, _, _, client := newOrderFixture()
	watermark := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, states.SetWatermark(context.Background(), testTenant, domain.EntityOrder, watermark))

	_, err := strategy.Sync(context.Background(), client, testTenant, true, nil)
	require.NoError(t, err)

	after := client.lastAfter["orders"]
	require.NotNil(t, after)
	assert.Equal(t, watermark.Add(-watermarkSafetyBuffer), *after)
}

func TestOrderSyncFullRunSendsNoCursor(t *testing.T) {
	strategy, _, states, _, _, client := newOrderFixture()
	require.NoError(t, states.SetWatermark(context.Background(), testTenant, domain.EntityOrder, time.Now()))
	client.pages["orders"] = [][]json.RawMessage{{
		orderJSON(1, "processing", time.Now().Add(-time.Hour), 0, "a@example.com", 11),
	}}

	_, err := strategy.Sync(context.Background(), client, testTenant, false, nil)
	require.NoError(t, err)

	assert.Nil(t, client.lastAfter["orders"])
}

func TestOrderSyncReconciliationRemovesOrphansOnFullRunsOnly(t *testing.T) {
	now := time.Now().UTC()
	orphan := &domain.Order{TenantID: testTenant, RemoteID: 999, Status: "processing", CreatedAt: now.Add(-48 * time.Hour)}

	t.Run("full run deletes unseen local records", func(t *testing.T) {
		strategy, store, _, _, index, client := newOrderFixture()
		store.orders[999] = orphan
		client.pages["orders"] = [][]json.RawMessage{{
			orderJSON(1, "processing", now.Add(-time.Hour), 0, "a@example.com", 11),
		}}

		result, err := strategy.Sync(context.Background(), client, testTenant, false, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, result.ItemsDeleted)
		assert.NotContains(t, store.orders, int64(999))
		assert.Contains(t, index.deleted, idxKey(domain.EntityOrder, testTenant, 999))
	})

	t.Run("incremental run never deletes", func(t *testing.T) {
		strategy, store, _, _, _, client := newOrderFixture()
		store.orders[999] = orphan
		client.pages["orders"] = [][]json.RawMessage{{
			orderJSON(1, "processing", now.Add(-time.Hour), 0, "a@example.com", 11),
		}}

		result, err := strategy.Sync(context.Background(), client, testTenant, true, nil)
		require.NoError(t, err)

		assert.Equal(t, 0, result.ItemsDeleted)
		assert.Contains(t, store.orders, int64(999))
	})

	t.Run("rejected record still listed remotely is not an orphan", func(t *testing.T) {
		strategy, store, _, _, _, client := newOrderFixture()
		store.orders[999] = &domain.Order{TenantID: testTenant, RemoteID: 999, Status: "processing", CreatedAt: now.Add(-48 * time.Hour)}
		client.pages["orders"] = [][]json.RawMessage{{
			orderJSON(1, "processing", now.Add(-time.Hour), 0, "a@example.com", 11),
			// Present in the listing but fails validation (no total, no
			// line items): it still exists remotely.
			json.RawMessage(`{"id":999,"status":"processing"}`),
		}}

		result, err := strategy.Sync(context.Background(), client, testTenant, false, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, result.ItemsSkipped)
		assert.Equal(t, 0, result.ItemsDeleted)
		assert.Contains(t, store.orders, int64(999), "drifted records are skipped, not deleted")
	})

	t.Run("empty listing on a full run deletes nothing", func(t *testing.T) {
		strategy, store, _, _, _, client := newOrderFixture()
		store.orders[999] = orphan

		result, err := strategy.Sync(context.Background(), client, testTenant, false, nil)
		require.NoError(t, err)

		assert.Equal(t, 0, result.ItemsDeleted)
		assert.Contains(t, store.orders, int64(999))
	})
}

func TestOrderSyncEmitsLifecycleEventsOnce(t *testing.T) {
	strategy, _, _, bus, _, client := newOrderFixture()
	now := time.Now().UTC()
	client.pages["orders"] = [][]json.RawMessage{{
		orderJSON(1, "processing", now.Add(-time.Hour), 0, "a@example.com", 11),
	}}

	_, err := strategy.Sync(context.Background(), client, testTenant, false, nil)
	require.NoError(t, err)
	_, err = strategy.Sync(context.Background(), client, testTenant, false, nil)
	require.NoError(t, err)

	assert.Len(t, bus.named(domain.EventOrderSynced), 2, "synced fires on every pass")
	assert.Len(t, bus.named(domain.EventOrderCreated), 1, "created fires only on first sight")
	assert.Empty(t, bus.named(domain.EventOrderCompleted))
}

func TestOrderSyncEmitsCompletedOnStatusTransition(t *testing.T) {
	strategy, _, _, bus, _, client := newOrderFixture()
	now := time.Now().UTC()

	client.pages["orders"] = [][]json.RawMessage{{
		orderJSON(1, "processing", now.Add(-time.Hour), 0, "a@example.com", 11),
	}}
	_, err := strategy.Sync(context.Background(), client, testTenant, false, nil)
	require.NoError(t, err)

	client.pages["orders"] = [][]json.RawMessage{{
		orderJSON(1, domain.OrderStatusCompleted, now.Add(-time.Hour), 0, "a@example.com", 11),
	}}
	_, err = strategy.Sync(context.Background(), client, testTenant, false, nil)
	require.NoError(t, err)

	completed := bus.named(domain.EventOrderCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, int64(1), completed[0].RemoteID)

	// A third pass with the order still completed must not re-fire.
	_, err = strategy.Sync(context.Background(), client, testTenant, false, nil)
	require.NoError(t, err)
	assert.Len(t, bus.named(domain.EventOrderCompleted), 1)
}

func TestOrderSyncSuppressesLifecycleEventsForOldOrders(t *testing.T) {
	strategy, _, _, bus, _, client := newOrderFixture()
	now := time.Now().UTC()

	// Created well outside the recency window: a historical backfill must
	// not trigger downstream automations.
	client.pages["orders"] = [][]json.RawMessage{{
		orderJSON(1, domain.OrderStatusCompleted, now.Add(-30*24*time.Hour), 0, "a@example.com", 11),
	}}

	_, err := strategy.Sync(context.Background(), client, testTenant, false, nil)
	require.NoError(t, err)

	assert.Len(t, bus.named(domain.EventOrderSynced), 1)
	assert.Empty(t, bus.named(domain.EventOrderCreated))
	assert.Empty(t, bus.named(domain.EventOrderCompleted))
}

func TestOrderSyncRefreshesCustomerOrderCounts(t *testing.T) {
	strategy, store, _, _, _, client := newOrderFixture()
	now := time.Now().UTC()
	store.customers[7] = &domain.Customer{TenantID: testTenant, RemoteID: 7, Email: "a@example.com"}

	client.pages["orders"] = [][]json.RawMessage{{
		orderJSON(1, "processing", now.Add(-time.Hour), 7, "a@example.com", 11),
		orderJSON(2, "processing", now.Add(-time.Hour), 7, "a@example.com", 11),
		orderJSON(3, "processing", now.Add(-time.Hour), 0, "guest@example.com", 11),
	}}

	_, err := strategy.Sync(context.Background(), client, testTenant, false, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, store.countsCalls)
	assert.Equal(t, 2, store.customers[7].OrdersCount)
}

func TestOrderSyncCountsExcludeReconciledOrphans(t *testing.T) {
	strategy, store, _, _, _, client := newOrderFixture()
	now := time.Now().UTC()
	store.customers[7] = &domain.Customer{TenantID: testTenant, RemoteID: 7, Email: "a@example.com", OrdersCount: 2}
	store.orders[999] = &domain.Order{TenantID: testTenant, RemoteID: 999, Status: "processing", CustomerID: 7, CreatedAt: now.Add(-48 * time.Hour)}

	client.pages["orders"] = [][]json.RawMessage{{
		orderJSON(1, "processing", now.Add(-time.Hour), 7, "a@example.com", 11),
	}}

	result, err := strategy.Sync(context.Background(), client, testTenant, false, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ItemsDeleted)
	assert.Equal(t, 1, store.customers[7].OrdersCount, "deleted orphans do not linger in the stored counts")
}

func TestOrderSyncStopsWhenJobIsCancelled(t *testing.T) {
	strategy, store, _, _, _, client := newOrderFixture()
	now := time.Now().UTC()
	client.pages["orders"] = [][]json.RawMessage{
		{orderJSON(1, "processing", now.Add(-time.Hour), 0, "a@example.com", 11)},
		{orderJSON(2, "processing", now.Add(-time.Hour), 0, "b@example.com", 11)},
		{orderJSON(3, "processing", now.Add(-time.Hour), 0, "c@example.com", 11)},
	}

	job := &fakeJob{cancelAfter: 1}
	_, err := strategy.Sync(context.Background(), client, testTenant, false, job)

	require.ErrorIs(t, err, domain.ErrSyncCancelled)
	assert.Equal(t, 1, client.listCalls["orders"], "no further pages after cancellation")
	assert.Len(t, store.orders, 1, "work done before cancellation is kept")
}

func TestOrderSyncPropagatesListErrors(t *testing.T) {
	strategy, _, _, _, _, client := newOrderFixture()
	client.listErr = errors.New("boom")

	_, err := strategy.Sync(context.Background(), client, testTenant, false, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orders")
}
