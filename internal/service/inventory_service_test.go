package service

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/ip-manager/internal/domain"
	"github.com/spec-kit/ip-manager/internal/events"
)

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) handler(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func newInventory(t *testing.T) (*InventoryService, *recordedEvents) {
	t.Helper()
	dispatcher := events.NewInMemoryDispatcher(zaptest.NewLogger(t))
	rec := &recordedEvents{}
	for _, et := range []events.EventType{events.EventIPCreated, events.EventIPUpdated, events.EventIPDeleted} {
		dispatcher.Subscribe(et, rec.handler)
	}
	return NewInventoryService(newIPRepo(t), dispatcher, fixedClock, zaptest.NewLogger(t)), rec
}

func TestInventoryListEmpty(t *testing.T) {
	svc, _ := newInventory(t)
	entries, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestInventoryCreateAndList(t *testing.T) {
	svc, rec := newInventory(t)
	ctx := domain.ContextWithPrincipal(context.Background(), adminPrincipal)

	first, err := svc.Create(ctx, domain.IPPatch{IP: strPtr("10.0.0.1"), Subnet: strPtr("10.0.0.0/24"), Status: strPtr("available")})
	require.NoError(t, err)
	second, err := svc.Create(ctx, domain.IPPatch{IP: strPtr("not-an-ip"), Status: strPtr("weird")})
	require.NoError(t, err)

	assert.Equal(t, "1704067200000", first.ID)
	assert.Equal(t, "1704067200001", second.ID)
	assert.Equal(t, fixedNow, first.CreatedAt)
	assert.Equal(t, first.CreatedAt, first.UpdatedAt)
	assert.Equal(t, domain.IPStatus("weird"), second.Status)

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, *first, entries[0])
	assert.Equal(t, *second, entries[1])

	require.Len(t, rec.events, 2)
	assert.Equal(t, events.EventIPCreated, rec.events[0].Type)
	assert.Equal(t, first.ID, rec.events[0].EntryID)
	assert.Equal(t, "1", rec.events[0].Actor.UserID)
	assert.Equal(t, events.IPCreatedPayload{IP: "10.0.0.1", Subnet: "10.0.0.0/24", Status: domain.IPStatusAvailable}, rec.events[0].Payload)
}

func TestInventoryUpdateMergesFields(t *testing.T) {
	svc, rec := newInventory(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.IPPatch{IP: strPtr("10.0.0.5"), Status: strPtr("available"), Hostname: strPtr("db-1")})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, domain.IPPatch{Status: strPtr("occupied"), AssignedTo: strPtr("ops")})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, "10.0.0.5", updated.IP)
	assert.Equal(t, "db-1", updated.Hostname)
	assert.Equal(t, "ops", updated.AssignedTo)
	assert.Equal(t, domain.IPStatusOccupied, updated.Status)

	require.Len(t, rec.events, 2)
	assert.Equal(t, events.IPUpdatedPayload{IP: "10.0.0.5", OldStatus: domain.IPStatusAvailable, NewStatus: domain.IPStatusOccupied}, rec.events[1].Payload)
}

func TestInventoryUpdateAndDeleteMissing(t *testing.T) {
	svc, rec := newInventory(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, "nope", domain.IPPatch{Notes: strPtr("x")})
	requireCode(t, err, "NOT_FOUND", http.StatusNotFound)
	assert.Equal(t, "IP not found", err.Error())

	err = svc.Delete(ctx, "nope")
	requireCode(t, err, "NOT_FOUND", http.StatusNotFound)
	assert.Empty(t, rec.events)
}

func TestInventoryDelete(t *testing.T) {
	svc, rec := newInventory(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, domain.IPPatch{IP: strPtr("10.0.0.1")})
	require.NoError(t, err)
	b, err := svc.Create(ctx, domain.IPPatch{IP: strPtr("10.0.0.2")})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, a.ID))
	entries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, b.ID, entries[0].ID)
	last := rec.events[len(rec.events)-1]
	assert.Equal(t, events.EventIPDeleted, last.Type)
	assert.Equal(t, a.ID, last.EntryID)
	assert.Equal(t, events.IPDeletedPayload{IP: "10.0.0.1"}, last.Payload)
}

func TestInventoryStats(t *testing.T) {
	svc, _ := newInventory(t)
	ctx := context.Background()
	for _, status := range []string{"available", "available", "occupied", "reserved", "dhcp", "retired"} {
		_, err := svc.Create(ctx, domain.IPPatch{Status: strPtr(status)})
		require.NoError(t, err)
	}

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, InventoryStats{Total: 6, Available: 2, Occupied: 1, Reserved: 1, DHCP: 1, Other: 1}, stats)
}

func TestInventoryConcurrentCreates(t *testing.T) {
	svc, _ := newInventory(t)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, domain.IPPatch{Status: strPtr("available")})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, n)
	seen := make(map[string]struct{}, n)
	for _, e := range entries {
		seen[e.ID] = struct{}{}
	}
	assert.Len(t, seen, n)
}
