package domain

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestIPPatchApplyOnlyTouchesSuppliedFields(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	entry := IPEntry{
		ID:        "1700000000000",
		IP:        "10.0.0.5",
		Subnet:    "10.0.0.0/24",
		Status:    IPStatusAvailable,
		Hostname:  "db-1",
		Notes:     "rack 4",
		CreatedAt: created,
		UpdatedAt: created,
	}

	IPPatch{Status: strPtr("occupied"), AssignedTo: strPtr("ops")}.Apply(&entry)

	assert.Equal(t, IPStatusOccupied, entry.Status)
	assert.Equal(t, "ops", entry.AssignedTo)
	assert.Equal(t, "10.0.0.5", entry.IP)
	assert.Equal(t, "db-1", entry.Hostname)
	assert.Equal(t, "rack 4", entry.Notes)
	assert.Equal(t, "1700000000000", entry.ID)
	assert.Equal(t, created, entry.CreatedAt)
}

func TestIPPatchApplyCanClearField(t *testing.T) {
	entry := IPEntry{Hostname: "old"}
	IPPatch{Hostname: strPtr("")}.Apply(&entry)
	assert.Empty(t, entry.Hostname)
}

func TestIPPatchDropsUnknownAndImmutableKeys(t *testing.T) {
	var patch IPPatch
	body := `{"id":"evil","createdAt":"2000-01-01T00:00:00Z","isAdmin":true,"hostname":"web"}`
	require.NoError(t, json.Unmarshal([]byte(body), &patch))

	assert.Equal(t, IPPatch{Hostname: strPtr("web")}, patch)
}

func TestIPPatchKeepsTextOfNonStringValues(t *testing.T) {
	var patch IPPatch
	body := `{"ip":123,"subnet":null,"status":true,"notes":{"rack": 4},"hostname":"web"}`
	require.NoError(t, json.Unmarshal([]byte(body), &patch))

	assert.Equal(t, IPPatch{
		IP:       strPtr("123"),
		Status:   strPtr("true"),
		Notes:    strPtr(`{"rack":4}`),
		Hostname: strPtr("web"),
	}, patch)
}

func TestIPPatchRejectsNonObjectBody(t *testing.T) {
	var patch IPPatch
	assert.Error(t, json.Unmarshal([]byte(`["10.0.0.1"]`), &patch))
	assert.Error(t, json.Unmarshal([]byte(`{"ip":`), &patch))
}

func TestUserSummaryOmitsPassword(t *testing.T) {
	user := User{ID: "1", Name: "Administrator", Email: "admin@company.com", PasswordHash: "$2a$10$x", Role: RoleAdmin}

	raw, err := json.Marshal(user.Summary())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
	assert.JSONEq(t, `{"id":"1","name":"Administrator","email":"admin@company.com","role":"admin"}`, string(raw))
}

func TestPrincipalContextRoundTrip(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	ctx := ContextWithPrincipal(context.Background(), Principal{UserID: "1", Role: RoleAdmin})
	p, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.True(t, p.IsAdmin())
}
