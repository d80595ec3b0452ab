package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/ip-manager/internal/config"
	"github.com/spec-kit/ip-manager/internal/domain"
	"github.com/spec-kit/ip-manager/internal/events"
)

func TestNotificationsFollowInventoryEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher(zap.New(core))
	notifier := NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{})
	notifier.RegisterHandlers()

	svc := NewInventoryService(newIPRepo(t), dispatcher, fixedClock, nil)
	ctx := context.Background()

	entry, err := svc.Create(ctx, domain.IPPatch{IP: strPtr("10.1.1.1"), Status: strPtr("available")})
	require.NoError(t, err)
	_, err = svc.Update(ctx, entry.ID, domain.IPPatch{Notes: strPtr("same status")})
	require.NoError(t, err)
	_, err = svc.Update(ctx, entry.ID, domain.IPPatch{Status: strPtr("reserved")})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, entry.ID))

	assert.Equal(t, 1, logs.FilterMessage("IPCreated").Len())
	assert.Equal(t, 1, logs.FilterMessage("IPUpdated").Len())
	assert.Equal(t, 1, logs.FilterMessage("IPStatusChanged").Len())
	assert.Equal(t, 1, logs.FilterMessage("IPDeleted").Len())
}

type webhookSink struct {
	mu       sync.Mutex
	received []map[string]any
}

func (s *webhookSink) handler(t *testing.T, status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var body map[string]any
		assert.NoError(t, json.Unmarshal(raw, &body))
		s.mu.Lock()
		s.received = append(s.received, body)
		s.mu.Unlock()
		w.WriteHeader(status)
	}
}

func TestWebhookReceivesNotifiedEvents(t *testing.T) {
	sink := &webhookSink{}
	hook := httptest.NewServer(sink.handler(t, http.StatusNoContent))
	defer hook.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher(zap.New(core))
	notifier := NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{WebhookURL: hook.URL, WebhookTimeoutSeconds: 2})
	notifier.RegisterHandlers()

	svc := NewInventoryService(newIPRepo(t), dispatcher, fixedClock, nil)
	ctx := context.Background()

	entry, err := svc.Create(ctx, domain.IPPatch{IP: strPtr("10.1.1.1"), Status: strPtr("available")})
	require.NoError(t, err)
	_, err = svc.Update(ctx, entry.ID, domain.IPPatch{Notes: strPtr("same status")})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, entry.ID))
	notifier.Wait()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.received, 2)
	types := []any{sink.received[0]["type"], sink.received[1]["type"]}
	assert.ElementsMatch(t, []any{"ip_created", "ip_deleted"}, types)
	for _, body := range sink.received {
		assert.Equal(t, entry.ID, body["entry_id"])
		assert.Equal(t, map[string]any{"ip": "10.1.1.1"}, pick(body["payload"], "ip"))
	}
	assert.Equal(t, 2, logs.FilterMessage("webhook delivered").Len())
	assert.Zero(t, logs.FilterMessage("webhook delivery failed").Len())
}

func TestWebhookFailuresAreLogged(t *testing.T) {
	sink := &webhookSink{}
	hook := httptest.NewServer(sink.handler(t, http.StatusInternalServerError))
	defer hook.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher(zap.New(core))
	notifier := NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{WebhookURL: hook.URL})
	notifier.RegisterHandlers()

	svc := NewInventoryService(newIPRepo(t), dispatcher, fixedClock, nil)
	_, err := svc.Create(context.Background(), domain.IPPatch{IP: strPtr("10.1.1.2")})
	require.NoError(t, err)
	notifier.Wait()
	assert.Equal(t, 1, logs.FilterMessage("webhook rejected event").Len())

	hook.Close()
	_, err = svc.Create(context.Background(), domain.IPPatch{IP: strPtr("10.1.1.3")})
	require.NoError(t, err)
	notifier.Wait()
	assert.Equal(t, 1, logs.FilterMessage("webhook delivery failed").Len())
}

func pick(v any, key string) map[string]any {
	m, _ := v.(map[string]any)
	return map[string]any{key: m[key]}
}

func TestNotificationWithoutDispatcher(t *testing.T) {
	notifier := NewNotificationService(nil, nil, config.NotificationConfig{})
	assert.NotPanics(t, notifier.RegisterHandlers)
}
