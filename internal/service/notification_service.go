package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ip-manager/internal/config"
	"github.com/spec-kit/ip-manager/internal/events"
)

// NotificationService handles emitting notifications for inventory events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	inflight   sync.WaitGroup
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventIPCreated, n.handleIPCreated)
	n.dispatcher.Subscribe(events.EventIPUpdated, n.handleIPUpdated)
	n.dispatcher.Subscribe(events.EventIPDeleted, n.handleIPDeleted)
}

func (n *NotificationService) handleIPCreated(_ context.Context, event events.Event) error {
	n.logger.Info("IPCreated", zap.String("entry_id", event.EntryID), zap.String("actor", event.Actor.UserID), zap.Any("payload", event.Payload))
	n.sendWebhook(event)
	return nil
}

func (n *NotificationService) handleIPUpdated(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.IPUpdatedPayload)
	if ok && payload.OldStatus == payload.NewStatus {
		n.logger.Debug("IPUpdated", zap.String("entry_id", event.EntryID))
		return nil
	}
	n.logger.Info("IPStatusChanged", zap.String("entry_id", event.EntryID), zap.String("actor", event.Actor.UserID), zap.Any("payload", event.Payload))
	n.sendWebhook(event)
	return nil
}

func (n *NotificationService) handleIPDeleted(_ context.Context, event events.Event) error {
	n.logger.Info("IPDeleted", zap.String("entry_id", event.EntryID), zap.String("actor", event.Actor.UserID), zap.Any("payload", event.Payload))
	n.sendWebhook(event)
	return nil
}

// Wait blocks until every webhook delivery started so far has finished.
func (n *NotificationService) Wait() {
	n.inflight.Wait()
}

// sendWebhook POSTs the event to the configured webhook in the background.
// Delivery failures are logged and never reach the caller.
func (n *NotificationService) sendWebhook(event events.Event) {
	url := strings.TrimSpace(n.cfg.WebhookURL)
	if url == "" {
		return
	}

	n.inflight.Add(1)
	go func() {
		defer n.inflight.Done()
		logger := n.logger.With(
			zap.String("url", url),
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))

		code, body, errs := fiber.Post(url).
			Timeout(n.cfg.WebhookTimeout()).
			JSON(event).
			Bytes()
		if len(errs) > 0 {
			logger.Warn("webhook delivery failed", zap.Error(errors.Join(errs...)))
			return
		}
		if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
			logger.Warn("webhook rejected event", zap.Int("status", code), zap.ByteString("body", body))
			return
		}
		logger.Debug("webhook delivered", zap.Int("status", code))
	}()
}
