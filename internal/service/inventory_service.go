package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ip-manager/internal/domain"
	"github.com/spec-kit/ip-manager/internal/events"
	"github.com/spec-kit/ip-manager/internal/repository"
	apperrors "github.com/spec-kit/ip-manager/pkg/util"
)

// InventoryStats summarises the inventory by allocation status.
type InventoryStats struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Occupied  int `json:"occupied"`
	Reserved  int `json:"reserved"`
	DHCP      int `json:"dhcp"`
	Other     int `json:"other"`
}

// InventoryService manages the IP inventory.
type InventoryService struct {
	ips        repository.IPRepository
	dispatcher events.Dispatcher
	clock      repository.Clock
	logger     *zap.Logger
}

// NewInventoryService wires the service. dispatcher may be nil.
func NewInventoryService(ips repository.IPRepository, dispatcher events.Dispatcher, clock repository.Clock, logger *zap.Logger) *InventoryService {
	if clock == nil {
		clock = repository.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{ips: ips, dispatcher: dispatcher, clock: clock, logger: logger.Named("inventory")}
}

// List returns every entry in stored order.
func (s *InventoryService) List(ctx context.Context) ([]domain.IPEntry, error) {
	entries, err := s.ips.List(ctx)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.IPEntry{}
	}
	return entries, nil
}

// Create stores a new entry built from the supplied fields.
func (s *InventoryService) Create(ctx context.Context, patch domain.IPPatch) (*domain.IPEntry, error) {
	entry := &domain.IPEntry{}
	patch.Apply(entry)
	if err := s.ips.Append(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("ip entry created", zap.String("id", entry.ID), zap.String("ip", entry.IP))
	s.publish(ctx, events.EventIPCreated, entry.ID, events.IPCreatedPayload{
		IP:     entry.IP,
		Subnet: entry.Subnet,
		Status: entry.Status,
	})
	return entry, nil
}

// Update merges the supplied fields into an existing entry.
func (s *InventoryService) Update(ctx context.Context, id string, patch domain.IPPatch) (*domain.IPEntry, error) {
	var oldStatus domain.IPStatus
	updated, err := s.ips.ReplaceByID(ctx, id, func(entry *domain.IPEntry) error {
		oldStatus = entry.Status
		patch.Apply(entry)
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("IP")
		}
		return nil, err
	}

	s.logger.Info("ip entry updated", zap.String("id", updated.ID))
	s.publish(ctx, events.EventIPUpdated, updated.ID, events.IPUpdatedPayload{
		IP:        updated.IP,
		OldStatus: oldStatus,
		NewStatus: updated.Status,
	})
	return updated, nil
}

// Delete removes an entry.
func (s *InventoryService) Delete(ctx context.Context, id string) error {
	removed, err := s.ips.RemoveByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("IP")
		}
		return err
	}

	s.logger.Info("ip entry deleted", zap.String("id", id), zap.String("ip", removed.IP))
	s.publish(ctx, events.EventIPDeleted, id, events.IPDeletedPayload{IP: removed.IP})
	return nil
}

// Stats counts entries per allocation status.
func (s *InventoryService) Stats(ctx context.Context) (InventoryStats, error) {
	entries, err := s.ips.List(ctx)
	if err != nil {
		return InventoryStats{}, err
	}

	stats := InventoryStats{Total: len(entries)}
	for _, entry := range entries {
		switch entry.Status {
		case domain.IPStatusAvailable:
			stats.Available++
		case domain.IPStatusOccupied:
			stats.Occupied++
		case domain.IPStatusReserved:
			stats.Reserved++
		case domain.IPStatusDHCP:
			stats.DHCP++
		default:
			stats.Other++
		}
	}
	return stats, nil
}

func (s *InventoryService) publish(ctx context.Context, eventType events.EventType, entryID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	var actor events.Actor
	if principal, ok := domain.PrincipalFromContext(ctx); ok {
		actor = events.Actor{UserID: principal.UserID, Email: principal.Email, Role: principal.Role}
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		EntryID:   entryID,
		Actor:     actor,
		Timestamp: s.clock(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}
