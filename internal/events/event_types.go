package events

import (
	"time"

	"github.com/spec-kit/ip-manager/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIPCreated EventType = "ip_created"
	EventIPUpdated EventType = "ip_updated"
	EventIPDeleted EventType = "ip_deleted"
)

// Actor identifies the user that caused an event.
type Actor struct {
	UserID string      `json:"user_id,omitempty"`
	Email  string      `json:"email,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	EntryID   string      `json:"entry_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IPCreatedPayload payload.
type IPCreatedPayload struct {
	IP     string          `json:"ip"`
	Subnet string          `json:"subnet"`
	Status domain.IPStatus `json:"status"`
}

// IPUpdatedPayload payload.
type IPUpdatedPayload struct {
	IP        string          `json:"ip"`
	OldStatus domain.IPStatus `json:"old_status"`
	NewStatus domain.IPStatus `json:"new_status"`
}

// IPDeletedPayload payload.
type IPDeletedPayload struct {
	IP string `json:"ip,omitempty"`
}
