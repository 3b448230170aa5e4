package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of event
type EventType string

const (
	EventTypeLeadMatched         EventType = "lead.matched"
	EventTypePartnershipNotified EventType = "partnership.notified"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType     EventType `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// LeadMatchedEvent is emitted when a self-match creates a lead notification
type LeadMatchedEvent struct {
	BaseEvent
	NotificationID string `json:"notification_id"`
	LeadID         string `json:"lead_id"`
	PropertyID     string `json:"property_id"`
	Title          string `json:"title"`
	Message        string `json:"message"`
}

// PartnershipNotifiedEvent is emitted when a cross-user match creates a
// partnership notification
type PartnershipNotifiedEvent struct {
	BaseEvent
	NotificationID   string  `json:"notification_id"`
	FromUserID       string  `json:"from_user_id"`
	ToUserID         string  `json:"to_user_id"`
	LeadID           string  `json:"lead_id"`
	PropertyID       string  `json:"property_id"`
	PropertyTitle    string  `json:"property_title"`
	TargetPriceCents *int64  `json:"target_price_cents,omitempty"`
	MatchType        string  `json:"match_type"`
	FromUserPhone    *string `json:"from_user_phone,omitempty"`
}

// NewBaseEvent creates a base event with common fields
func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		EventType:     eventType,
		SchemaVersion: SchemaVersion,
		Timestamp:     time.Now().UTC(),
		CorrelationID: uuid.New().String(),
	}
}
