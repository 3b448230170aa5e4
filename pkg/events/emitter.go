// Package events handles event emission for created match notifications
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/imobmatch/imobmatch/pkg/kafka"
	"github.com/imobmatch/imobmatch/pkg/models"
	"github.com/imobmatch/imobmatch/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter publishes notification events for downstream delivery systems
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitLeadMatched emits a lead.matched event for a self-match notification
func (e *Emitter) EmitLeadMatched(ctx context.Context, notification *models.LeadNotification) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitLeadMatched")
	defer span.End()

	event := LeadMatchedEvent{
		BaseEvent:      NewBaseEvent(EventTypeLeadMatched),
		NotificationID: notification.ID,
		LeadID:         notification.LeadID,
		PropertyID:     notification.PropertyID,
		Title:          notification.Title,
		Message:        notification.Message,
	}
	data, _ := json.Marshal(event)

	err := e.producer.PublishNotificationEvent(ctx, &kafka.NotificationEvent{
		EventType:      string(EventTypeLeadMatched),
		NotificationID: notification.ID,
		LeadID:         notification.LeadID,
		PropertyID:     notification.PropertyID,
		Data:           data,
	})
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit lead.matched event")
		return err
	}

	return nil
}

// EmitPartnershipNotified emits a partnership.notified event for a
// cross-user notification
func (e *Emitter) EmitPartnershipNotified(ctx context.Context, notification *models.PartnershipNotification) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitPartnershipNotified")
	defer span.End()

	event := PartnershipNotifiedEvent{
		BaseEvent:        NewBaseEvent(EventTypePartnershipNotified),
		NotificationID:   notification.ID,
		FromUserID:       notification.FromUserID,
		ToUserID:         notification.ToUserID,
		LeadID:           notification.LeadID,
		PropertyID:       notification.PropertyID,
		PropertyTitle:    notification.PropertyTitle,
		TargetPriceCents: notification.TargetPriceCents,
		MatchType:        string(notification.MatchType),
		FromUserPhone:    notification.FromUserPhone,
	}
	data, _ := json.Marshal(event)

	err := e.producer.PublishNotificationEvent(ctx, &kafka.NotificationEvent{
		EventType:      string(EventTypePartnershipNotified),
		NotificationID: notification.ID,
		LeadID:         notification.LeadID,
		PropertyID:     notification.PropertyID,
		Data:           data,
	})
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit partnership.notified event")
		return err
	}

	return nil
}
