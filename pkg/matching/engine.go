// Package matching implements the lead–property matching engine. It depends
// only on the repository interfaces declared here, so it is testable without
// a database and portable across storage engines.
package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/imobmatch/imobmatch/pkg/metrics"
	"github.com/imobmatch/imobmatch/pkg/models"
	"github.com/imobmatch/imobmatch/pkg/tracing"
)

const (
	triggerProperty = "property"
	triggerLead     = "lead"
)

// LeadRepo is the engine's view of lead persistence
type LeadRepo interface {
	Get(ctx context.Context, id string) (*models.Lead, error)
	ListActiveCandidates(ctx context.Context, propertyType string, interests []models.LeadInterest, limit int) ([]models.Lead, error)
	SetMatchedProperty(ctx context.Context, leadID string, propertyID string) error
}

// PropertyRepo is the engine's view of property persistence
type PropertyRepo interface {
	Get(ctx context.Context, id string) (*models.Property, error)
	ListAvailableByOwner(ctx context.Context, ownerID string, propertyType string, limit int) ([]models.Property, error)
	ListAvailablePartnership(ctx context.Context, propertyType string, excludeOwnerID string, limit int) ([]models.Property, error)
}

// LeadNotificationRepo writes self-match notifications. Create must be
// idempotent within the dedup window: it reports created=false when an
// equivalent row already exists for the window.
type LeadNotificationRepo interface {
	Create(ctx context.Context, notification *models.LeadNotification, window time.Duration) (created bool, err error)
}

// PartnershipNotificationRepo writes cross-user notifications with the same
// windowed idempotence contract as LeadNotificationRepo. ExistsSince is a
// cheap rolling-window pre-check; the Create conflict target closes the race.
type PartnershipNotificationRepo interface {
	ExistsSince(ctx context.Context, fromUserID, toUserID, leadID, propertyID string, since time.Time) (bool, error)
	Create(ctx context.Context, notification *models.PartnershipNotification, window time.Duration) (created bool, err error)
}

// ContactRepo resolves the denormalized display fields for partnership
// notifications. ResolvePhone falls back from the user to their company and
// returns nil when neither has a phone, never an error for missing data.
type ContactRepo interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	ResolvePhone(ctx context.Context, userID string) (*string, error)
}

// EventEmitter publishes notification events for downstream delivery
// systems. Emission is best-effort; the engine logs and continues on error.
type EventEmitter interface {
	EmitLeadMatched(ctx context.Context, notification *models.LeadNotification) error
	EmitPartnershipNotified(ctx context.Context, notification *models.PartnershipNotification) error
}

// Config holds matching engine settings
type Config struct {
	// DedupWindow is the rolling interval during which an identical
	// notification tuple is not re-created
	DedupWindow time.Duration
	// CandidateLimit bounds each candidate query
	CandidateLimit int
}

// MatchSummary reports the outcome of one matching pass. Per-candidate
// failures are counted here rather than aborting the pass.
type MatchSummary struct {
	CandidatesEvaluated int `json:"candidates_evaluated"`
	SelfMatches         int `json:"self_matches"`
	PartnershipMatches  int `json:"partnership_matches"`
	Suppressed          int `json:"suppressed"`
	Failures            int `json:"failures"`
}

// Engine discovers compatible lead/property pairings and records the
// resulting notifications
type Engine struct {
	leads             LeadRepo
	properties        PropertyRepo
	leadNotifs        LeadNotificationRepo
	partnershipNotifs PartnershipNotificationRepo
	contacts          ContactRepo
	emitter           EventEmitter
	logger            ectologger.Logger
	config            Config
}

// NewEngine creates a matching engine. emitter may be nil when event
// emission is disabled.
func NewEngine(
	leads LeadRepo,
	properties PropertyRepo,
	leadNotifs LeadNotificationRepo,
	partnershipNotifs PartnershipNotificationRepo,
	contacts ContactRepo,
	emitter EventEmitter,
	logger ectologger.Logger,
	config Config,
) *Engine {
	if config.DedupWindow <= 0 {
		config.DedupWindow = 24 * time.Hour
	}
	if config.CandidateLimit <= 0 {
		config.CandidateLimit = 500
	}

	return &Engine{
		leads:             leads,
		properties:        properties,
		leadNotifs:        leadNotifs,
		partnershipNotifs: partnershipNotifs,
		contacts:          contacts,
		emitter:           emitter,
		logger:            logger,
		config:            config,
	}
}

// OnPropertyChanged runs a matching pass for a property that was just
// created or updated. Candidates are ACTIVE leads of the same property type
// whose interest is compatible with the property's available_for set. An
// error is returned only for pass-level failures (trigger entity or
// candidate set unreadable); per-candidate failures are isolated and counted
// in the summary.
func (e *Engine) OnPropertyChanged(ctx context.Context, propertyID string) (*MatchSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.OnPropertyChanged")
	defer span.End()

	summary := &MatchSummary{}

	property, err := e.properties.Get(ctx, propertyID)
	if err != nil {
		return summary, fmt.Errorf("failed to load property %s: %w", propertyID, err)
	}
	if property.Status != models.PropertyStatusAvailable {
		return summary, nil
	}

	attrs, warnings := NewPropertyAttrs(property)
	e.logNormalizationWarnings(ctx, "property", property.ID, warnings)

	var interests []models.LeadInterest
	if _, ok := attrs.AvailableFor[models.TransactionTypeRent]; ok {
		interests = append(interests, models.LeadInterestRent)
	}
	if _, ok := attrs.AvailableFor[models.TransactionTypeSale]; ok {
		interests = append(interests, models.LeadInterestBuy)
	}
	if len(interests) == 0 {
		return summary, nil
	}

	leads, err := e.leads.ListActiveCandidates(ctx, property.PropertyType, interests, e.config.CandidateLimit)
	if err != nil {
		return summary, fmt.Errorf("failed to list candidate leads for property %s: %w", propertyID, err)
	}

	for i := range leads {
		summary.CandidatesEvaluated++
		metrics.RecordPairEvaluated(triggerProperty)

		if err := e.matchPair(ctx, &leads[i], property, summary); err != nil {
			summary.Failures++
			metrics.RecordCandidateFailure(triggerProperty)
			e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"lead_id":     leads[i].ID,
				"property_id": property.ID,
			}).Warn("Failed to evaluate candidate lead, continuing pass")
		}
	}

	e.logPassComplete(ctx, triggerProperty, propertyID, summary)
	return summary, nil
}

// OnLeadChanged runs a matching pass for a lead that was just created or
// updated. Candidates are the owner's own AVAILABLE properties of the
// matching type plus other users' AVAILABLE partnership-enabled properties
// of that type.
func (e *Engine) OnLeadChanged(ctx context.Context, leadID string) (*MatchSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.OnLeadChanged")
	defer span.End()

	summary := &MatchSummary{}

	lead, err := e.leads.Get(ctx, leadID)
	if err != nil {
		return summary, fmt.Errorf("failed to load lead %s: %w", leadID, err)
	}
	if lead.Status != models.LeadStatusActive {
		return summary, nil
	}

	own, err := e.properties.ListAvailableByOwner(ctx, lead.UserID, lead.PropertyType, e.config.CandidateLimit)
	if err != nil {
		return summary, fmt.Errorf("failed to list own properties for lead %s: %w", leadID, err)
	}

	partnership, err := e.properties.ListAvailablePartnership(ctx, lead.PropertyType, lead.UserID, e.config.CandidateLimit)
	if err != nil {
		return summary, fmt.Errorf("failed to list partnership properties for lead %s: %w", leadID, err)
	}

	candidates := append(own, partnership...)
	for i := range candidates {
		summary.CandidatesEvaluated++
		metrics.RecordPairEvaluated(triggerLead)

		if err := e.matchPair(ctx, lead, &candidates[i], summary); err != nil {
			summary.Failures++
			metrics.RecordCandidateFailure(triggerLead)
			e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"lead_id":     lead.ID,
				"property_id": candidates[i].ID,
			}).Warn("Failed to evaluate candidate property, continuing pass")
		}
	}

	e.logPassComplete(ctx, triggerLead, leadID, summary)
	return summary, nil
}

// matchPair evaluates and persists one (lead, property) pair. Both trigger
// paths funnel through here so classification and dedup are written once and
// are trigger-agnostic.
func (e *Engine) matchPair(ctx context.Context, lead *models.Lead, property *models.Property, summary *MatchSummary) error {
	if lead.Status != models.LeadStatusActive || property.Status != models.PropertyStatusAvailable {
		return nil
	}

	criteria, warnings := NewLeadCriteria(lead)
	e.logNormalizationWarnings(ctx, "lead", lead.ID, warnings)

	attrs, warnings := NewPropertyAttrs(property)
	e.logNormalizationWarnings(ctx, "property", property.ID, warnings)

	if !Matches(attrs, criteria) {
		return nil
	}

	if lead.UserID == property.UserID {
		return e.recordSelfMatch(ctx, lead, property, summary)
	}

	if property.AcceptsPartnership {
		return e.recordPartnershipMatch(ctx, lead, property, criteria, summary)
	}

	// cross-user, non-partnership properties never match
	return nil
}

func (e *Engine) recordSelfMatch(ctx context.Context, lead *models.Lead, property *models.Property, summary *MatchSummary) error {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.recordSelfMatch")
	defer span.End()

	notification := &models.LeadNotification{
		LeadID:     lead.ID,
		PropertyID: property.ID,
		Title:      "New property match",
		Message:    fmt.Sprintf("Your lead %q matches the property %q in %s", lead.Name, property.Title, property.City),
	}

	created, err := e.leadNotifs.Create(ctx, notification, e.config.DedupWindow)
	if err != nil {
		return fmt.Errorf("failed to create lead notification: %w", err)
	}

	if created {
		summary.SelfMatches++
		metrics.RecordMatch("self")
		e.emitLeadMatched(ctx, notification)
	} else {
		summary.Suppressed++
		metrics.RecordSuppressedNotification()
	}

	// last self-match wins, re-runs just overwrite with the same value
	if err := e.leads.SetMatchedProperty(ctx, lead.ID, property.ID); err != nil {
		return fmt.Errorf("failed to set matched property: %w", err)
	}

	return nil
}

func (e *Engine) recordPartnershipMatch(ctx context.Context, lead *models.Lead, property *models.Property, criteria LeadCriteria, summary *MatchSummary) error {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.recordPartnershipMatch")
	defer span.End()

	since := time.Now().UTC().Add(-e.config.DedupWindow)
	exists, err := e.partnershipNotifs.ExistsSince(ctx, lead.UserID, property.UserID, lead.ID, property.ID, since)
	if err != nil {
		return fmt.Errorf("failed to check for existing partnership notification: %w", err)
	}
	if exists {
		summary.Suppressed++
		metrics.RecordSuppressedNotification()
		return nil
	}

	fromUser, err := e.contacts.GetUser(ctx, lead.UserID)
	if err != nil {
		return fmt.Errorf("failed to load lead owner %s: %w", lead.UserID, err)
	}

	phone, err := e.contacts.ResolvePhone(ctx, lead.UserID)
	if err != nil {
		return fmt.Errorf("failed to resolve phone for user %s: %w", lead.UserID, err)
	}

	matchType := models.MatchTypeRent
	if lead.Interest == models.LeadInterestBuy {
		matchType = models.MatchTypeSale
	}

	notification := &models.PartnershipNotification{
		FromUserID:       lead.UserID,
		ToUserID:         property.UserID,
		LeadID:           lead.ID,
		PropertyID:       property.ID,
		FromUserName:     fromUser.Name,
		FromUserPhone:    phone,
		FromUserEmail:    &fromUser.Email,
		LeadName:         lead.Name,
		PropertyTitle:    property.Title,
		TargetPriceCents: criteria.MaxPriceCents,
		MatchType:        matchType,
	}

	created, err := e.partnershipNotifs.Create(ctx, notification, e.config.DedupWindow)
	if err != nil {
		return fmt.Errorf("failed to create partnership notification: %w", err)
	}
	if !created {
		// a concurrent pass won the insert
		summary.Suppressed++
		metrics.RecordSuppressedNotification()
		return nil
	}

	summary.PartnershipMatches++
	metrics.RecordMatch("partnership")
	e.emitPartnershipNotified(ctx, notification)

	return nil
}

func (e *Engine) emitLeadMatched(ctx context.Context, notification *models.LeadNotification) {
	if e.emitter == nil {
		return
	}
	if err := e.emitter.EmitLeadMatched(ctx, notification); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"lead_id":     notification.LeadID,
			"property_id": notification.PropertyID,
		}).Warn("Failed to emit lead matched event")
	}
}

func (e *Engine) emitPartnershipNotified(ctx context.Context, notification *models.PartnershipNotification) {
	if e.emitter == nil {
		return
	}
	if err := e.emitter.EmitPartnershipNotified(ctx, notification); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"lead_id":     notification.LeadID,
			"property_id": notification.PropertyID,
		}).Warn("Failed to emit partnership notified event")
	}
}

func (e *Engine) logNormalizationWarnings(ctx context.Context, entity string, id string, fields []string) {
	for _, field := range fields {
		e.logger.WithContext(ctx).WithFields(map[string]any{
			"entity": entity,
			"id":     id,
			"field":  field,
		}).Warn("Malformed serialized list field, treating as empty")
	}
}

func (e *Engine) logPassComplete(ctx context.Context, trigger string, id string, summary *MatchSummary) {
	e.logger.WithContext(ctx).WithFields(map[string]any{
		"trigger":              trigger,
		"id":                   id,
		"candidates_evaluated": summary.CandidatesEvaluated,
		"self_matches":         summary.SelfMatches,
		"partnership_matches":  summary.PartnershipMatches,
		"suppressed":           summary.Suppressed,
		"failures":             summary.Failures,
	}).Info("Matching pass complete")
}
