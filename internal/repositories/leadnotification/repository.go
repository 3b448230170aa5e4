package leadnotification

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/imobmatch/imobmatch/pkg/database"
	"github.com/imobmatch/imobmatch/pkg/models"
	"github.com/imobmatch/imobmatch/pkg/tracing"
)

var notificationColumns = []string{
	"id", "lead_id", "property_id", "title", "message", "sent", "dedup_bucket", "created_at",
}

// Repository handles self-match notification persistence. Rows are
// append-only; the engine never updates them and only the delivery
// mechanism flips sent.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new lead notification repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a self-match notification unless an equivalent one already
// exists within the dedup window. The rolling pre-check keeps the common
// path cheap; the unique index over (lead_id, property_id, dedup_bucket)
// with ON CONFLICT DO NOTHING closes the concurrent-pass race. Returns
// created=false when the row was suppressed either way.
func (r *Repository) Create(ctx context.Context, notification *models.LeadNotification, window time.Duration) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "leadnotification.Repository.Create")
	defer span.End()

	now := time.Now().UTC()

	existsSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	existsSb.Select("COUNT(*)")
	existsSb.From("lead_notifications")
	existsSb.Where(
		existsSb.Equal("lead_id", notification.LeadID),
		existsSb.Equal("property_id", notification.PropertyID),
		existsSb.GreaterThan("created_at", now.Add(-window)),
	)

	query, args := existsSb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to check for existing lead notification")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to check for existing lead notification")
	}
	if count > 0 {
		return false, nil
	}

	notification.ID = uuid.New().String()
	notification.Sent = false
	notification.CreatedAt = now
	notification.DedupBucket = now.Truncate(window)

	ib := database.NewInsertBuilder()
	ib.InsertInto("lead_notifications")
	ib.Cols(notificationColumns...)
	ib.Values(
		notification.ID, notification.LeadID, notification.PropertyID,
		notification.Title, notification.Message, notification.Sent,
		notification.DedupBucket, notification.CreatedAt,
	)
	ib.OnConflictDoNothing()

	query, args = ib.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"lead_id":     notification.LeadID,
			"property_id": notification.PropertyID,
		}).Error("Failed to create lead notification")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create lead notification")
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ListByUser retrieves the notifications for leads owned by userID, newest
// first
func (r *Repository) ListByUser(ctx context.Context, userID string, limit int) ([]models.LeadNotification, error) {
	ctx, span := tracing.StartSpan(ctx, "leadnotification.Repository.ListByUser")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT ln.id, ln.lead_id, ln.property_id, ln.title, ln.message, ln.sent, ln.dedup_bucket, ln.created_at
		FROM lead_notifications ln
		JOIN leads l ON l.id = ln.lead_id
		WHERE l.user_id = $1
		ORDER BY ln.created_at DESC
		LIMIT $2
	`

	var notifications []models.LeadNotification
	if err := r.db.SelectContext(ctx, &notifications, query, userID, limit); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list lead notifications")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list lead notifications")
	}

	return notifications, nil
}

// CountUnsent counts undelivered notifications for leads owned by userID
func (r *Repository) CountUnsent(ctx context.Context, userID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "leadnotification.Repository.CountUnsent")
	defer span.End()

	query := `
		SELECT COUNT(*)
		FROM lead_notifications ln
		JOIN leads l ON l.id = ln.lead_id
		WHERE l.user_id = $1 AND ln.sent = false
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count unsent lead notifications")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count unsent lead notifications")
	}

	return count, nil
}

// MarkSent flags a notification as delivered by the external mechanism
func (r *Repository) MarkSent(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "leadnotification.Repository.MarkSent")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("lead_notifications")
	sb.Set(sb.Assign("sent", true))
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to mark lead notification sent")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to mark lead notification sent")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("lead notification %s not found", id))
	}

	return nil
}
