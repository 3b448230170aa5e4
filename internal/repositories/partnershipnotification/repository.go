package partnershipnotification

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
	"id", "from_user_id", "to_user_id", "lead_id", "property_id",
	"from_user_name", "from_user_phone", "from_user_email",
	"lead_name", "property_title", "target_price_cents", "match_type",
	"sent", "dedup_bucket", "created_at",
}

// Repository handles partnership notification persistence and the 24h-window
// deduplication that guards it
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new partnership notification repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ExistsSince reports whether a notification for the same
// (from_user, to_user, lead, property) tuple was created after the given
// time. This is the rolling-window pre-check; Create's conflict target is
// what actually closes the race between concurrent passes.
func (r *Repository) ExistsSince(ctx context.Context, fromUserID, toUserID, leadID, propertyID string, since time.Time) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "partnershipnotification.Repository.ExistsSince")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("partnership_notifications")
	sb.Where(
		sb.Equal("from_user_id", fromUserID),
		sb.Equal("to_user_id", toUserID),
		sb.Equal("lead_id", leadID),
		sb.Equal("property_id", propertyID),
		sb.GreaterThan("created_at", since),
	)

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to check for existing partnership notification")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to check for existing partnership notification")
	}

	return count > 0, nil
}

// Create inserts a partnership notification. The dedup_bucket column is the
// creation time truncated to the window, and the table carries a unique
// index over (from_user_id, to_user_id, lead_id, property_id, dedup_bucket)
// with ON CONFLICT DO NOTHING, so concurrent passes cannot double-insert.
// Returns created=false when the insert was suppressed by the index.
func (r *Repository) Create(ctx context.Context, notification *models.PartnershipNotification, window time.Duration) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "partnershipnotification.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	notification.ID = uuid.New().String()
	notification.Sent = false
	notification.CreatedAt = now
	notification.DedupBucket = now.Truncate(window)

	ib := database.NewInsertBuilder()
	ib.InsertInto("partnership_notifications")
	ib.Cols(notificationColumns...)
	ib.Values(
		notification.ID, notification.FromUserID, notification.ToUserID,
		notification.LeadID, notification.PropertyID,
		notification.FromUserName, notification.FromUserPhone, notification.FromUserEmail,
		notification.LeadName, notification.PropertyTitle, notification.TargetPriceCents, notification.MatchType,
		notification.Sent, notification.DedupBucket, notification.CreatedAt,
	)
	ib.OnConflictDoNothing()

	query, args := ib.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"from_user_id": notification.FromUserID,
			"to_user_id":   notification.ToUserID,
			"lead_id":      notification.LeadID,
			"property_id":  notification.PropertyID,
		}).Error("Failed to create partnership notification")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create partnership notification")
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ListByRecipient retrieves notifications addressed to userID, newest first
func (r *Repository) ListByRecipient(ctx context.Context, userID string, limit int) ([]models.PartnershipNotification, error) {
	ctx, span := tracing.StartSpan(ctx, "partnershipnotification.Repository.ListByRecipient")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(notificationColumns...)
	sb.From("partnership_notifications")
	sb.Where(sb.Equal("to_user_id", userID))
	sb.OrderBy("created_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var notifications []models.PartnershipNotification
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list partnership notifications")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list partnership notifications")
	}

	return notifications, nil
}

// CountUnsent counts undelivered notifications addressed to userID
func (r *Repository) CountUnsent(ctx context.Context, userID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "partnershipnotification.Repository.CountUnsent")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("partnership_notifications")
	sb.Where(
		sb.Equal("to_user_id", userID),
		sb.Equal("sent", false),
	)

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count unsent partnership notifications")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count unsent partnership notifications")
	}

	return count, nil
}

// MarkSent flags a notification as delivered by the external mechanism
func (r *Repository) MarkSent(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "partnershipnotification.Repository.MarkSent")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("partnership_notifications")
	sb.Set(sb.Assign("sent", true))
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to mark partnership notification sent")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to mark partnership notification sent")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("partnership notification %s not found", id))
	}

	return nil
}
