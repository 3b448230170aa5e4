package lead

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
	"github.com/imobmatch/imobmatch/pkg/normalize"
	"github.com/imobmatch/imobmatch/pkg/tracing"
)

var leadColumns = []string{
	"id", "user_id", "name", "interest", "property_type",
	"min_price_cents", "max_price_cents",
	"min_bedrooms", "max_bedrooms", "min_bathrooms", "max_bathrooms",
	"min_area_m2", "max_area_m2",
	"preferred_cities", "preferred_states",
	"status", "matched_property_id", "created_at", "updated_at",
}

// Repository handles lead persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new lead repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new lead owned by userID
func (r *Repository) Create(ctx context.Context, userID string, req models.CreateLeadRequest) (*models.Lead, error) {
	ctx, span := tracing.StartSpan(ctx, "lead.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	lead := &models.Lead{
		ID:              uuid.New().String(),
		UserID:          userID,
		Name:            req.Name,
		Interest:        req.Interest,
		PropertyType:    req.PropertyType,
		MinPriceCents:   req.MinPriceCents,
		MaxPriceCents:   req.MaxPriceCents,
		MinBedrooms:     req.MinBedrooms,
		MaxBedrooms:     req.MaxBedrooms,
		MinBathrooms:    req.MinBathrooms,
		MaxBathrooms:    req.MaxBathrooms,
		MinAreaM2:       req.MinAreaM2,
		MaxAreaM2:       req.MaxAreaM2,
		PreferredCities: normalize.EncodeStringList(req.PreferredCities),
		PreferredStates: normalize.EncodeStringList(req.PreferredStates),
		Status:          models.LeadStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("leads")
	sb.Cols(leadColumns...)
	sb.Values(
		lead.ID, lead.UserID, lead.Name, lead.Interest, lead.PropertyType,
		lead.MinPriceCents, lead.MaxPriceCents,
		lead.MinBedrooms, lead.MaxBedrooms, lead.MinBathrooms, lead.MaxBathrooms,
		lead.MinAreaM2, lead.MaxAreaM2,
		lead.PreferredCities, lead.PreferredStates,
		lead.Status, lead.MatchedPropertyID, lead.CreatedAt, lead.UpdatedAt,
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"lead_id": lead.ID}).Error("Failed to create lead")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create lead")
	}

	return lead, nil
}

// Get retrieves a lead by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Lead, error) {
	ctx, span := tracing.StartSpan(ctx, "lead.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(leadColumns...)
	sb.From("leads")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var lead models.Lead
	if err := r.db.GetContext(ctx, &lead, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("lead %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get lead")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get lead")
	}

	return &lead, nil
}

// List retrieves a user's leads, newest first
func (r *Repository) List(ctx context.Context, userID string, page, pageSize int) ([]models.Lead, int, error) {
	ctx, span := tracing.StartSpan(ctx, "lead.Repository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From("leads")
	countSb.Where(countSb.Equal("user_id", userID))

	query, args := countSb.Build()
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count leads")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list leads")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(leadColumns...)
	sb.From("leads")
	sb.Where(sb.Equal("user_id", userID))
	sb.OrderBy("created_at DESC")
	sb.Limit(pageSize)
	sb.Offset((page - 1) * pageSize)

	query, args = sb.Build()
	var leads []models.Lead
	if err := r.db.SelectContext(ctx, &leads, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list leads")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list leads")
	}

	return leads, total, nil
}

// Update applies a partial update and returns the updated lead. Returns nil
// when the lead does not exist or is not owned by userID.
func (r *Repository) Update(ctx context.Context, userID string, id string, req models.UpdateLeadRequest) (*models.Lead, error) {
	ctx, span := tracing.StartSpan(ctx, "lead.Repository.Update")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("leads")

	assignments := []string{sb.Assign("updated_at", time.Now().UTC())}
	if req.Name != nil {
		assignments = append(assignments, sb.Assign("name", *req.Name))
	}
	if req.Interest != nil {
		assignments = append(assignments, sb.Assign("interest", *req.Interest))
	}
	if req.PropertyType != nil {
		assignments = append(assignments, sb.Assign("property_type", *req.PropertyType))
	}
	if req.MinPriceCents != nil {
		assignments = append(assignments, sb.Assign("min_price_cents", *req.MinPriceCents))
	}
	if req.MaxPriceCents != nil {
		assignments = append(assignments, sb.Assign("max_price_cents", *req.MaxPriceCents))
	}
	if req.MinBedrooms != nil {
		assignments = append(assignments, sb.Assign("min_bedrooms", *req.MinBedrooms))
	}
	if req.MaxBedrooms != nil {
		assignments = append(assignments, sb.Assign("max_bedrooms", *req.MaxBedrooms))
	}
	if req.MinBathrooms != nil {
		assignments = append(assignments, sb.Assign("min_bathrooms", *req.MinBathrooms))
	}
	if req.MaxBathrooms != nil {
		assignments = append(assignments, sb.Assign("max_bathrooms", *req.MaxBathrooms))
	}
	if req.MinAreaM2 != nil {
		assignments = append(assignments, sb.Assign("min_area_m2", *req.MinAreaM2))
	}
	if req.MaxAreaM2 != nil {
		assignments = append(assignments, sb.Assign("max_area_m2", *req.MaxAreaM2))
	}
	if req.PreferredCities != nil {
		assignments = append(assignments, sb.Assign("preferred_cities", normalize.EncodeStringList(req.PreferredCities)))
	}
	if req.PreferredStates != nil {
		assignments = append(assignments, sb.Assign("preferred_states", normalize.EncodeStringList(req.PreferredStates)))
	}
	if req.Status != nil {
		assignments = append(assignments, sb.Assign("status", *req.Status))
	}

	sb.Set(assignments...)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("user_id", userID),
	)

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	query, args := sb.Build()
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update lead")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update lead")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, nil
	}

	selectSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	selectSb.Select(leadColumns...)
	selectSb.From("leads")
	selectSb.Where(selectSb.Equal("id", id))

	query, args = selectSb.Build()
	var lead models.Lead
	if err := tx.GetContext(ctx, &lead, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to reload updated lead")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update lead")
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to commit lead update")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update lead")
	}

	return &lead, nil
}

// ListActiveCandidates retrieves ACTIVE leads of the given property type
// whose interest is in the provided set. Used as the cheap pre-filter for
// property-triggered matching passes.
func (r *Repository) ListActiveCandidates(ctx context.Context, propertyType string, interests []models.LeadInterest, limit int) ([]models.Lead, error) {
	ctx, span := tracing.StartSpan(ctx, "lead.Repository.ListActiveCandidates")
	defer span.End()

	if len(interests) == 0 {
		return nil, nil
	}
	if limit < 1 {
		limit = 500
	}

	interestValues := make([]any, len(interests))
	for i, interest := range interests {
		interestValues[i] = interest
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(leadColumns...)
	sb.From("leads")
	sb.Where(
		sb.Equal("status", models.LeadStatusActive),
		sb.Equal("property_type", propertyType),
		sb.In("interest", interestValues...),
	)
	sb.OrderBy("created_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var leads []models.Lead
	if err := r.db.SelectContext(ctx, &leads, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list candidate leads")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list candidate leads")
	}

	return leads, nil
}

// SetMatchedProperty overwrites the lead's matched property back-link.
// Last write wins; prior self-matches are retained only as notification rows.
func (r *Repository) SetMatchedProperty(ctx context.Context, leadID string, propertyID string) error {
	ctx, span := tracing.StartSpan(ctx, "lead.Repository.SetMatchedProperty")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("leads")
	sb.Set(
		sb.Assign("matched_property_id", propertyID),
		sb.Assign("updated_at", time.Now().UTC()),
	)
	sb.Where(sb.Equal("id", leadID))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"lead_id": leadID}).Error("Failed to set matched property")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to set matched property")
	}

	return nil
}
