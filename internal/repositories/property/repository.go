package property

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

var propertyColumns = []string{
	"id", "user_id", "title", "property_type",
	"bedrooms", "bathrooms", "area_m2",
	"rent_price_cents", "sale_price_cents",
	"available_for", "amenities", "city", "state",
	"accepts_partnership", "status", "created_at", "updated_at",
}

// Repository handles property persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new property repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new property owned by userID
func (r *Repository) Create(ctx context.Context, userID string, req models.CreatePropertyRequest) (*models.Property, error) {
	ctx, span := tracing.StartSpan(ctx, "property.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	property := &models.Property{
		ID:                 uuid.New().String(),
		UserID:             userID,
		Title:              req.Title,
		PropertyType:       req.PropertyType,
		Bedrooms:           req.Bedrooms,
		Bathrooms:          req.Bathrooms,
		AreaM2:             req.AreaM2,
		RentPriceCents:     req.RentPriceCents,
		SalePriceCents:     req.SalePriceCents,
		AvailableFor:       normalize.EncodeStringList(req.AvailableFor),
		Amenities:          normalize.EncodeStringList(req.Amenities),
		City:               req.City,
		State:              req.State,
		AcceptsPartnership: req.AcceptsPartnership,
		Status:             models.PropertyStatusAvailable,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("properties")
	sb.Cols(propertyColumns...)
	sb.Values(
		property.ID, property.UserID, property.Title, property.PropertyType,
		property.Bedrooms, property.Bathrooms, property.AreaM2,
		property.RentPriceCents, property.SalePriceCents,
		property.AvailableFor, property.Amenities, property.City, property.State,
		property.AcceptsPartnership, property.Status, property.CreatedAt, property.UpdatedAt,
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"property_id": property.ID}).Error("Failed to create property")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create property")
	}

	return property, nil
}

// Get retrieves a property by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Property, error) {
	ctx, span := tracing.StartSpan(ctx, "property.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(propertyColumns...)
	sb.From("properties")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var property models.Property
	if err := r.db.GetContext(ctx, &property, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("property %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get property")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get property")
	}

	return &property, nil
}

// List retrieves a user's properties, newest first
func (r *Repository) List(ctx context.Context, userID string, page, pageSize int) ([]models.Property, int, error) {
	ctx, span := tracing.StartSpan(ctx, "property.Repository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From("properties")
	countSb.Where(countSb.Equal("user_id", userID))

	query, args := countSb.Build()
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count properties")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list properties")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(propertyColumns...)
	sb.From("properties")
	sb.Where(sb.Equal("user_id", userID))
	sb.OrderBy("created_at DESC")
	sb.Limit(pageSize)
	sb.Offset((page - 1) * pageSize)

	query, args = sb.Build()
	var properties []models.Property
	if err := r.db.SelectContext(ctx, &properties, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list properties")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list properties")
	}

	return properties, total, nil
}

// Update applies a partial update and returns the updated property. Returns
// nil when the property does not exist or is not owned by userID.
func (r *Repository) Update(ctx context.Context, userID string, id string, req models.UpdatePropertyRequest) (*models.Property, error) {
	ctx, span := tracing.StartSpan(ctx, "property.Repository.Update")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("properties")

	assignments := []string{sb.Assign("updated_at", time.Now().UTC())}
	if req.Title != nil {
		assignments = append(assignments, sb.Assign("title", *req.Title))
	}
	if req.PropertyType != nil {
		assignments = append(assignments, sb.Assign("property_type", *req.PropertyType))
	}
	if req.Bedrooms != nil {
		assignments = append(assignments, sb.Assign("bedrooms", *req.Bedrooms))
	}
	if req.Bathrooms != nil {
		assignments = append(assignments, sb.Assign("bathrooms", *req.Bathrooms))
	}
	if req.AreaM2 != nil {
		assignments = append(assignments, sb.Assign("area_m2", *req.AreaM2))
	}
	if req.RentPriceCents != nil {
		assignments = append(assignments, sb.Assign("rent_price_cents", *req.RentPriceCents))
	}
	if req.SalePriceCents != nil {
		assignments = append(assignments, sb.Assign("sale_price_cents", *req.SalePriceCents))
	}
	if req.AvailableFor != nil {
		assignments = append(assignments, sb.Assign("available_for", normalize.EncodeStringList(req.AvailableFor)))
	}
	if req.Amenities != nil {
		assignments = append(assignments, sb.Assign("amenities", normalize.EncodeStringList(req.Amenities)))
	}
	if req.City != nil {
		assignments = append(assignments, sb.Assign("city", *req.City))
	}
	if req.State != nil {
		assignments = append(assignments, sb.Assign("state", *req.State))
	}
	if req.AcceptsPartnership != nil {
		assignments = append(assignments, sb.Assign("accepts_partnership", *req.AcceptsPartnership))
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
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update property")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update property")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, nil
	}

	selectSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	selectSb.Select(propertyColumns...)
	selectSb.From("properties")
	selectSb.Where(selectSb.Equal("id", id))

	query, args = selectSb.Build()
	var property models.Property
	if err := tx.GetContext(ctx, &property, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to reload updated property")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update property")
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to commit property update")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update property")
	}

	return &property, nil
}

// ListAvailableByOwner retrieves AVAILABLE properties of the given type
// owned by ownerID. Used as the self-match candidate set for lead-triggered
// matching passes.
func (r *Repository) ListAvailableByOwner(ctx context.Context, ownerID string, propertyType string, limit int) ([]models.Property, error) {
	ctx, span := tracing.StartSpan(ctx, "property.Repository.ListAvailableByOwner")
	defer span.End()

	if limit < 1 {
		limit = 500
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(propertyColumns...)
	sb.From("properties")
	sb.Where(
		sb.Equal("status", models.PropertyStatusAvailable),
		sb.Equal("user_id", ownerID),
		sb.Equal("property_type", propertyType),
	)
	sb.OrderBy("created_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var properties []models.Property
	if err := r.db.SelectContext(ctx, &properties, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list owner properties")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list owner properties")
	}

	return properties, nil
}

// ListAvailablePartnership retrieves AVAILABLE partnership-enabled
// properties of the given type owned by anyone except excludeOwnerID. Used
// as the partnership candidate set for lead-triggered matching passes.
func (r *Repository) ListAvailablePartnership(ctx context.Context, propertyType string, excludeOwnerID string, limit int) ([]models.Property, error) {
	ctx, span := tracing.StartSpan(ctx, "property.Repository.ListAvailablePartnership")
	defer span.End()

	if limit < 1 {
		limit = 500
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(propertyColumns...)
	sb.From("properties")
	sb.Where(
		sb.Equal("status", models.PropertyStatusAvailable),
		sb.Equal("accepts_partnership", true),
		sb.Equal("property_type", propertyType),
		sb.NotEqual("user_id", excludeOwnerID),
	)
	sb.OrderBy("created_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var properties []models.Property
	if err := r.db.SelectContext(ctx, &properties, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list partnership properties")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list partnership properties")
	}

	return properties, nil
}
