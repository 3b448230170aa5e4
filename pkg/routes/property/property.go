package property

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	ctxutil "github.com/imobmatch/imobmatch/pkg/context"
	"github.com/imobmatch/imobmatch/pkg/matching"
	"github.com/imobmatch/imobmatch/pkg/models"
	"github.com/imobmatch/imobmatch/pkg/tracing"
)

var validate = validator.New()

// Repo is the property persistence the handler needs
type Repo interface {
	Create(ctx context.Context, userID string, req models.CreatePropertyRequest) (*models.Property, error)
	Get(ctx context.Context, id string) (*models.Property, error)
	List(ctx context.Context, userID string, page, pageSize int) ([]models.Property, int, error)
	Update(ctx context.Context, userID string, id string, req models.UpdatePropertyRequest) (*models.Property, error)
}

// Matcher runs a matching pass after a property write commits
type Matcher interface {
	OnPropertyChanged(ctx context.Context, propertyID string) (*matching.MatchSummary, error)
}

// Handler handles property CRUD and triggers matching after each write
type Handler struct {
	properties Repo
	matcher    Matcher
	logger     ectologger.Logger
}

// NewHandler creates a new property handler
func NewHandler(properties Repo, matcher Matcher, logger ectologger.Logger) *Handler {
	return &Handler{
		properties: properties,
		matcher:    matcher,
		logger:     logger,
	}
}

// RegisterRoutes registers property routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
}

// Create creates a property and runs a matching pass for it
func (h *Handler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "property_handler.Create")
	defer span.End()

	userID := ctxutil.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user_id is required")
	}

	var req models.CreatePropertyRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	property, err := h.properties.Create(ctx, userID, req)
	if err != nil {
		return err
	}

	h.runMatching(ctx, property.ID)

	return c.JSON(http.StatusCreated, models.PropertyResponse{Property: *property})
}

// Get returns a single property owned by the caller
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "property_handler.Get")
	defer span.End()

	userID := ctxutil.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user_id is required")
	}

	property, err := h.properties.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if property.UserID != userID {
		return httperror.NewHTTPError(http.StatusNotFound, "property not found")
	}

	return c.JSON(http.StatusOK, models.PropertyResponse{Property: *property})
}

// List returns the caller's properties
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "property_handler.List")
	defer span.End()

	userID := ctxutil.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user_id is required")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	items, totalCount, err := h.properties.List(ctx, userID, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.PropertyListResponse{
		Items:      items,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	})
}

// Update updates a property and runs a matching pass for it
func (h *Handler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "property_handler.Update")
	defer span.End()

	userID := ctxutil.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user_id is required")
	}

	var req models.UpdatePropertyRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	property, err := h.properties.Update(ctx, userID, c.Param("id"), req)
	if err != nil {
		return err
	}
	if property == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "property not found")
	}

	h.runMatching(ctx, property.ID)

	return c.JSON(http.StatusOK, models.PropertyResponse{Property: *property})
}

// runMatching runs the matching pass as a best-effort side effect of the
// write: the write has already committed, so pass failures are logged, never
// surfaced to the caller.
func (h *Handler) runMatching(ctx context.Context, propertyID string) {
	if _, err := h.matcher.OnPropertyChanged(ctx, propertyID); err != nil {
		h.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"property_id": propertyID}).Error("Matching pass failed after property write")
	}
}
