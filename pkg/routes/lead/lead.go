package lead

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

// Repo is the lead persistence the handler needs
type Repo interface {
	Create(ctx context.Context, userID string, req models.CreateLeadRequest) (*models.Lead, error)
	Get(ctx context.Context, id string) (*models.Lead, error)
	List(ctx context.Context, userID string, page, pageSize int) ([]models.Lead, int, error)
	Update(ctx context.Context, userID string, id string, req models.UpdateLeadRequest) (*models.Lead, error)
}

// Matcher runs a matching pass after a lead write commits
type Matcher interface {
	OnLeadChanged(ctx context.Context, leadID string) (*matching.MatchSummary, error)
}

// Handler handles lead CRUD and triggers matching after each write
type Handler struct {
	leads   Repo
	matcher Matcher
	logger  ectologger.Logger
}

// NewHandler creates a new lead handler
func NewHandler(leads Repo, matcher Matcher, logger ectologger.Logger) *Handler {
	return &Handler{
		leads:   leads,
		matcher: matcher,
		logger:  logger,
	}
}

// RegisterRoutes registers lead routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
}

// Create creates a lead and runs a matching pass for it
func (h *Handler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "lead_handler.Create")
	defer span.End()

	userID := ctxutil.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user_id is required")
	}

	var req models.CreateLeadRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	lead, err := h.leads.Create(ctx, userID, req)
	if err != nil {
		return err
	}

	h.runMatching(ctx, lead.ID)

	return c.JSON(http.StatusCreated, models.LeadResponse{Lead: *lead})
}

// Get returns a single lead owned by the caller
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "lead_handler.Get")
	defer span.End()

	userID := ctxutil.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user_id is required")
	}

	lead, err := h.leads.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if lead.UserID != userID {
		return httperror.NewHTTPError(http.StatusNotFound, "lead not found")
	}

	return c.JSON(http.StatusOK, models.LeadResponse{Lead: *lead})
}

// List returns the caller's leads
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "lead_handler.List")
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

	items, totalCount, err := h.leads.List(ctx, userID, page, pageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.LeadListResponse{
		Items:      items,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	})
}

// Update updates a lead and runs a matching pass for it
func (h *Handler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "lead_handler.Update")
	defer span.End()

	userID := ctxutil.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user_id is required")
	}

	var req models.UpdateLeadRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	lead, err := h.leads.Update(ctx, userID, c.Param("id"), req)
	if err != nil {
		return err
	}
	if lead == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "lead not found")
	}

	h.runMatching(ctx, lead.ID)

	return c.JSON(http.StatusOK, models.LeadResponse{Lead: *lead})
}

// runMatching runs the matching pass as a best-effort side effect of the
// write: the write has already committed, so pass failures are logged, never
// surfaced to the caller.
func (h *Handler) runMatching(ctx context.Context, leadID string) {
	if _, err := h.matcher.OnLeadChanged(ctx, leadID); err != nil {
		h.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"lead_id": leadID}).Error("Matching pass failed after lead write")
	}
}
