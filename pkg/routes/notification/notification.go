package notification

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	ctxutil "github.com/imobmatch/imobmatch/pkg/context"
	"github.com/imobmatch/imobmatch/pkg/models"
	"github.com/imobmatch/imobmatch/pkg/tracing"
)

// LeadNotificationRepo reads and flags self-match notifications
type LeadNotificationRepo interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]models.LeadNotification, error)
	CountUnsent(ctx context.Context, userID string) (int, error)
	MarkSent(ctx context.Context, id string) error
}

// PartnershipNotificationRepo reads and flags partnership notifications
type PartnershipNotificationRepo interface {
	ListByRecipient(ctx context.Context, userID string, limit int) ([]models.PartnershipNotification, error)
	CountUnsent(ctx context.Context, userID string) (int, error)
	MarkSent(ctx context.Context, id string) error
}

// Handler serves the notification feed for a user
type Handler struct {
	leadNotifs        LeadNotificationRepo
	partnershipNotifs PartnershipNotificationRepo
	logger            ectologger.Logger
}

// NewHandler creates a new notification handler
func NewHandler(leadNotifs LeadNotificationRepo, partnershipNotifs PartnershipNotificationRepo, logger ectologger.Logger) *Handler {
	return &Handler{
		leadNotifs:        leadNotifs,
		partnershipNotifs: partnershipNotifs,
		logger:            logger,
	}
}

// RegisterRoutes registers notification routes
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.Feed)
	g.GET("/unseen-count", h.UnseenCount)
	g.PUT("/lead/:id/sent", h.MarkLeadNotificationSent)
	g.PUT("/partnership/:id/sent", h.MarkPartnershipNotificationSent)
}

// Feed returns the caller's notifications of both kinds, newest first
func (h *Handler) Feed(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "notification_handler.Feed")
	defer span.End()

	userID := ctxutil.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user_id is required")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 100
	}

	leadNotifs, err := h.leadNotifs.ListByUser(ctx, userID, limit)
	if err != nil {
		return err
	}

	partnershipNotifs, err := h.partnershipNotifs.ListByRecipient(ctx, userID, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.NotificationFeedResponse{
		LeadNotifications:        leadNotifs,
		PartnershipNotifications: partnershipNotifs,
	})
}

// UnseenCount returns how many undelivered notifications the caller has
func (h *Handler) UnseenCount(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "notification_handler.UnseenCount")
	defer span.End()

	userID := ctxutil.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user_id is required")
	}

	leadCount, err := h.leadNotifs.CountUnsent(ctx, userID)
	if err != nil {
		return err
	}

	partnershipCount, err := h.partnershipNotifs.CountUnsent(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.UnseenCountResponse{
		LeadNotifications:        leadCount,
		PartnershipNotifications: partnershipCount,
		Total:                    leadCount + partnershipCount,
	})
}

// MarkLeadNotificationSent flags a self-match notification as delivered
func (h *Handler) MarkLeadNotificationSent(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "notification_handler.MarkLeadNotificationSent")
	defer span.End()

	userID := ctxutil.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user_id is required")
	}

	if err := h.leadNotifs.MarkSent(ctx, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// MarkPartnershipNotificationSent flags a partnership notification as delivered
func (h *Handler) MarkPartnershipNotificationSent(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "notification_handler.MarkPartnershipNotificationSent")
	defer span.End()

	userID := ctxutil.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user_id is required")
	}

	if err := h.partnershipNotifs.MarkSent(ctx, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
