package claims

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/revcycle/revcycle/internal/platform/auth"
	"github.com/revcycle/revcycle/pkg/result"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "billing"))
	g.POST("/claims/bulk-status", h.BulkUpdateStatus)
}

type bulkStatusRequest struct {
	ClaimIDs []uuid.UUID `json:"claim_ids"`
	Status   string      `json:"status"`
	Notes    *string     `json:"notes,omitempty"`
}

func (h *Handler) BulkUpdateStatus(c echo.Context) error {
	var req bulkStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	res, err := h.svc.BulkUpdateStatus(ctx, req.ClaimIDs, BulkStatusUpdate{
		Status: req.Status,
		Notes:  req.Notes,
		UserID: auth.UserIDFromContext(ctx),
	})
	if err != nil {
		return c.JSON(result.HTTPStatus(err), result.Err(err))
	}

	return c.JSON(http.StatusOK, result.OKWithSummary(
		map[string]any{"failed_ids": res.FailedIDs},
		result.Summary{Total: res.Total, Successful: res.Successful, Failed: res.Failed},
	))
}
