package accounts

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

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
	g.POST("/accounts/transfer", h.TransferBalance)
}

type transferRequest struct {
	FromPatientID uuid.UUID       `json:"from_patient_id"`
	ToPatientID   uuid.UUID       `json:"to_patient_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
}

func (h *Handler) TransferBalance(c echo.Context) error {
	var req transferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	res, err := h.svc.TransferBalance(ctx, TransferInput{
		FromPatientID: req.FromPatientID,
		ToPatientID:   req.ToPatientID,
		Amount:        req.Amount,
		Reason:        req.Reason,
		UserID:        auth.UserIDFromContext(ctx),
	})
	if err != nil {
		return c.JSON(result.HTTPStatus(err), result.Err(err))
	}
	return c.JSON(http.StatusCreated, result.OK(res))
}
