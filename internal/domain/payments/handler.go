package payments

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
	g.POST("/payments", h.PostPayment)
	g.POST("/payments/:id/reverse", h.ReversePayment)
}

type postPaymentRequest struct {
	ClaimID uuid.UUID       `json:"claim_id"`
	Amount  decimal.Decimal `json:"amount"`
	Method  string          `json:"method"`
}

func (h *Handler) PostPayment(c echo.Context) error {
	var req postPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	res, err := h.svc.PostPayment(ctx, PostPaymentInput{
		ClaimID: req.ClaimID,
		Amount:  req.Amount,
		Method:  req.Method,
		UserID:  auth.UserIDFromContext(ctx),
	})
	if err != nil {
		return c.JSON(result.HTTPStatus(err), result.Err(err))
	}
	return c.JSON(http.StatusCreated, result.OK(res))
}

func (h *Handler) ReversePayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payment id")
	}

	ctx := c.Request().Context()
	res, err := h.svc.ReversePayment(ctx, id, auth.UserIDFromContext(ctx))
	if err != nil {
		return c.JSON(result.HTTPStatus(err), result.Err(err))
	}
	return c.JSON(http.StatusOK, result.OK(res))
}
