package remittance

import (
	"net/http"

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
	g.POST("/era/process", h.ProcessFile)
}

type processRequest struct {
	FileName string `json:"file_name"`
	Data     string `json:"data"`
	AutoPost bool   `json:"auto_post"`
}

func (h *Handler) ProcessFile(c echo.Context) error {
	var req processRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	res, err := h.svc.ProcessFile(ctx, ProcessInput{
		Data:     []byte(req.Data),
		FileName: req.FileName,
		AutoPost: req.AutoPost,
		UserID:   auth.UserIDFromContext(ctx),
	})
	if err != nil {
		return c.JSON(result.HTTPStatus(err), result.Err(err))
	}

	// The file commits all-or-nothing, so the summary counts postable
	// lines only: on a committed file every one of them posted. Zero-paid
	// lines appear as skipped_count in the data, not as failures.
	if req.AutoPost {
		return c.JSON(http.StatusCreated, result.OKWithSummary(res, result.Summary{
			Total:      res.PostedCount,
			Successful: res.PostedCount,
			Failed:     0,
		}))
	}
	return c.JSON(http.StatusCreated, result.OK(res))
}
