package interaction

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	checker *Checker
}

func NewHandler(checker *Checker) *Handler {
	return &Handler{checker: checker}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/interactions/check", h.CheckInteractions)
}

type checkRequest struct {
	Medications []Medication `json:"medications"`
}

// CheckInteractions handles POST /interactions/check.
func (h *Handler) CheckInteractions(c echo.Context) error {
	var req checkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result := h.checker.Check(c.Request().Context(), req.Medications)
	return c.JSON(http.StatusOK, result)
}
