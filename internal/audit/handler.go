package audit

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rxguard/rxguard/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/audit-trail", h.GetAuditTrail)
}

// GetAuditTrail handles GET /patients/:id/audit-trail with optional start,
// end, and type query filters.
func (h *Handler) GetAuditTrail(c echo.Context) error {
	patientID := c.Param("id")
	if patientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient id is required")
	}

	pg := pagination.FromContext(c)
	filter := TrailFilter{Limit: pg.Limit, Offset: pg.Offset}

	if v := c.QueryParam("start"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid start date")
		}
		filter.From = &ts
	}
	if v := c.QueryParam("end"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid end date")
		}
		filter.To = &ts
	}
	if v := c.QueryParam("types"); v != "" {
		for _, raw := range strings.Split(v, ",") {
			t := EventType(strings.TrimSpace(raw))
			if !validEventTypes[t] {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid event type: "+string(t))
			}
			filter.Types = append(filter.Types, t)
		}
	}

	items, total := h.svc.GetPatientTrail(c.Request().Context(), patientID, filter)
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
