package safety

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rxguard/rxguard/internal/audit"
	"github.com/rxguard/rxguard/internal/interaction"
)

// Handler exposes the full validation pipeline: interaction check, rule
// engine, recommendation filter, audit trail, explainability.
type Handler struct {
	engine  *Engine
	checker *interaction.Checker
	audits  *audit.Service
}

func NewHandler(engine *Engine, checker *interaction.Checker, audits *audit.Service) *Handler {
	return &Handler{engine: engine, checker: checker, audits: audits}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/safety/validate", h.ValidateSafety)
	api.POST("/safety/explainability", h.Explainability)
}

type validateRequest struct {
	PatientID      string               `json:"patient_id"`
	ActorID        string               `json:"actor_id"`
	PatientContext PatientContext       `json:"patient_context"`
	Bundle         RecommendationBundle `json:"bundle"`
}

type validateResponse struct {
	Result         SafetyValidationResult        `json:"result"`
	Filtered       RecommendationBundle          `json:"filtered_bundle"`
	Interactions   interaction.InteractionResult `json:"interaction_result"`
	Explainability Report                        `json:"explainability"`
	AuditID        string                        `json:"audit_id"`
}

// ValidateSafety handles POST /safety/validate. It runs the interaction
// check over the patient's current medications, folds the aggregate into the
// bundle, evaluates the rule engine, filters blocked recommendations, and
// records the transaction in the audit trail.
func (h *Handler) ValidateSafety(c echo.Context) error {
	var req validateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	requestID, _ := c.Get("request_id").(string)

	meds := make([]interaction.Medication, len(req.PatientContext.Medications))
	for i, name := range req.PatientContext.Medications {
		meds[i] = interaction.Medication{Name: name}
	}
	interactions := h.checker.Check(ctx, meds)

	bundle := req.Bundle
	bundle.DrugInteractions = append(bundle.DrugInteractions, interactions.Interactions...)

	result := h.engine.Validate(bundle, req.PatientContext)
	filtered := FilterUnsafe(bundle, result)

	report := BuildExplainability(req.PatientContext, &result)
	if interactions.Degraded {
		report.MarkDegraded()
	}

	auditID := h.audits.LogEvent(ctx, &audit.Entry{
		PatientID: req.PatientID,
		ActorID:   req.ActorID,
		Type:      audit.EventValidationResult,
		RequestID: requestID,
		Detail: map[string]interface{}{
			"is_valid":           result.Valid,
			"alert_count":        len(result.Alerts),
			"blocked_count":      len(result.BlockedRecommendations),
			"interaction_status": interactions.Status,
			"confidence":         report.Confidence,
		},
	})
	// Individual block alerts are recorded off the request path.
	for _, alert := range result.Alerts {
		if alert.Action != ActionBlock {
			continue
		}
		h.audits.LogEventAsync(&audit.Entry{
			PatientID: req.PatientID,
			ActorID:   req.ActorID,
			Type:      audit.EventSafetyAlert,
			RequestID: requestID,
			Detail: map[string]interface{}{
				"severity":   alert.Severity,
				"type":       alert.Type,
				"message":    alert.Message,
				"substances": alert.Substances,
			},
		})
	}

	return c.JSON(http.StatusOK, validateResponse{
		Result:         result,
		Filtered:       filtered,
		Interactions:   interactions,
		Explainability: report,
		AuditID:        auditID,
	})
}

type explainRequest struct {
	PatientContext PatientContext          `json:"patient_context"`
	Result         *SafetyValidationResult `json:"result,omitempty"`
}

// Explainability handles POST /safety/explainability for callers that want a
// report without re-running validation.
func (h *Handler) Explainability(c echo.Context) error {
	var req explainRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, BuildExplainability(req.PatientContext, req.Result))
}
