// Package safety evaluates AI-generated clinical recommendations against
// patient-specific contraindications. It is a decision-support heuristic
// engine: matching is deliberately permissive and text-based, and its output
// classifies findings as block, warn, or flag rather than guaranteeing
// medical correctness.
package safety

import (
	"time"

	"github.com/rxguard/rxguard/internal/interaction"
)

// PatientContext is the read-only patient snapshot supplied by the caller.
// A nil Allergies slice means "no data"; an empty non-nil slice is an
// informative statement that the patient has no known allergies.
type PatientContext struct {
	Conditions  []string `json:"conditions"`
	Allergies   []string `json:"allergies"`
	Medications []string `json:"medications"`
	LabResults  []string `json:"lab_results,omitempty"`
	Vitals      []string `json:"vitals,omitempty"`
	Notes       []string `json:"notes,omitempty"`
	Age         *int     `json:"age,omitempty"`
	Pregnant    *bool    `json:"is_pregnant,omitempty"`
}

// Recommendation is one free-text clinical suggestion within a bundle.
type Recommendation struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// RecommendationBundle is the AI-generated output under validation: the
// suggestions themselves, surfaced risk alerts, and the drug-interaction
// sub-result attached upstream.
type RecommendationBundle struct {
	Recommendations  []Recommendation              `json:"recommendations"`
	RiskAlerts       []string                      `json:"risk_alerts,omitempty"`
	DrugInteractions []interaction.DrugInteraction `json:"drug_interactions,omitempty"`
}

// AlertAction tells the caller what to do with the finding.
type AlertAction string

const (
	ActionBlock AlertAction = "block"
	ActionWarn  AlertAction = "warn"
	ActionFlag  AlertAction = "flag"
)

// AlertType categorizes the finding.
type AlertType string

const (
	AlertContraindication AlertType = "contraindication"
	AlertAllergy          AlertType = "allergy"
	AlertDrugInteraction  AlertType = "drug_interaction"
	AlertDosing           AlertType = "dosing"
	AlertAgeRelated       AlertType = "age_related"
	AlertConditionRelated AlertType = "condition_related"
)

// SafetyAlert is a single finding produced by the rule engine.
type SafetyAlert struct {
	Severity       string      `json:"severity"` // critical | high | moderate
	Type           AlertType   `json:"type"`
	Message        string      `json:"message"`
	Recommendation string      `json:"recommendation"`
	Substances     []string    `json:"substances,omitempty"`
	Action         AlertAction `json:"action"`
}

// SafetyValidationResult is the engine's verdict. Valid is true iff no alert
// carries the block action.
type SafetyValidationResult struct {
	Valid                  bool          `json:"is_valid"`
	Alerts                 []SafetyAlert `json:"alerts"`
	BlockedRecommendations []string      `json:"blocked_recommendations"`
	Warnings               []string      `json:"warnings"`
	ValidatedAt            time.Time     `json:"validated_at"`
}
