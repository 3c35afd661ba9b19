package safety

import (
	"fmt"
	"time"
)

// Factor is one data category (or safety outcome) that influenced a
// validation decision.
type Factor struct {
	Category string `json:"category"`
	Weight   string `json:"weight"` // high | medium
	Detail   string `json:"detail"`
}

// Report explains which patient data shaped a validation outcome and how
// complete that data was. Confidence is the fraction of the six data
// categories that carried data.
type Report struct {
	Factors       []Factor  `json:"influencing_factors"`
	Limitations   []string  `json:"limitations"`
	Confidence    float64   `json:"confidence"`
	LowConfidence bool      `json:"low_confidence,omitempty"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// BuildExplainability inspects the patient context's six data categories and
// the optional validation result. Diagnoses, medications, and allergies
// weigh high; labs, vitals, and notes weigh medium. An explicitly
// present-but-empty allergy list is an informative statement and counts
// toward completeness.
func BuildExplainability(pc PatientContext, result *SafetyValidationResult) Report {
	report := Report{GeneratedAt: time.Now().UTC()}

	categories := []struct {
		name    string
		weight  string
		present bool
		detail  string
	}{
		{"diagnoses", "high", len(pc.Conditions) > 0,
			fmt.Sprintf("%d documented condition(s) checked against contraindication rules", len(pc.Conditions))},
		{"medications", "high", len(pc.Medications) > 0,
			fmt.Sprintf("%d current medication(s) checked for interactions", len(pc.Medications))},
		{"lab_results", "medium", len(pc.LabResults) > 0,
			fmt.Sprintf("%d lab result(s) available to the recommendation context", len(pc.LabResults))},
		{"vitals", "medium", len(pc.Vitals) > 0,
			fmt.Sprintf("%d vital sign reading(s) available", len(pc.Vitals))},
		{"clinical_notes", "medium", len(pc.Notes) > 0,
			fmt.Sprintf("%d clinical note(s) available", len(pc.Notes))},
		{"allergies", "high", pc.Allergies != nil,
			fmt.Sprintf("%d documented allergy(ies) checked, including cross-reactivity", len(pc.Allergies))},
	}

	present := 0
	for _, c := range categories {
		if c.present {
			present++
			report.Factors = append(report.Factors, Factor{
				Category: c.name,
				Weight:   c.weight,
				Detail:   c.detail,
			})
		} else {
			report.Limitations = append(report.Limitations,
				fmt.Sprintf("no %s data was available for this validation", c.name))
		}
	}
	report.Confidence = float64(present) / float64(len(categories))

	if result != nil {
		if n := len(result.Alerts); n > 0 {
			report.Factors = append(report.Factors, Factor{
				Category: "safety_alerts",
				Weight:   "high",
				Detail:   fmt.Sprintf("%d safety alert(s) raised during validation", n),
			})
		}
		if n := len(result.BlockedRecommendations); n > 0 {
			report.Factors = append(report.Factors, Factor{
				Category: "blocked_recommendations",
				Weight:   "high",
				Detail:   fmt.Sprintf("%d recommendation(s) blocked by safety rules", n),
			})
		}
	}
	return report
}

// MarkDegraded flags the report as low confidence, used when every external
// interaction source failed and the no-interaction default is a guess rather
// than a confirmed negative.
func (r *Report) MarkDegraded() {
	r.LowConfidence = true
	r.Limitations = append(r.Limitations,
		"all external interaction sources were unavailable; the no-interaction result is a low-confidence default")
}
