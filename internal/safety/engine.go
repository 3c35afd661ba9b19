package safety

import (
	"fmt"
	"strings"
	"time"

	"github.com/rxguard/rxguard/internal/drug"
	"github.com/rxguard/rxguard/internal/interaction"
)

// Engine evaluates recommendation bundles against patient context using the
// static rule tables. Validate is a pure function of its inputs; the engine
// holds no mutable state after construction.
type Engine struct {
	contraindications []ContraindicationRule
	ageRules          []AgeRule
	crossReactivity   map[string][]string
}

// NewEngine builds an engine over the built-in rule tables.
func NewEngine() *Engine {
	return &Engine{
		contraindications: defaultContraindications,
		ageRules:          defaultAgeRules,
		crossReactivity:   crossReactivity,
	}
}

// NewEngineFromFile builds an engine over the built-in tables extended by a
// YAML rules file. The merged tables are fixed for the engine's lifetime.
func NewEngineFromFile(path string) (*Engine, error) {
	rf, err := LoadRulesFile(path)
	if err != nil {
		return nil, err
	}
	e := NewEngine()
	e.contraindications = append(append([]ContraindicationRule{}, defaultContraindications...), rf.Contraindications...)
	e.ageRules = append(append([]AgeRule{}, defaultAgeRules...), rf.AgeRules...)
	return e, nil
}

// containsKeyword reports whether recommendation text mentions a substance
// keyword. This is a plain substring test on normalized text: phrasing
// variance can miss a mention and partial-word containment can over-match.
// It is kept as-is for behavioral parity with established output.
func containsKeyword(text, keyword string) bool {
	return strings.Contains(drug.Normalize(text), drug.Normalize(keyword))
}

// conditionMatches is a bidirectional substring test between a patient
// condition and a rule condition.
func conditionMatches(patientCondition, ruleCondition string) bool {
	a, b := drug.Normalize(patientCondition), drug.Normalize(ruleCondition)
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Validate runs every safety pass over the bundle. The passes never
// short-circuit one another: a recommendation already blocked by one rule is
// still examined by the rest so the alert list is complete.
func (e *Engine) Validate(bundle RecommendationBundle, pc PatientContext) SafetyValidationResult {
	var alerts []SafetyAlert
	var blocked []string
	var warnings []string

	// 1. Pregnancy.
	if pc.Pregnant != nil && *pc.Pregnant {
		for _, rec := range bundle.Recommendations {
			for _, substance := range pregnancyRule.Substances {
				if !containsKeyword(rec.Text, substance) {
					continue
				}
				alerts = append(alerts, SafetyAlert{
					Severity:       "critical",
					Type:           AlertContraindication,
					Message:        fmt.Sprintf("%s: %s", substance, pregnancyRule.Message),
					Recommendation: rec.Text,
					Substances:     []string{substance},
					Action:         ActionBlock,
				})
				blocked = append(blocked, rec.Text)
			}
		}
	}

	// 2. Condition-based contraindications.
	for _, rule := range e.contraindications {
		matched := false
		for _, cond := range pc.Conditions {
			if conditionMatches(cond, rule.Condition) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		for _, rec := range bundle.Recommendations {
			for _, substance := range rule.Substances {
				if !containsKeyword(rec.Text, substance) {
					continue
				}
				if rule.Severity == "critical" {
					alerts = append(alerts, SafetyAlert{
						Severity:       "critical",
						Type:           AlertContraindication,
						Message:        fmt.Sprintf("%s with %s: %s", substance, rule.Condition, rule.Message),
						Recommendation: rec.Text,
						Substances:     []string{substance},
						Action:         ActionBlock,
					})
					blocked = append(blocked, rec.Text)
				} else {
					alerts = append(alerts, SafetyAlert{
						Severity:       rule.Severity,
						Type:           AlertConditionRelated,
						Message:        fmt.Sprintf("%s with %s: %s", substance, rule.Condition, rule.Message),
						Recommendation: rec.Text,
						Substances:     []string{substance},
						Action:         ActionWarn,
					})
					warnings = append(warnings, fmt.Sprintf(
						"Use caution with the %s recommendation: %s (%s)",
						rec.Category, substance, rule.Condition))
				}
			}
		}
	}

	// 3. Allergies, direct then cross-reactive.
	for _, allergen := range pc.Allergies {
		for _, rec := range bundle.Recommendations {
			if containsKeyword(rec.Text, allergen) {
				alerts = append(alerts, SafetyAlert{
					Severity:       "critical",
					Type:           AlertAllergy,
					Message:        fmt.Sprintf("recommendation mentions %s, a documented allergy", allergen),
					Recommendation: rec.Text,
					Substances:     []string{allergen},
					Action:         ActionBlock,
				})
				blocked = append(blocked, rec.Text)
			}
		}
		for key, related := range e.crossReactivity {
			if !conditionMatches(allergen, key) {
				continue
			}
			for _, rec := range bundle.Recommendations {
				for _, substance := range related {
					if !containsKeyword(rec.Text, substance) {
						continue
					}
					alerts = append(alerts, SafetyAlert{
						Severity:       "high",
						Type:           AlertAllergy,
						Message:        fmt.Sprintf("%s may cross-react with documented %s allergy", substance, allergen),
						Recommendation: rec.Text,
						Substances:     []string{substance, allergen},
						Action:         ActionWarn,
					})
					warnings = append(warnings, fmt.Sprintf(
						"Possible cross-reactivity between %s and %s allergy", substance, allergen))
				}
			}
		}
	}

	// 4. Age bands.
	if pc.Age != nil {
		age := *pc.Age
		for _, rule := range e.ageRules {
			if rule.MaxAge != nil && age <= *rule.MaxAge {
				for _, rec := range bundle.Recommendations {
					for _, substance := range rule.Contraindicated {
						if !containsKeyword(rec.Text, substance) {
							continue
						}
						alerts = append(alerts, SafetyAlert{
							Severity:       "critical",
							Type:           AlertAgeRelated,
							Message:        fmt.Sprintf("%s is contraindicated for %s patients (age %d)", substance, rule.Label, age),
							Recommendation: rec.Text,
							Substances:     []string{substance},
							Action:         ActionBlock,
						})
						blocked = append(blocked, rec.Text)
					}
				}
			}
			if rule.MinAge != nil && age >= *rule.MinAge {
				for _, rec := range bundle.Recommendations {
					for _, substance := range rule.Caution {
						if !containsKeyword(rec.Text, substance) {
							continue
						}
						alerts = append(alerts, SafetyAlert{
							Severity:       "high",
							Type:           AlertAgeRelated,
							Message:        fmt.Sprintf("%s requires caution in %s patients (age %d)", substance, rule.Label, age),
							Recommendation: rec.Text,
							Substances:     []string{substance},
							Action:         ActionWarn,
						})
						warnings = append(warnings, fmt.Sprintf(
							"Use caution with %s for patients aged %d or older", substance, *rule.MinAge))
					}
				}
			}
		}
	}

	// 5. Upstream drug interactions attached to the bundle.
	for _, di := range bundle.DrugInteractions {
		switch di.Severity {
		case interaction.SeverityMajor:
			alerts = append(alerts, SafetyAlert{
				Severity:   "high",
				Type:       AlertDrugInteraction,
				Message:    fmt.Sprintf("major interaction between %s and %s: %s", di.DrugA, di.DrugB, di.Description),
				Substances: []string{di.DrugA, di.DrugB},
				Action:     ActionWarn,
			})
			warnings = append(warnings, fmt.Sprintf(
				"Major drug interaction: %s and %s", di.DrugA, di.DrugB))
		case interaction.SeverityContraindicated:
			alerts = append(alerts, SafetyAlert{
				Severity:   "critical",
				Type:       AlertDrugInteraction,
				Message:    fmt.Sprintf("contraindicated combination of %s and %s: %s", di.DrugA, di.DrugB, di.Description),
				Substances: []string{di.DrugA, di.DrugB},
				Action:     ActionBlock,
			})
			for _, rec := range bundle.Recommendations {
				if containsKeyword(rec.Text, di.DrugA) || containsKeyword(rec.Text, di.DrugB) {
					blocked = append(blocked, rec.Text)
				}
			}
		}
	}

	blocked = dedupeStrings(blocked)
	warnings = dedupeStrings(warnings)

	return SafetyValidationResult{
		Valid:                  !hasBlock(alerts),
		Alerts:                 alerts,
		BlockedRecommendations: blocked,
		Warnings:               warnings,
		ValidatedAt:            time.Now().UTC(),
	}
}

func hasBlock(alerts []SafetyAlert) bool {
	for _, a := range alerts {
		if a.Action == ActionBlock {
			return true
		}
	}
	return false
}

func dedupeStrings(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
