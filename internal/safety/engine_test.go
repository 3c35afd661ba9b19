package safety

import (
	"strings"
	"testing"

	"github.com/rxguard/rxguard/internal/interaction"
)

func boolPtr(b bool) *bool { return &b }

func bundleWith(texts ...string) RecommendationBundle {
	var recs []Recommendation
	for _, t := range texts {
		recs = append(recs, Recommendation{Category: "medication", Text: t})
	}
	return RecommendationBundle{Recommendations: recs}
}

func countAction(alerts []SafetyAlert, action AlertAction) int {
	n := 0
	for _, a := range alerts {
		if a.Action == action {
			n++
		}
	}
	return n
}

func TestPregnancyBlocksTeratogen(t *testing.T) {
	e := NewEngine()
	rec := "Start methotrexate 15mg weekly for rheumatoid arthritis"
	result := e.Validate(bundleWith(rec), PatientContext{Pregnant: boolPtr(true)})

	if result.Valid {
		t.Error("expected invalid result")
	}
	if len(result.BlockedRecommendations) != 1 || result.BlockedRecommendations[0] != rec {
		t.Errorf("expected the recommendation to be blocked, got %v", result.BlockedRecommendations)
	}
	if countAction(result.Alerts, ActionBlock) == 0 {
		t.Error("expected a block alert")
	}
	if result.Alerts[0].Type != AlertContraindication || result.Alerts[0].Severity != "critical" {
		t.Errorf("unexpected alert shape: %+v", result.Alerts[0])
	}
}

func TestPregnancyIgnoredWhenFlagAbsent(t *testing.T) {
	e := NewEngine()
	result := e.Validate(bundleWith("Start methotrexate"), PatientContext{})
	if !result.Valid {
		t.Error("pregnancy rule must not fire without a positive flag")
	}
}

func TestConditionContraindicationCriticalBlocks(t *testing.T) {
	e := NewEngine()
	result := e.Validate(
		bundleWith("Add ibuprofen 400mg for pain management"),
		PatientContext{Conditions: []string{"Chronic Kidney Disease stage 3"}})

	if result.Valid {
		t.Error("expected block for NSAID with kidney disease")
	}
	if len(result.BlockedRecommendations) != 1 {
		t.Errorf("expected 1 blocked recommendation, got %d", len(result.BlockedRecommendations))
	}
}

func TestConditionContraindicationNonCriticalWarns(t *testing.T) {
	e := NewEngine()
	result := e.Validate(
		bundleWith("Consider acetaminophen for fever"),
		PatientContext{Conditions: []string{"liver disease"}})

	if !result.Valid {
		t.Error("non-critical contraindication must warn, not block")
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected a warning")
	}
	if !strings.Contains(result.Warnings[0], "medication recommendation") {
		t.Errorf("warning should reference the recommendation category: %q", result.Warnings[0])
	}
}

func TestAllergyDirectHitBlocks(t *testing.T) {
	e := NewEngine()
	rec := "Prescribe penicillin VK 500mg"
	result := e.Validate(bundleWith(rec), PatientContext{Allergies: []string{"penicillin"}})

	if result.Valid {
		t.Error("expected block on direct allergen mention")
	}
	if len(result.BlockedRecommendations) != 1 || result.BlockedRecommendations[0] != rec {
		t.Errorf("expected the recommendation blocked, got %v", result.BlockedRecommendations)
	}
}

func TestAllergyCrossReactivityWarnsOnly(t *testing.T) {
	e := NewEngine()
	rec := "Start amoxicillin 875mg twice daily"
	result := e.Validate(bundleWith(rec), PatientContext{Allergies: []string{"penicillin"}})

	if !result.Valid {
		t.Error("cross-reactivity must warn, not block")
	}
	if len(result.BlockedRecommendations) != 0 {
		t.Errorf("cross-reactive hit must not block, got %v", result.BlockedRecommendations)
	}
	warned := false
	for _, a := range result.Alerts {
		if a.Type == AlertAllergy && a.Action == ActionWarn && a.Severity == "high" {
			warned = true
		}
	}
	if !warned {
		t.Error("expected a high/allergy/warn alert")
	}
}

func TestPediatricAspirinBlocks(t *testing.T) {
	e := NewEngine()
	age := 10
	result := e.Validate(bundleWith("Give aspirin for fever"), PatientContext{Age: &age})

	if result.Valid {
		t.Error("aspirin at age 10 must block")
	}
	if len(result.BlockedRecommendations) != 1 {
		t.Errorf("expected 1 blocked recommendation, got %d", len(result.BlockedRecommendations))
	}
}

func TestElderlyBenzodiazepineWarns(t *testing.T) {
	e := NewEngine()
	age := 70
	result := e.Validate(bundleWith("Consider a benzodiazepine for insomnia"), PatientContext{Age: &age})

	if !result.Valid {
		t.Error("elderly caution must warn, not block")
	}
	if len(result.BlockedRecommendations) != 0 {
		t.Errorf("expected no blocks, got %v", result.BlockedRecommendations)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected an elderly caution warning")
	}
}

func TestAgeRulesSkippedWithoutAge(t *testing.T) {
	e := NewEngine()
	result := e.Validate(bundleWith("Give aspirin for fever"), PatientContext{})
	if !result.Valid {
		t.Error("age rules must not fire with unknown age")
	}
}

func TestUpstreamMajorInteractionWarns(t *testing.T) {
	e := NewEngine()
	bundle := bundleWith("Continue current regimen")
	bundle.DrugInteractions = []interaction.DrugInteraction{
		{DrugA: "warfarin", DrugB: "aspirin", Severity: interaction.SeverityMajor, Description: "bleeding risk"},
	}
	result := e.Validate(bundle, PatientContext{})

	if !result.Valid {
		t.Error("a major interaction warns, it does not block")
	}
	found := false
	for _, a := range result.Alerts {
		if a.Type == AlertDrugInteraction && a.Action == ActionWarn && a.Severity == "high" {
			found = true
		}
	}
	if !found {
		t.Error("expected a high/drug_interaction/warn alert")
	}
}

func TestUpstreamContraindicatedInteractionBlocksMentions(t *testing.T) {
	e := NewEngine()
	bundle := RecommendationBundle{
		Recommendations: []Recommendation{
			{Category: "medication", Text: "Start sildenafil 50mg as needed"},
			{Category: "lifestyle", Text: "Increase daily walking"},
		},
		DrugInteractions: []interaction.DrugInteraction{
			{DrugA: "sildenafil", DrugB: "nitroglycerin", Severity: interaction.SeverityContraindicated,
				Description: "severe hypotension"},
		},
	}
	result := e.Validate(bundle, PatientContext{})

	if result.Valid {
		t.Error("contraindicated interaction must block")
	}
	if len(result.BlockedRecommendations) != 1 ||
		result.BlockedRecommendations[0] != "Start sildenafil 50mg as needed" {
		t.Errorf("expected only the mentioning recommendation blocked, got %v", result.BlockedRecommendations)
	}
}

func TestBlockedAndWarningsDeduplicated(t *testing.T) {
	e := NewEngine()
	// One recommendation hit by both the pregnancy rule and a critical
	// condition rule: blocked list still holds it once.
	rec := "Start warfarin 5mg daily"
	result := e.Validate(bundleWith(rec), PatientContext{
		Pregnant:   boolPtr(true),
		Conditions: []string{"history of GI bleed"},
	})

	if len(result.BlockedRecommendations) != 1 {
		t.Errorf("expected deduplicated blocked list, got %v", result.BlockedRecommendations)
	}
	if countAction(result.Alerts, ActionBlock) < 2 {
		t.Error("both rules should raise their own alerts")
	}
}

func TestAllPassesRunWithoutShortCircuit(t *testing.T) {
	e := NewEngine()
	age := 10
	bundle := bundleWith("Give aspirin with amoxicillin for infection and fever")
	result := e.Validate(bundle, PatientContext{
		Age:       &age,
		Allergies: []string{"penicillin"},
	})

	// The pediatric pass blocks on aspirin and the allergy pass must still
	// have run and produced its cross-reactivity warning.
	if result.Valid {
		t.Error("expected block from the pediatric rule")
	}
	cross := false
	for _, a := range result.Alerts {
		if a.Type == AlertAllergy && a.Action == ActionWarn {
			cross = true
		}
	}
	if !cross {
		t.Error("later passes must run even after an earlier block")
	}
}

func TestValidIffNoBlockAlert(t *testing.T) {
	e := NewEngine()
	result := e.Validate(bundleWith("Drink more water"), PatientContext{})
	if !result.Valid || len(result.Alerts) != 0 {
		t.Errorf("benign input must validate cleanly: %+v", result)
	}
}
