package safety

// FilterUnsafe removes blocked recommendations from the bundle and appends
// user-facing messages for block-level and critical alerts to the risk-alert
// list. A fully valid result returns the input bundle unchanged.
func FilterUnsafe(bundle RecommendationBundle, result SafetyValidationResult) RecommendationBundle {
	if result.Valid && len(result.BlockedRecommendations) == 0 {
		return bundle
	}

	blocked := map[string]bool{}
	for _, text := range result.BlockedRecommendations {
		blocked[text] = true
	}

	filtered := RecommendationBundle{
		RiskAlerts:       append([]string{}, bundle.RiskAlerts...),
		DrugInteractions: bundle.DrugInteractions,
	}
	for _, rec := range bundle.Recommendations {
		if blocked[rec.Text] {
			continue
		}
		filtered.Recommendations = append(filtered.Recommendations, rec)
	}

	for _, alert := range result.Alerts {
		if alert.Action == ActionBlock || alert.Severity == "critical" {
			filtered.RiskAlerts = append(filtered.RiskAlerts, "⚠️ Safety alert: "+alert.Message)
		}
	}
	return filtered
}
