package safety

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// rulesFile is the on-disk shape of an optional rules extension file. It can
// only add rules to the built-in tables; it cannot remove or rewrite them,
// which preserves the immutable-reference-table invariant after startup.
type rulesFile struct {
	Contraindications []ContraindicationRule `yaml:"contraindications"`
	AgeRules          []AgeRule              `yaml:"age_rules"`
}

// LoadRulesFile parses a YAML rules extension file.
func LoadRulesFile(path string) (*rulesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var rf rulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	for i, r := range rf.Contraindications {
		if r.Condition == "" || len(r.Substances) == 0 {
			return nil, fmt.Errorf("contraindication rule %d: condition and substances are required", i)
		}
		switch r.Severity {
		case "critical", "high", "moderate":
		case "":
			rf.Contraindications[i].Severity = "high"
		default:
			return nil, fmt.Errorf("contraindication rule %d: invalid severity %q", i, r.Severity)
		}
	}
	for i, r := range rf.AgeRules {
		if r.MaxAge == nil && r.MinAge == nil {
			return nil, fmt.Errorf("age rule %d: max_age or min_age is required", i)
		}
	}
	return &rf, nil
}
