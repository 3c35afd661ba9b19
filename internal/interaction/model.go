package interaction

import (
	"strings"

	"github.com/rxguard/rxguard/internal/drug"
)

// Severity is the canonical 4-level interaction severity vocabulary. External
// sources use their own vocabularies; adapters map them onto this one at the
// boundary.
type Severity string

const (
	SeverityMinor           Severity = "minor"
	SeverityModerate        Severity = "moderate"
	SeverityMajor           Severity = "major"
	SeverityContraindicated Severity = "contraindicated"
)

// rank orders severities for the aggregate verdict.
func (s Severity) rank() int {
	switch s {
	case SeverityContraindicated:
		return 4
	case SeverityMajor:
		return 3
	case SeverityModerate:
		return 2
	case SeverityMinor:
		return 1
	}
	return 0
}

// Status is the aggregate verdict for a medication set.
type Status string

const (
	StatusNoMajor  Status = "no_major"
	StatusMinor    Status = "minor"
	StatusMajor    Status = "major"
	StatusCritical Status = "critical"
)

// Medication is a clinician-entered medication reference. The name is free
// text with no canonical drug-code guarantee.
type Medication struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DrugInteraction is a single candidate interaction produced by a source.
// Drug names carry the caller's original spelling for display.
type DrugInteraction struct {
	DrugA       string   `json:"drug_a"`
	DrugB       string   `json:"drug_b"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Action      string   `json:"recommended_action,omitempty"`
	Source      string   `json:"source,omitempty"`
}

// PairKey returns the deduplication identity of the interaction: the
// unordered, normalized drug pair. (A,B) and (B,A) collapse to one key.
func (d DrugInteraction) PairKey() string {
	a, b := drug.Normalize(d.DrugA), drug.Normalize(d.DrugB)
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// InteractionResult is the aggregate verdict computed fresh per request.
type InteractionResult struct {
	Status       Status            `json:"status"`
	Message      string            `json:"message"`
	Interactions []DrugInteraction `json:"interactions"`
	// Degraded is set when every external source failed and the verdict is a
	// default negative rather than a confirmed one. The explainability report
	// surfaces this as low confidence.
	Degraded bool `json:"degraded,omitempty"`
}

// pairs enumerates every unordered pair of medication names, preserving the
// caller's original spellings.
func pairs(names []string) [][2]string {
	var out [][2]string
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			out = append(out, [2]string{names[i], names[j]})
		}
	}
	return out
}

func joinNames(meds []Medication) []string {
	names := make([]string, 0, len(meds))
	for _, m := range meds {
		if strings.TrimSpace(m.Name) != "" {
			names = append(names, m.Name)
		}
	}
	return names
}
