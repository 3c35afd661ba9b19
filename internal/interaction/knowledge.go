package interaction

import (
	"context"

	"github.com/rxguard/rxguard/internal/drug"
)

// knownPair is one entry of the curated internal interaction table. Drug
// slots hold canonical generic names; the matcher bridges brand names and
// class synonyms at lookup time.
type knownPair struct {
	drugA       string
	drugB       string
	severity    Severity
	description string
	action      string
}

// knownInteractions is the curated reference table of critical and major
// pairs. It is compiled into the binary and read-only after init.
var knownInteractions = []knownPair{
	{
		drugA: "warfarin", drugB: "aspirin", severity: SeverityMajor,
		description: "Concurrent use significantly increases bleeding risk through combined anticoagulant and antiplatelet effects.",
		action:      "Avoid combination; if unavoidable, monitor INR closely and watch for signs of bleeding.",
	},
	{
		drugA: "warfarin", drugB: "ibuprofen", severity: SeverityMajor,
		description: "NSAIDs potentiate warfarin and irritate gastric mucosa, raising the risk of serious GI bleeding.",
		action:      "Prefer acetaminophen for analgesia; monitor INR if an NSAID cannot be avoided.",
	},
	{
		drugA: "methotrexate", drugB: "trimethoprim", severity: SeverityContraindicated,
		description: "Both agents inhibit folate metabolism; the combination can cause severe pancytopenia.",
		action:      "Do not combine. Select an alternative antibiotic.",
	},
	{
		drugA: "sildenafil", drugB: "nitroglycerin", severity: SeverityContraindicated,
		description: "PDE5 inhibitors potentiate nitrate-induced vasodilation and can cause life-threatening hypotension.",
		action:      "Do not combine. Separate use by at least 24 hours.",
	},
	{
		drugA: "simvastatin", drugB: "clarithromycin", severity: SeverityMajor,
		description: "Macrolide CYP3A4 inhibition raises statin exposure and the risk of rhabdomyolysis.",
		action:      "Suspend the statin during the antibiotic course or switch to a non-interacting agent.",
	},
	{
		drugA: "digoxin", drugB: "amiodarone", severity: SeverityMajor,
		description: "Amiodarone reduces digoxin clearance; toxicity presents as nausea, visual changes, and arrhythmia.",
		action:      "Reduce digoxin dose by roughly half and monitor serum levels.",
	},
	{
		drugA: "lisinopril", drugB: "potassium", severity: SeverityModerate,
		description: "ACE inhibition plus potassium supplementation can produce hyperkalemia.",
		action:      "Monitor serum potassium; review the need for supplementation.",
	},
	{
		drugA: "lisinopril", drugB: "spironolactone", severity: SeverityMajor,
		description: "Dual potassium-sparing effect carries a high risk of hyperkalemia, especially with renal impairment.",
		action:      "Monitor potassium and renal function closely.",
	},
	{
		drugA: "sertraline", drugB: "phenelzine", severity: SeverityContraindicated,
		description: "SSRI plus MAOI can precipitate serotonin syndrome.",
		action:      "Do not combine. Allow a 14-day washout between agents.",
	},
	{
		drugA: "tramadol", drugB: "sertraline", severity: SeverityMajor,
		description: "Additive serotonergic activity raises the risk of serotonin syndrome and lowers seizure threshold.",
		action:      "Avoid combination where possible; counsel on early serotonin-syndrome symptoms.",
	},
	{
		drugA: "warfarin", drugB: "omeprazole", severity: SeverityModerate,
		description: "Omeprazole can modestly inhibit warfarin metabolism and raise INR.",
		action:      "Monitor INR after starting or stopping the proton-pump inhibitor.",
	},
	{
		drugA: "clopidogrel", drugB: "omeprazole", severity: SeverityModerate,
		description: "Omeprazole inhibits CYP2C19 activation of clopidogrel and may blunt its antiplatelet effect.",
		action:      "Prefer pantoprazole if acid suppression is required.",
	},
	{
		drugA: "digoxin", drugB: "furosemide", severity: SeverityModerate,
		description: "Diuretic-induced hypokalemia sensitizes the myocardium to digoxin toxicity.",
		action:      "Monitor potassium and consider supplementation.",
	},
	{
		drugA: "levothyroxine", drugB: "warfarin", severity: SeverityModerate,
		description: "Thyroid hormone increases catabolism of clotting factors, potentiating warfarin.",
		action:      "Recheck INR after thyroid dose changes.",
	},
}

// KnowledgeSource matches medication pairs against the curated internal
// table. It is synchronous, cheap, and always runs first.
type KnowledgeSource struct{}

func NewKnowledgeSource() *KnowledgeSource { return &KnowledgeSource{} }

func (s *KnowledgeSource) Name() string { return "internal-knowledge" }

// Find tests every pairwise combination of input names against both drug
// slots of every rule. Emitted interactions carry the original input
// spellings, not the rule's canonical names.
func (s *KnowledgeSource) Find(_ context.Context, names []string) ([]DrugInteraction, error) {
	var found []DrugInteraction
	for _, pair := range pairs(names) {
		for _, rule := range knownInteractions {
			hit := (drug.Match(pair[0], rule.drugA) && drug.Match(pair[1], rule.drugB)) ||
				(drug.Match(pair[0], rule.drugB) && drug.Match(pair[1], rule.drugA))
			if !hit {
				continue
			}
			found = append(found, DrugInteraction{
				DrugA:       pair[0],
				DrugB:       pair[1],
				Severity:    rule.severity,
				Description: rule.description,
				Action:      rule.action,
				Source:      s.Name(),
			})
		}
	}
	return found, nil
}
