package safety

// ContraindicationRule ties a condition to substances that should not be
// recommended for patients who have it. Severity "critical" blocks the
// recommendation; anything else warns.
type ContraindicationRule struct {
	Condition  string   `yaml:"condition" json:"condition"`
	Substances []string `yaml:"substances" json:"substances"`
	Severity   string   `yaml:"severity" json:"severity"`
	Message    string   `yaml:"message" json:"message"`
}

// AgeRule applies to an age band: a pediatric rule carries MaxAge and a hard
// contraindicated list, an elderly rule carries MinAge and a caution list.
type AgeRule struct {
	MaxAge          *int     `yaml:"max_age,omitempty" json:"max_age,omitempty"`
	MinAge          *int     `yaml:"min_age,omitempty" json:"min_age,omitempty"`
	Contraindicated []string `yaml:"contraindicated,omitempty" json:"contraindicated,omitempty"`
	Caution         []string `yaml:"caution,omitempty" json:"caution,omitempty"`
	Label           string   `yaml:"label" json:"label"`
}

func intPtr(v int) *int { return &v }

// pregnancyRule is the dedicated teratogenic-substance rule applied when the
// patient context carries a positive pregnancy flag.
var pregnancyRule = ContraindicationRule{
	Condition: "pregnancy",
	Substances: []string{
		"methotrexate", "warfarin", "isotretinoin", "lisinopril",
		"ace inhibitor", "statin", "simvastatin", "atorvastatin",
		"valproate", "valproic acid", "tetracycline", "finasteride",
	},
	Severity: "critical",
	Message:  "known teratogen contraindicated in pregnancy",
}

// defaultContraindications is the built-in condition-based reference table.
// RULES_FILE may extend it once at startup; after that it is read-only.
var defaultContraindications = []ContraindicationRule{
	{
		Condition:  "kidney disease",
		Substances: []string{"nsaid", "ibuprofen", "naproxen", "metformin", "gadolinium"},
		Severity:   "critical",
		Message:    "nephrotoxic or renally cleared agent contraindicated with impaired renal function",
	},
	{
		Condition:  "renal failure",
		Substances: []string{"nsaid", "ibuprofen", "naproxen", "metformin", "spironolactone"},
		Severity:   "critical",
		Message:    "contraindicated in renal failure",
	},
	{
		Condition:  "peptic ulcer",
		Substances: []string{"aspirin", "nsaid", "ibuprofen", "naproxen", "warfarin"},
		Severity:   "critical",
		Message:    "high risk of GI bleeding with active ulcer disease",
	},
	{
		Condition:  "gi bleed",
		Substances: []string{"aspirin", "nsaid", "ibuprofen", "warfarin", "clopidogrel"},
		Severity:   "critical",
		Message:    "anticoagulant or antiplatelet use after GI bleeding requires specialist review",
	},
	{
		Condition:  "liver disease",
		Substances: []string{"acetaminophen", "statin", "simvastatin", "atorvastatin", "methotrexate"},
		Severity:   "high",
		Message:    "hepatotoxic agent requires caution with hepatic impairment",
	},
	{
		Condition:  "asthma",
		Substances: []string{"aspirin", "nsaid", "propranolol", "beta blocker"},
		Severity:   "high",
		Message:    "may provoke bronchospasm in asthmatic patients",
	},
	{
		Condition:  "heart failure",
		Substances: []string{"nsaid", "ibuprofen", "pioglitazone", "verapamil"},
		Severity:   "high",
		Message:    "may worsen fluid retention and cardiac function",
	},
	{
		Condition:  "diabetes",
		Substances: []string{"prednisone", "corticosteroid", "hydrochlorothiazide"},
		Severity:   "moderate",
		Message:    "may impair glycemic control",
	},
}

// defaultAgeRules are the built-in pediatric and elderly bands.
var defaultAgeRules = []AgeRule{
	{
		MaxAge:          intPtr(12),
		Contraindicated: []string{"aspirin", "tetracycline", "fluoroquinolone", "ciprofloxacin", "codeine"},
		Label:           "pediatric",
	},
	{
		MinAge:  intPtr(65),
		Caution: []string{"benzodiazepine", "diazepam", "lorazepam", "diphenhydramine", "zolpidem", "amitriptyline", "nsaid"},
		Label:   "elderly",
	},
}

// crossReactivity maps a reported allergen to substances with documented
// cross-sensitivity. A hit warns rather than blocks: cross-reactivity is
// probabilistic, not certain.
var crossReactivity = map[string][]string{
	"penicillin": {"amoxicillin", "ampicillin", "cephalosporin", "cephalexin", "cefazolin"},
	"sulfa":      {"sulfamethoxazole", "sulfasalazine", "thiazide", "hydrochlorothiazide"},
	"aspirin":    {"nsaid", "ibuprofen", "naproxen", "ketorolac"},
	"latex":      {"banana", "avocado", "kiwi"},
}
