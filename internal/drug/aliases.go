package drug

// aliasGroups maps each canonical generic name to its brand names and class
// synonyms. Members are stored pre-normalized. The table is reference data
// compiled into the binary and is read-only after init.
var aliasGroups = map[string][]string{
	"warfarin":      {"warfarin", "coumadin", "jantoven"},
	"ibuprofen":     {"ibuprofen", "advil", "motrin", "nsaid"},
	"naproxen":      {"naproxen", "aleve", "naprosyn", "nsaid"},
	"aspirin":       {"aspirin", "asa", "ecotrin", "bayer"},
	"acetaminophen": {"acetaminophen", "tylenol", "paracetamol"},
	"sertraline":    {"sertraline", "zoloft", "ssri"},
	"fluoxetine":    {"fluoxetine", "prozac", "ssri"},
	"phenelzine":    {"phenelzine", "nardil", "maoi"},
	"tranylcypromine": {"tranylcypromine", "parnate", "maoi"},
	"sildenafil":    {"sildenafil", "viagra", "revatio"},
	"nitroglycerin": {"nitroglycerin", "nitrostat", "nitrate"},
	"simvastatin":   {"simvastatin", "zocor", "statin"},
	"atorvastatin":  {"atorvastatin", "lipitor", "statin"},
	"clarithromycin": {"clarithromycin", "biaxin"},
	"metformin":     {"metformin", "glucophage"},
	"lisinopril":    {"lisinopril", "prinivil", "zestril", "ace inhibitor"},
	"digoxin":       {"digoxin", "lanoxin"},
	"amiodarone":    {"amiodarone", "cordarone", "pacerone"},
	"methotrexate":  {"methotrexate", "trexall", "otrexup"},
	"tramadol":      {"tramadol", "ultram", "conzip"},
	"amoxicillin":   {"amoxicillin", "amoxil", "penicillin"},
	"diazepam":      {"diazepam", "valium", "benzodiazepine"},
	"lorazepam":     {"lorazepam", "ativan", "benzodiazepine"},
	"hydrochlorothiazide": {"hydrochlorothiazide", "hctz", "microzide", "thiazide"},
	"furosemide":    {"furosemide", "lasix"},
	"prednisone":    {"prednisone", "deltasone", "corticosteroid"},
	"levothyroxine": {"levothyroxine", "synthroid", "levoxyl"},
	"omeprazole":    {"omeprazole", "prilosec"},
	"clopidogrel":   {"clopidogrel", "plavix"},
	"spironolactone": {"spironolactone", "aldactone"},
	"potassium":     {"potassium", "potassium chloride", "klor con"},
}

// AliasGroups returns the alias reference table. Callers must treat the
// returned map as read-only.
func AliasGroups() map[string][]string {
	return aliasGroups
}
