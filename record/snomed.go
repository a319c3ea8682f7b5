package record

import "strings"

// Class is one scored diagnosis: abbreviation, SNOMED CT code and name.
type Class struct {
	Abbr string `json:"abbr"`
	Code string `json:"code"`
	Name string `json:"name"`
}

var scored = []Class{
	{"IAVB", "270492004", "1st degree av block"},
	{"AF", "164889003", "atrial fibrillation"},
	{"AFL", "164890007", "atrial flutter"},
	{"Brady", "426627000", "bradycardia"},
	{"CRBBB", "713427006", "complete right bundle branch block"},
	{"IRBBB", "713426002", "incomplete right bundle branch block"},
	{"LAnFB", "445118002", "left anterior fascicular block"},
	{"LAD", "39732003", "left axis deviation"},
	{"LBBB", "164909002", "left bundle branch block"},
	{"LQRSV", "251146004", "low qrs voltages"},
	{"NSIVCB", "698252002", "nonspecific intraventricular conduction disorder"},
	{"PR", "10370003", "pacing rhythm"},
	{"PAC", "284470004", "premature atrial contraction"},
	{"PVC", "427172004", "premature ventricular contractions"},
	{"LPR", "164947007", "prolonged pr interval"},
	{"LQT", "111975006", "prolonged qt interval"},
	{"QAb", "164917005", "qwave abnormal"},
	{"RAD", "47665007", "right axis deviation"},
	{"RBBB", "59118001", "right bundle branch block"},
	{"SA", "427393009", "sinus arrhythmia"},
	{"SB", "426177001", "sinus bradycardia"},
	{"NSR", "426783006", "sinus rhythm"},
	{"STach", "427084000", "sinus tachycardia"},
	{"SVPB", "63593006", "supraventricular premature beats"},
	{"TAb", "164934002", "t wave abnormal"},
	{"TInv", "59931005", "t wave inversion"},
	{"VPB", "17338001", "ventricular premature beats"},
}

// equivalent classes are scored as one; the key is folded onto the value.
var equivalent = map[string]string{
	"CRBBB": "RBBB",
	"SVPB":  "PAC",
	"VPB":   "PVC",
}

var (
	byCode = map[string]Class{}
	byAbbr = map[string]Class{}
)

func init() {
	for _, c := range scored {
		byCode[c.Code] = c
		byAbbr[strings.ToLower(c.Abbr)] = c
	}
}

// Canonical folds equivalent abbreviations (CRBBB -> RBBB, ...).
func Canonical(abbr string) string {
	if to, ok := equivalent[abbr]; ok {
		return to
	}
	return abbr
}

// ClassByCode looks up a SNOMED CT code, folding equivalent classes.
func ClassByCode(code string) (Class, bool) {
	c, ok := byCode[strings.TrimSpace(code)]
	if !ok {
		return Class{}, false
	}
	return byAbbr[strings.ToLower(Canonical(c.Abbr))], true
}

// ClassByAbbr looks up an abbreviation (case-insensitive), folding
// equivalent classes.
func ClassByAbbr(abbr string) (Class, bool) {
	c, ok := byAbbr[strings.ToLower(strings.TrimSpace(abbr))]
	if !ok {
		return Class{}, false
	}
	return byAbbr[strings.ToLower(Canonical(c.Abbr))], true
}
