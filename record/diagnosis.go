package record

import (
	"fmt"
	"strings"
	"unicode"
)

type DiagnosisKind int

const (
	// Coded diagnoses carry a known SNOMED CT code.
	Coded DiagnosisKind = iota
	// AbbreviationOnly diagnoses come from headers that list abbreviations
	// or codes outside the scored table.
	AbbreviationOnly
)

func (k DiagnosisKind) String() string {
	if k == AbbreviationOnly {
		return "abbreviation"
	}
	return "coded"
}

func (k DiagnosisKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *DiagnosisKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "coded":
		*k = Coded
	case "abbreviation":
		*k = AbbreviationOnly
	default:
		return fmt.Errorf("unknown diagnosis kind %q", b)
	}
	return nil
}

// Diagnosis is the parsed form of one #Dx entry.
type Diagnosis struct {
	Kind DiagnosisKind `json:"kind"`
	Raw  string        `json:"raw"`
	Abbr string        `json:"abbr"`
	Code string        `json:"code,omitempty"`
	// Scored is false for entries matching nothing in the class table.
	Scored bool `json:"scored"`
}

// ParseDiagnosis resolves one entry. A known code yields Coded; anything
// else is kept as an abbreviation, matched against the table when
// possible.
func ParseDiagnosis(raw string) Diagnosis {
	raw = strings.TrimSpace(raw)
	if isDigits(raw) {
		if c, ok := ClassByCode(raw); ok {
			return Diagnosis{Kind: Coded, Raw: raw, Abbr: c.Abbr, Code: c.Code, Scored: true}
		}
	}
	d := Diagnosis{Kind: AbbreviationOnly, Raw: raw, Abbr: raw}
	if c, ok := ClassByAbbr(raw); ok {
		d.Abbr, d.Scored = c.Abbr, true
	}
	return d
}

// ParseDiagnoses splits a comma separated #Dx value and drops duplicates
// after equivalence folding.
func ParseDiagnoses(dx string) []Diagnosis {
	var out []Diagnosis
	seen := map[string]bool{}
	for _, f := range strings.Split(dx, ",") {
		if strings.TrimSpace(f) == "" {
			continue
		}
		d := ParseDiagnosis(f)
		if seen[d.Abbr] {
			continue
		}
		seen[d.Abbr] = true
		out = append(out, d)
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
