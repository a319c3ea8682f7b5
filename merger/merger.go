// Package merger combines the rule-based detector verdicts with the learned
// classifier's per-class probabilities into one multi-label diagnosis.
package merger

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/maastricht-university/ecg-pipeline/config"
	"github.com/maastricht-university/ecg-pipeline/detectors"
	"github.com/maastricht-university/ecg-pipeline/record"
)

// DLClasses is the output ordering of the learned classifier.
var DLClasses = []string{
	"IAVB", "AF", "AFL", "IRBBB", "LAnFB", "LBBB", "NSIVCB", "PAC", "PVC",
	"LPR", "LQT", "QAb", "RBBB", "SA", "SB", "NSR", "STach", "TAb", "TInv",
}

// SpecialClasses are decided by the detector bank alone.
var SpecialClasses = []string{"Brady", "LAD", "RAD", "PR", "LQRSV"}

// FullClasses orders every output vector of the merger.
var FullClasses = append(append([]string{}, DLClasses...), SpecialClasses...)

// ClassScores is one classifier output: probabilities aligned with Classes.
// Classes may be a subset of DLClasses (tranche-specific models).
type ClassScores struct {
	Classes       []string  `json:"classes"`
	Probabilities []float64 `json:"probabilities"`
}

// Diagnosis is the merged result over FullClasses.
type Diagnosis struct {
	Classes []string  `json:"classes"`
	Scores  []float64 `json:"scores"`
	Labels  []int     `json:"labels"`
}

// Positive lists the abbreviations whose label is set.
func (d Diagnosis) Positive() []string {
	var out []string
	for i, l := range d.Labels {
		if l == 1 {
			out = append(out, d.Classes[i])
		}
	}
	return out
}

// Codes maps the positive labels to SNOMED CT codes.
func (d Diagnosis) Codes() []string {
	var out []string
	for _, abbr := range d.Positive() {
		if c, ok := record.ClassByAbbr(abbr); ok {
			out = append(out, c.Code)
		}
	}
	return out
}

// RuleVector places the detector verdicts in their FullClasses slots.
func RuleVector(v detectors.Verdicts) []float64 {
	out := make([]float64, len(FullClasses))
	set := func(class string, on bool) {
		if on {
			out[index(FullClasses, class)] = 1
		}
	}
	set("Brady", v.IsBrady())
	set("LAD", v.IsLAD())
	set("RAD", v.IsRAD())
	set("PR", v.PR)
	set("LQRSV", v.LQRSV)
	return out
}

// Extend copies scores ordered by from into a vector ordered by to. Classes
// of to missing from from score 0; classes of from missing from to are
// dropped.
func Extend(scores []float64, from, to []string) ([]float64, error) {
	if len(scores) != len(from) {
		return nil, fmt.Errorf("%d scores for %d classes", len(scores), len(from))
	}
	out := make([]float64, len(to))
	for i, c := range from {
		if j := index(to, c); j >= 0 {
			out[j] = scores[i]
		}
	}
	return out, nil
}

// Binarize thresholds classifier scores ordered by classes.
//
// When even the top score is below NSRThreshold the recording is called
// normal sinus rhythm. Otherwise, if no class reaches Threshold, every class
// within LookAgainTolerance of the top score that also reaches
// NSRThreshold is accepted.
func Binarize(scores []float64, classes []string, cfg config.Merger) []int {
	out := make([]int, len(scores))
	if len(scores) == 0 {
		return out
	}
	passed := false
	for i, s := range scores {
		if s >= cfg.Threshold {
			out[i] = 1
			passed = true
		}
	}
	top := floats.Max(scores)
	nsr := index(classes, "NSR")
	switch {
	case top < cfg.NSRThreshold && nsr >= 0:
		out[nsr] = 1
	case !passed:
		for i, s := range scores {
			if s+cfg.LookAgainTolerance >= top && s >= cfg.NSRThreshold {
				out[i] = 1
			}
		}
	}
	return out
}

// Merge takes the elementwise maximum of the rule flags and the thresholded
// classifier outputs. Several outputs are first reduced by elementwise
// maximum over DLClasses. With no outputs only the rule flags remain.
func Merge(v detectors.Verdicts, outputs []ClassScores, cfg config.Merger) (Diagnosis, error) {
	rule := RuleVector(v)
	d := Diagnosis{
		Classes: append([]string(nil), FullClasses...),
		Scores:  append([]float64(nil), rule...),
		Labels:  make([]int, len(FullClasses)),
	}
	for i, r := range rule {
		d.Labels[i] = int(r)
	}
	if len(outputs) == 0 {
		return d, nil
	}

	dl := make([]float64, len(DLClasses))
	for k, o := range outputs {
		ext, err := Extend(o.Probabilities, o.Classes, DLClasses)
		if err != nil {
			return Diagnosis{}, fmt.Errorf("classifier output %d: %w", k, err)
		}
		for i, p := range ext {
			dl[i] = max(dl[i], p)
		}
	}
	bin := Binarize(dl, DLClasses, cfg)
	for i, c := range DLClasses {
		j := index(FullClasses, c)
		d.Scores[j] = max(d.Scores[j], dl[i])
		d.Labels[j] = max(d.Labels[j], bin[i])
	}
	return d, nil
}

func index(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
