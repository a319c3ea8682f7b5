// Package detectors holds the rule-based special detectors: pacing rhythm,
// electrical axis, brady/tachycardia and low QRS voltage. Every detector is
// a pure function of its inputs.
package detectors

import (
	"fmt"
	"strings"

	"github.com/maastricht-university/ecg-pipeline/ecg"
)

type AxisLabel int

const (
	AxisNormal AxisLabel = iota // also covers extreme axis, which is not distinguished
	AxisLAD
	AxisRAD
)

func (a AxisLabel) String() string {
	switch a {
	case AxisLAD:
		return "LAD"
	case AxisRAD:
		return "RAD"
	}
	return "normal"
}

func (a AxisLabel) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *AxisLabel) UnmarshalText(b []byte) error {
	switch string(b) {
	case "normal":
		*a = AxisNormal
	case "LAD":
		*a = AxisLAD
	case "RAD":
		*a = AxisRAD
	default:
		return fmt.Errorf("unknown axis label %q", b)
	}
	return nil
}

type RateLabel int

const (
	RateNormal RateLabel = iota
	Tachycardia
	Bradycardia
)

func (r RateLabel) String() string {
	switch r {
	case Tachycardia:
		return "Tachycardia"
	case Bradycardia:
		return "Bradycardia"
	}
	return "Normal"
}

func (r RateLabel) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *RateLabel) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Normal":
		*r = RateNormal
	case "Tachycardia":
		*r = Tachycardia
	case "Bradycardia":
		*r = Bradycardia
	default:
		return fmt.Errorf("unknown rate label %q", b)
	}
	return nil
}

// AxisMethod selects the lead combination used to decide the axis.
type AxisMethod int

const (
	TwoLead   AxisMethod = iota // I and aVF
	ThreeLead                   // I, II and aVF
)

func (m AxisMethod) String() string {
	if m == ThreeLead {
		return "3-lead"
	}
	return "2-lead"
}

func ParseAxisMethod(s string) (AxisMethod, error) {
	switch strings.ToLower(s) {
	case "2-lead":
		return TwoLead, nil
	case "3-lead":
		return ThreeLead, nil
	}
	return 0, fmt.Errorf("%w: axis method %q", ecg.ErrUnsupportedMethod, s)
}
