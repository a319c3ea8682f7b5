package ecg

import (
	"fmt"
	"strings"
)

// Tranche identifies one of the six sub-datasets, each with its own
// acquisition hardware and calibration.
type Tranche byte

const (
	TrancheA Tranche = 'A'
	TrancheB Tranche = 'B'
	TrancheC Tranche = 'C'
	TrancheD Tranche = 'D'
	TrancheE Tranche = 'E'
	TrancheF Tranche = 'F'
)

var Tranches = []Tranche{TrancheA, TrancheB, TrancheC, TrancheD, TrancheE, TrancheF}

func ParseTranche(s string) (Tranche, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) == 1 {
		t := Tranche(s[0])
		if t.valid() {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownTranche, s)
}

func (t Tranche) valid() bool { return t >= TrancheA && t <= TrancheF }

func (t Tranche) String() string { return string(rune(t)) }

func (t Tranche) MarshalText() ([]byte, error) { return []byte{byte(t)}, nil }

func (t *Tranche) UnmarshalText(b []byte) error {
	v, err := ParseTranche(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// NativeFs is the sampling frequency (Hz) of every record in the tranche.
func (t Tranche) NativeFs() float64 {
	switch t {
	case TrancheA, TrancheB, TrancheE, TrancheF:
		return 500
	case TrancheC:
		return 257
	case TrancheD:
		return 1000
	}
	panic(fmt.Sprintf("ecg: invalid tranche %d", byte(t)))
}

// CorrectionFactor rescales physical values. Tranche F headers carry an
// ADC gain of 4880 where 1000 is correct.
func (t Tranche) CorrectionFactor() float64 {
	switch t {
	case TrancheA, TrancheB, TrancheC, TrancheD, TrancheE:
		return 1
	case TrancheF:
		return 4.88
	}
	panic(fmt.Sprintf("ecg: invalid tranche %d", byte(t)))
}

// Source names the database the tranche was drawn from.
func (t Tranche) Source() string {
	switch t {
	case TrancheA:
		return "CPSC"
	case TrancheB:
		return "CPSC-Extra"
	case TrancheC:
		return "StPetersburg"
	case TrancheD:
		return "PTB"
	case TrancheE:
		return "PTB-XL"
	case TrancheF:
		return "Georgia"
	}
	panic(fmt.Sprintf("ecg: invalid tranche %d", byte(t)))
}

// RecordPrefix is the leading part of record names in the tranche.
func (t Tranche) RecordPrefix() string {
	switch t {
	case TrancheA:
		return "A"
	case TrancheB:
		return "Q"
	case TrancheC:
		return "I"
	case TrancheD:
		return "S"
	case TrancheE:
		return "HR"
	case TrancheF:
		return "E"
	}
	panic(fmt.Sprintf("ecg: invalid tranche %d", byte(t)))
}

// TrancheOfRecord derives the tranche from a record name such as
// "A0001" or "HR00042".
func TrancheOfRecord(rec string) (Tranche, error) {
	prefix := strings.TrimRight(rec, "0123456789")
	for _, t := range Tranches {
		if prefix == t.RecordPrefix() {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: record %q matches no prefix", ErrUnknownTranche, rec)
}
