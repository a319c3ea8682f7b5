package ecg

import (
	"fmt"
	"strings"
)

// Lead is one of the 12 standard ECG channels, in canonical order.
type Lead int

const (
	LeadI Lead = iota
	LeadII
	LeadIII
	LeadAVR
	LeadAVL
	LeadAVF
	LeadV1
	LeadV2
	LeadV3
	LeadV4
	LeadV5
	LeadV6
)

// NumLeads is the size of a standard recording.
const NumLeads = 12

var leadNames = [NumLeads]string{"I", "II", "III", "aVR", "aVL", "aVF", "V1", "V2", "V3", "V4", "V5", "V6"}

var (
	StandardLeads   = []Lead{LeadI, LeadII, LeadIII, LeadAVR, LeadAVL, LeadAVF, LeadV1, LeadV2, LeadV3, LeadV4, LeadV5, LeadV6}
	LimbLeads       = []Lead{LeadI, LeadII, LeadIII, LeadAVR, LeadAVL, LeadAVF}
	PrecordialLeads = []Lead{LeadV1, LeadV2, LeadV3, LeadV4, LeadV5, LeadV6}
)

func (l Lead) String() string {
	if l < 0 || int(l) >= NumLeads {
		return fmt.Sprintf("Lead(%d)", int(l))
	}
	return leadNames[l]
}

// ParseLead is case-insensitive ("AVF" and "aVF" are the same lead).
func ParseLead(s string) (Lead, error) {
	for i, n := range leadNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return Lead(i), nil
		}
	}
	return 0, fmt.Errorf("unknown lead %q", s)
}

// Units of a calibrated waveform.
type Units int

const (
	Millivolt Units = iota
	Microvolt
)

func (u Units) String() string {
	if u == Microvolt {
		return "µV"
	}
	return "mV"
}

// ParseUnits accepts mV and the usual spellings of µV.
func ParseUnits(s string) (Units, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mv":
		return Millivolt, nil
	case "uv", "µv", "μv":
		return Microvolt, nil
	}
	return 0, fmt.Errorf("unknown units %q", s)
}

func (u Units) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *Units) UnmarshalText(b []byte) error {
	v, err := ParseUnits(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// Layout describes how a 2-D sample array is indexed.
type Layout int

const (
	ChannelFirst Layout = iota
	ChannelLast
)

func (l Layout) String() string {
	if l == ChannelLast {
		return "channel_last"
	}
	return "channel_first"
}

func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "channel_first", "lead_first":
		return ChannelFirst, nil
	case "channel_last", "lead_last":
		return ChannelLast, nil
	}
	return 0, fmt.Errorf("unknown layout %q", s)
}

func (l Layout) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Layout) UnmarshalText(b []byte) error {
	v, err := ParseLayout(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// ToChannelFirst returns data in lead-major order. Channel-first input is
// returned as is; channel-last input is transposed into fresh slices.
func (l Layout) ToChannelFirst(data [][]float64) ([][]float64, error) {
	if l == ChannelFirst || len(data) == 0 {
		return data, nil
	}
	nLeads := len(data[0])
	out := make([][]float64, nLeads)
	for c := range out {
		out[c] = make([]float64, len(data))
	}
	for t, row := range data {
		if len(row) != nLeads {
			return nil, fmt.Errorf("%w: ragged channel_last row %d: %d values, want %d", ErrMalformedWaveform, t, len(row), nLeads)
		}
		for c, v := range row {
			out[c][t] = v
		}
	}
	return out, nil
}

// Interval is an inclusive sample range, 0 <= Start <= End < signal length.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len is the number of samples covered.
func (iv Interval) Len() int { return iv.End - iv.Start + 1 }

// Slice returns the samples of x covered by iv.
func (iv Interval) Slice(x []float64) []float64 { return x[iv.Start : iv.End+1] }
