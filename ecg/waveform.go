package ecg

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Waveform is a calibrated recording in lead-major (channel-first) layout.
// Signals[i] holds the samples of the i-th lead in canonical order.
type Waveform struct {
	Signals [][]float64 `json:"signals"`
	Fs      float64     `json:"fs"`
	Units   Units       `json:"units"`
}

// Len is the number of samples per lead.
func (w Waveform) Len() int {
	if len(w.Signals) == 0 {
		return 0
	}
	return len(w.Signals[0])
}

// NumLeads is the number of channels carried.
func (w Waveform) NumLeads() int { return len(w.Signals) }

// Lead returns the samples of lead l. The waveform must carry the 12
// standard leads.
func (w Waveform) Lead(l Lead) []float64 { return w.Signals[l] }

// DurationMs is the recording length in milliseconds.
func (w Waveform) DurationMs() float64 { return SamplesToMs(float64(w.Len()), w.Fs) }

// Validate checks the structural invariants: positive frequency, at least
// one lead, equal lead lengths.
func (w Waveform) Validate() error {
	if !(w.Fs > 0) || math.IsInf(w.Fs, 0) {
		return fmt.Errorf("invalid sampling frequency %v", w.Fs)
	}
	if len(w.Signals) == 0 {
		return fmt.Errorf("%w: no leads", ErrMalformedWaveform)
	}
	n := len(w.Signals[0])
	for i, s := range w.Signals {
		if len(s) != n {
			return fmt.Errorf("%w: lead %d has %d samples, lead 0 has %d", ErrMalformedWaveform, i, len(s), n)
		}
	}
	return nil
}

// RequireStandard validates w and checks it carries exactly the 12
// standard leads.
func (w Waveform) RequireStandard() error {
	if err := w.Validate(); err != nil {
		return err
	}
	if len(w.Signals) != NumLeads {
		return fmt.Errorf("%w: expected %d leads, got %d", ErrMalformedWaveform, NumLeads, len(w.Signals))
	}
	if w.Len() == 0 {
		return fmt.Errorf("%w: empty", ErrMalformedWaveform)
	}
	return nil
}

// Clone deep-copies the sample arrays.
func (w Waveform) Clone() Waveform {
	out := Waveform{Fs: w.Fs, Units: w.Units, Signals: make([][]float64, len(w.Signals))}
	for i, s := range w.Signals {
		out.Signals[i] = append([]float64(nil), s...)
	}
	return out
}

// Scale returns a copy with every sample multiplied by k.
func (w Waveform) Scale(k float64) Waveform {
	out := w.Clone()
	for _, s := range out.Signals {
		floats.Scale(k, s)
	}
	return out
}

// Millivolts returns w expressed in mV. A waveform already in mV is
// returned unchanged.
func (w Waveform) Millivolts() Waveform {
	if w.Units == Millivolt {
		return w
	}
	out := w.Scale(1.0 / 1000)
	out.Units = Millivolt
	return out
}

// maxMillivolt bounds the range of any ECG front end; larger magnitudes
// mean the samples are in µV.
const maxMillivolt = 20.0

// InferUnits guesses the units of baseline-corrected samples.
func InferUnits(signals [][]float64) Units {
	peak := 0.0
	for _, s := range signals {
		for _, v := range s {
			peak = math.Max(peak, math.Abs(v))
		}
	}
	if peak > maxMillivolt {
		return Microvolt
	}
	return Millivolt
}
