package ecg

import (
	"fmt"
	"math"
)

func unitScale(u Units) float64 {
	if u == Microvolt {
		return 1000
	}
	return 1
}

// LoadPhysical converts digitised samples into a calibrated waveform:
//
//	physical = (digital - baseline) / gain * t.CorrectionFactor()
//
// scaled by 1000 when units is µV. gain and baseline hold one value per
// lead. The input is never modified.
func LoadPhysical(digital [][]float64, gain, baseline []float64, t Tranche, units Units, layout Layout) (Waveform, error) {
	if !t.valid() {
		return Waveform{}, fmt.Errorf("%w %d", ErrUnknownTranche, byte(t))
	}
	data, err := layout.ToChannelFirst(digital)
	if err != nil {
		return Waveform{}, err
	}
	if len(data) == 0 {
		return Waveform{}, fmt.Errorf("%w: no leads in digital samples", ErrMalformedWaveform)
	}
	if len(gain) < len(data) {
		return Waveform{}, fmt.Errorf("%w: %d gains for %d leads", ErrCalibration, len(gain), len(data))
	}
	if len(baseline) < len(data) {
		return Waveform{}, fmt.Errorf("%w: %d baselines for %d leads", ErrCalibration, len(baseline), len(data))
	}

	k := t.CorrectionFactor() * unitScale(units)
	out := Waveform{Fs: t.NativeFs(), Units: units, Signals: make([][]float64, len(data))}
	for i, lead := range data {
		g := gain[i]
		if g == 0 || math.IsNaN(g) || math.IsInf(g, 0) {
			return Waveform{}, fmt.Errorf("%w: lead %d has gain %v", ErrCalibration, i, g)
		}
		if len(lead) != len(data[0]) {
			return Waveform{}, fmt.Errorf("%w: lead %d has %d samples, lead 0 has %d", ErrMalformedWaveform, i, len(lead), len(data[0]))
		}
		phys := make([]float64, len(lead))
		for j, d := range lead {
			phys[j] = (d - baseline[i]) / g * k
		}
		out.Signals[i] = phys
	}
	return out, nil
}

// ToDigital inverts LoadPhysical for the same calibration constants.
func ToDigital(w Waveform, gain, baseline []float64, t Tranche) ([][]float64, error) {
	if len(gain) < w.NumLeads() || len(baseline) < w.NumLeads() {
		return nil, fmt.Errorf("%w: calibration for %d leads required", ErrCalibration, w.NumLeads())
	}
	k := t.CorrectionFactor() * unitScale(w.Units)
	out := make([][]float64, w.NumLeads())
	for i, lead := range w.Signals {
		if gain[i] == 0 {
			return nil, fmt.Errorf("%w: lead %d has gain 0", ErrCalibration, i)
		}
		d := make([]float64, len(lead))
		for j, p := range lead {
			d[j] = p/k*gain[i] + baseline[i]
		}
		out[i] = d
	}
	return out, nil
}
