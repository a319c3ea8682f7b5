package detectors

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/maastricht-university/ecg-pipeline/config"
	"github.com/maastricht-university/ecg-pipeline/ecg"
)

// ElectricalAxis classifies the heart axis from the polarity of the QRS
// complexes in leads I, II and aVF. An empty method falls back to
// cfg.Method. Extreme axis is reported as AxisNormal.
func ElectricalAxis(w ecg.Waveform, peaks []int, fs float64, method string, cfg config.Axis) (AxisLabel, error) {
	if method == "" {
		method = cfg.Method
	}
	m, err := ParseAxisMethod(method)
	if err != nil {
		return AxisNormal, err
	}
	if err := w.RequireStandard(); err != nil {
		return AxisNormal, err
	}
	if !(fs > 0) {
		return AxisNormal, fmt.Errorf("invalid sampling frequency %v", fs)
	}
	if err := ecg.ValidatePeaks(peaks, w.Len()); err != nil {
		return AxisNormal, err
	}

	qrs := ecg.Windows(peaks, ecg.MsToSamples(cfg.QRSRadiusMs, fs), w.Len())
	iPos := positive(w.Lead(ecg.LeadI), qrs)
	aVFPos := positive(w.Lead(ecg.LeadAVF), qrs)

	switch m {
	case ThreeLead:
		iiPos := positive(w.Lead(ecg.LeadII), qrs)
		if iPos && !iiPos && !aVFPos {
			return AxisLAD, nil
		}
	default:
		if iPos && !aVFPos {
			return AxisLAD, nil
		}
	}
	if !iPos && aVFPos {
		return AxisRAD, nil
	}
	return AxisNormal, nil
}

// positive reports whether a strict majority of windows deflect net
// upwards. With an even window count exactly half is not a majority.
func positive(x []float64, windows []ecg.Interval) bool {
	up := 0
	for _, iv := range windows {
		seg := iv.Slice(x)
		if hi, lo := floats.Max(seg), floats.Min(seg); hi > -lo {
			up++
		}
	}
	return up > len(windows)/2
}
