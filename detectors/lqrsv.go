package detectors

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/maastricht-university/ecg-pipeline/config"
	"github.com/maastricht-university/ecg-pipeline/ecg"
)

// LQRSVResult carries the fraction of low-amplitude QRS windows per lead
// group. Both ratios lie in [0, 1].
type LQRSVResult struct {
	LimbRatio       float64 `json:"limb_ratio"`
	PrecordialRatio float64 `json:"precordial_ratio"`
	IsLQRSV         bool    `json:"is_lqrsv"`
}

// LowQRSVoltage reports low QRS voltage: in at least cfg.RatioThreshold of
// the (lead, QRS window) pairs of the limb or of the precordial group the
// peak absolute amplitude stays at or below the group ceiling.
func LowQRSVoltage(w ecg.Waveform, peaks []int, fs float64, cfg config.LQRSV) (bool, error) {
	res, err := LowQRSVoltageRatios(w, peaks, fs, cfg)
	return res.IsLQRSV, err
}

func LowQRSVoltageRatios(w ecg.Waveform, peaks []int, fs float64, cfg config.LQRSV) (LQRSVResult, error) {
	if err := w.RequireStandard(); err != nil {
		return LQRSVResult{}, err
	}
	if !(fs > 0) {
		return LQRSVResult{}, fmt.Errorf("invalid sampling frequency %v", fs)
	}
	if err := ecg.ValidatePeaks(peaks, w.Len()); err != nil {
		return LQRSVResult{}, err
	}
	mv := w.Millivolts()
	qrs := ecg.Windows(peaks, ecg.MsToSamples(cfg.QRSRadiusMs, fs), mv.Len())

	res := LQRSVResult{
		LimbRatio:       lowRatio(mv, ecg.LimbLeads, qrs, cfg.LimbCeilingMv+cfg.BiasMv),
		PrecordialRatio: lowRatio(mv, ecg.PrecordialLeads, qrs, cfg.PrecordialCeilingMv+cfg.BiasMv),
	}
	res.IsLQRSV = res.LimbRatio >= cfg.RatioThreshold || res.PrecordialRatio >= cfg.RatioThreshold
	return res, nil
}

func lowRatio(w ecg.Waveform, leads []ecg.Lead, windows []ecg.Interval, ceiling float64) float64 {
	low, total := 0, 0
	for _, l := range leads {
		x := w.Lead(l)
		for _, iv := range windows {
			if peakAbs(iv.Slice(x)) <= ceiling {
				low++
			}
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(low) / float64(total)
}

func peakAbs(seg []float64) float64 {
	return math.Max(floats.Max(seg), -floats.Min(seg))
}
