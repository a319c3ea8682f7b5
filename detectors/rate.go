package detectors

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/maastricht-university/ecg-pipeline/config"
	"github.com/maastricht-university/ecg-pipeline/ecg"
)

// Rate classifies the mean R-R interval. normalRR, when given, holds at
// least two bounds in ms whose smallest and largest values replace the
// configured tachycardia and bradycardia thresholds.
//
// The mean is Tachycardia at or below the lower bound, Bradycardia strictly
// above the upper bound and Normal in between.
func Rate(peaks []int, fs float64, normalRR []float64, cfg config.Rate) (RateLabel, error) {
	if len(peaks) < 2 {
		return RateNormal, fmt.Errorf("%w: got %d, need 2", ecg.ErrInsufficientPeaks, len(peaks))
	}
	if !(fs > 0) {
		return RateNormal, fmt.Errorf("invalid sampling frequency %v", fs)
	}
	if err := ecg.ValidatePeaks(peaks, math.MaxInt); err != nil {
		return RateNormal, err
	}
	bounds := []float64{cfg.TachyThresholdMs, cfg.BradyThresholdMs}
	if normalRR != nil {
		if len(normalRR) < 2 {
			return RateNormal, fmt.Errorf("normal rr range needs 2 bounds, got %d", len(normalRR))
		}
		bounds = append([]float64(nil), normalRR...)
	}
	sort.Float64s(bounds)
	lower := float64(ecg.MsToSamples(bounds[0], fs))
	upper := float64(ecg.MsToSamples(bounds[len(bounds)-1], fs))

	switch mean := MeanRR(peaks); {
	case mean <= lower:
		return Tachycardia, nil
	case mean > upper:
		return Bradycardia, nil
	}
	return RateNormal, nil
}

// MeanRR is the average distance between successive peaks, in samples.
func MeanRR(peaks []int) float64 {
	if len(peaks) < 2 {
		return math.NaN()
	}
	rr := make([]float64, len(peaks)-1)
	for i := range rr {
		rr[i] = float64(peaks[i+1] - peaks[i])
	}
	return stat.Mean(rr, nil)
}

// HeartRate converts a mean R-R interval in samples into beats per minute.
func HeartRate(meanRR, fs float64) float64 {
	return 60 * fs / meanRR
}
