// Package rpeaks locates R-peaks on single leads and merges per-lead
// detections into one consensus sequence.
package rpeaks

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/maastricht-university/ecg-pipeline/ecg"
)

// Locator finds R-peak sample indices on one lead. Results are strictly
// increasing; an empty result is not an error.
type Locator interface {
	Locate(x []float64, fs float64) ([]int, error)
}

// LocatorFunc adapts a plain function to Locator.
type LocatorFunc func(x []float64, fs float64) ([]int, error)

func (f LocatorFunc) Locate(x []float64, fs float64) ([]int, error) { return f(x, fs) }

// EnergyLocator marks QRS complexes where the smoothed squared slope rises
// above ThresholdK times its maximum, then takes the largest absolute
// deflection inside each marked region. Crossings within RefractoryMs of the
// previous beat are ignored.
type EnergyLocator struct {
	ThresholdK   float64
	RefractoryMs float64
	WindowMs     float64 // smoothing window; 0 means 100 ms
}

func NewEnergyLocator(thresholdK, refractoryMs float64) EnergyLocator {
	return EnergyLocator{ThresholdK: thresholdK, RefractoryMs: refractoryMs, WindowMs: 100}
}

func (l EnergyLocator) Locate(x []float64, fs float64) ([]int, error) {
	if !(fs > 0) {
		return nil, fmt.Errorf("invalid sampling frequency %v", fs)
	}
	if l.ThresholdK <= 0 || l.ThresholdK >= 1 {
		return nil, fmt.Errorf("threshold factor %v outside (0, 1)", l.ThresholdK)
	}
	n := len(x)
	if n < 3 {
		return nil, nil
	}
	winMs := l.WindowMs
	if winMs <= 0 {
		winMs = 100
	}

	slope := make([]float64, n)
	for i := 1; i < n-1; i++ {
		d := (x[i+1] - x[i-1]) / 2
		slope[i] = d * d
	}
	energy := movingAverage(slope, max(1, ecg.MsToSamples(winMs, fs)))
	top := floats.Max(energy)
	if top == 0 {
		return nil, nil
	}
	thr := l.ThresholdK * top
	refractory := ecg.MsToSamples(l.RefractoryMs, fs)

	var peaks []int
	for i := 0; i < n; {
		if energy[i] < thr {
			i++
			continue
		}
		start := i
		for i < n && energy[i] >= thr {
			i++
		}
		p := argmaxAbs(x, start, i)
		if len(peaks) > 0 && p-peaks[len(peaks)-1] <= refractory {
			// keep the larger of two beats inside the refractory period
			if math.Abs(x[p]) > math.Abs(x[peaks[len(peaks)-1]]) {
				peaks[len(peaks)-1] = p
			}
			continue
		}
		peaks = append(peaks, p)
	}
	return peaks, nil
}

// movingAverage is a centred running mean of width w.
func movingAverage(x []float64, w int) []float64 {
	n := len(x)
	prefix := make([]float64, n+1)
	for i, v := range x {
		prefix[i+1] = prefix[i] + v
	}
	out := make([]float64, n)
	half := w / 2
	for i := range out {
		lo, hi := max(0, i-half), min(n, i-half+w)
		out[i] = (prefix[hi] - prefix[lo]) / float64(hi-lo)
	}
	return out
}

func argmaxAbs(x []float64, lo, hi int) int {
	best := lo
	for i := lo + 1; i < hi; i++ {
		if math.Abs(x[i]) > math.Abs(x[best]) {
			best = i
		}
	}
	return best
}
