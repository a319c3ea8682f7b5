package ecg

import (
	"fmt"
	"math"
	"sort"
)

// MsToSamples converts a duration to a whole number of samples, rounding
// down.
func MsToSamples(ms, fs float64) int {
	return int(math.Floor(ms * fs / 1000))
}

// SamplesToMs converts a sample count to milliseconds.
func SamplesToMs(n, fs float64) float64 {
	return n * 1000 / fs
}

// ValidatePeaks checks that peaks is non-empty, strictly increasing and
// inside [0, n).
func ValidatePeaks(peaks []int, n int) error {
	if len(peaks) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidPeakSet)
	}
	for i, p := range peaks {
		if p < 0 || p >= n {
			return fmt.Errorf("%w: index %d (=%d) outside [0, %d)", ErrInvalidPeakSet, i, p, n)
		}
		if i > 0 && p <= peaks[i-1] {
			return fmt.Errorf("%w: index %d (=%d) not after %d", ErrInvalidPeakSet, i, p, peaks[i-1])
		}
	}
	return nil
}

// Windows builds one interval of the given radius around every critical
// point, clipped to [0, n).
func Windows(points []int, radius, n int) []Interval {
	out := make([]Interval, 0, len(points))
	for _, p := range points {
		out = append(out, Interval{Start: max(0, p-radius), End: min(n-1, p+radius)})
	}
	return out
}

// PeakOptions mirrors the knobs of the classic detect_peaks routine.
// Zero values disable the corresponding filter.
type PeakOptions struct {
	MinHeight      float64 // mph
	MinDistance    int     // mpd, samples
	MinProminence  float64
	ProminenceWlen int // samples; < 2 searches the whole signal
}

// DetectPeaks returns the indices of local maxima (rising edge, endpoints
// excluded) that pass the height, distance and prominence filters, in
// increasing order. When two peaks are closer than MinDistance the higher
// one wins.
func DetectPeaks(x []float64, opt PeakOptions) []int {
	n := len(x)
	if n < 3 {
		return nil
	}
	var ind []int
	for i := 1; i < n-1; i++ {
		if x[i]-x[i-1] > 0 && x[i+1]-x[i] <= 0 {
			ind = append(ind, i)
		}
	}
	if opt.MinHeight != 0 {
		kept := ind[:0]
		for _, i := range ind {
			if x[i] >= opt.MinHeight {
				kept = append(kept, i)
			}
		}
		ind = kept
	}
	if len(ind) > 1 && opt.MinDistance > 1 {
		ind = enforceDistance(x, ind, opt.MinDistance)
	}
	if opt.MinProminence > 0 && len(ind) > 0 {
		prom := PeakProminences(x, ind, opt.ProminenceWlen)
		kept := ind[:0]
		for k, i := range ind {
			if prom[k] >= opt.MinProminence {
				kept = append(kept, i)
			}
		}
		ind = kept
	}
	return ind
}

// enforceDistance walks peaks from tallest to shortest; each surviving
// peak suppresses every neighbour within mpd samples. ind is sorted by
// position.
func enforceDistance(x []float64, ind []int, mpd int) []int {
	order := make([]int, len(ind))
	for k := range order {
		order[k] = k
	}
	sort.SliceStable(order, func(a, b int) bool { return x[ind[order[a]]] > x[ind[order[b]]] })
	removed := make([]bool, len(ind))
	for _, k := range order {
		if removed[k] {
			continue
		}
		for j := k - 1; j >= 0 && ind[j] >= ind[k]-mpd; j-- {
			removed[j] = true
		}
		for j := k + 1; j < len(ind) && ind[j] <= ind[k]+mpd; j++ {
			removed[j] = true
		}
	}
	out := make([]int, 0, len(ind))
	for k, i := range ind {
		if !removed[k] {
			out = append(out, i)
		}
	}
	return out
}

// PeakProminences computes, for each peak, its height above the higher of
// the two lowest points reached on either side before meeting a taller
// sample or the edge of a wlen-sample window centred on the peak.
func PeakProminences(x []float64, peaks []int, wlen int) []float64 {
	out := make([]float64, len(peaks))
	for k, p := range peaks {
		lo, hi := 0, len(x)-1
		if wlen >= 2 {
			lo = max(lo, p-wlen/2)
			hi = min(hi, p+wlen/2)
		}
		leftMin := x[p]
		for i := p; i >= lo && x[i] <= x[p]; i-- {
			leftMin = math.Min(leftMin, x[i])
		}
		rightMin := x[p]
		for i := p; i <= hi && x[i] <= x[p]; i++ {
			rightMin = math.Min(rightMin, x[i])
		}
		out[k] = x[p] - math.Max(leftMin, rightMin)
	}
	return out
}
