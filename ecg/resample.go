package ecg

import (
	"fmt"
	"math"
)

// SlicePolicy picks the sub-window kept when a resampled signal is longer
// than the requested length. Both policies are deterministic.
type SlicePolicy int

const (
	SliceCenter SlicePolicy = iota
	SliceHead
)

func ParseSlicePolicy(s string) (SlicePolicy, error) {
	switch s {
	case "", "center":
		return SliceCenter, nil
	case "head":
		return SliceHead, nil
	}
	return 0, fmt.Errorf("unknown slice policy %q", s)
}

type resampleOpts struct {
	length int
	policy SlicePolicy
}

type ResampleOption func(*resampleOpts)

// WithLength requests exactly n samples per lead after resampling.
func WithLength(n int) ResampleOption { return func(o *resampleOpts) { o.length = n } }

// WithSlice sets the window selection used by WithLength.
func WithSlice(p SlicePolicy) ResampleOption { return func(o *resampleOpts) { o.policy = p } }

// Resample converts w to targetFs with a polyphase FIR filter. When the
// frequencies already match and no length is requested, w is returned
// unchanged.
func Resample(w Waveform, targetFs float64, opts ...ResampleOption) (Waveform, error) {
	var o resampleOpts
	for _, fn := range opts {
		fn(&o)
	}
	if err := w.Validate(); err != nil {
		return Waveform{}, err
	}
	if !(targetFs > 0) {
		return Waveform{}, fmt.Errorf("invalid target frequency %v", targetFs)
	}
	if o.length < 0 {
		return Waveform{}, fmt.Errorf("invalid target length %d", o.length)
	}

	out := w
	if targetFs != w.Fs {
		up, down := rationalRatio(w.Fs, targetFs)
		h := polyphaseTaps(up, down)
		out = Waveform{Fs: targetFs, Units: w.Units, Signals: make([][]float64, len(w.Signals))}
		for i, s := range w.Signals {
			out.Signals[i] = resamplePoly(s, up, down, h)
		}
	}
	if o.length == 0 {
		return out, nil
	}

	n := out.Len()
	if n < o.length {
		return Waveform{}, fmt.Errorf("%w: %d samples at %v Hz, need %d", ErrInsufficientLength, n, targetFs, o.length)
	}
	if n == o.length {
		return out, nil
	}
	start := 0
	if o.policy == SliceCenter {
		start = (n - o.length) / 2
	}
	sliced := Waveform{Fs: out.Fs, Units: out.Units, Signals: make([][]float64, len(out.Signals))}
	for i, s := range out.Signals {
		sliced.Signals[i] = append([]float64(nil), s[start:start+o.length]...)
	}
	return sliced, nil
}

// rationalRatio reduces dst/src to up/down. Frequencies are taken to a
// thousandth of a Hz, so integral frequencies are exact.
func rationalRatio(src, dst float64) (up, down int) {
	s := int64(math.Round(src * 1000))
	d := int64(math.Round(dst * 1000))
	g := gcd(s, d)
	return int(d / g), int(s / g)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

const kaiserBeta = 5.0

// polyphaseTaps designs the anti-aliasing low-pass used for an up/down
// conversion: a Kaiser-windowed sinc with cutoff 1/max(up,down) of
// Nyquist and passband gain up.
func polyphaseTaps(up, down int) []float64 {
	maxRate := up
	if down > maxRate {
		maxRate = down
	}
	halfLen := 10 * maxRate
	n := 2*halfLen + 1
	cutoff := 1.0 / float64(maxRate)

	h := make([]float64, n)
	sum := 0.0
	norm := besselI0(kaiserBeta)
	for i := range h {
		m := float64(i - halfLen)
		r := m / float64(halfLen)
		win := besselI0(kaiserBeta*math.Sqrt(1-r*r)) / norm
		h[i] = cutoff * sinc(cutoff*m) * win
		sum += h[i]
	}
	for i := range h {
		h[i] *= float64(up) / sum
	}
	return h
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// besselI0 is the zeroth-order modified Bessel function of the first kind.
func besselI0(x float64) float64 {
	sum, term := 1.0, 1.0
	q := x * x / 4
	for k := 1; k < 500; k++ {
		term *= q / float64(k*k)
		sum += term
		if term < sum*1e-17 {
			break
		}
	}
	return sum
}

// resamplePoly upsamples x by up, filters with h and keeps every down-th
// sample, aligning the filter delay so output sample k sits at input time
// k*down/up.
func resamplePoly(x []float64, up, down int, h []float64) []float64 {
	nOut := (len(x)*up + down - 1) / down
	halfLen := (len(h) - 1) / 2
	y := make([]float64, nOut)
	for k := range y {
		// position on the upsampled grid
		m := k*down + halfLen
		// taps j with (m-j) divisible by up hit real input samples
		j0 := m % up
		acc := 0.0
		for j := j0; j < len(h); j += up {
			idx := (m - j) / up
			if idx < 0 {
				break
			}
			if idx < len(x) {
				acc += h[j] * x[idx]
			}
		}
		y[k] = acc
	}
	return y
}
