package ecg

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Biquad is one second-order section in direct form II transposed,
// normalised so a0 == 1.
type Biquad struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// SOS is a cascade of second-order sections.
type SOS []Biquad

type bandType int

const (
	lowPass bandType = iota
	highPass
)

// ButterHighpass designs a digital Butterworth high-pass filter.
func ButterHighpass(order int, cutoffHz, fs float64) (SOS, error) {
	return butter(order, cutoffHz, fs, highPass)
}

// ButterLowpass designs a digital Butterworth low-pass filter.
func ButterLowpass(order int, cutoffHz, fs float64) (SOS, error) {
	return butter(order, cutoffHz, fs, lowPass)
}

func butter(order int, cutoffHz, fs float64, band bandType) (SOS, error) {
	if order < 1 {
		return nil, fmt.Errorf("filter order must be positive, got %d", order)
	}
	if !(cutoffHz > 0) || cutoffHz >= fs/2 {
		return nil, fmt.Errorf("cutoff %v Hz outside (0, %v)", cutoffHz, fs/2)
	}
	// pre-warped analog cutoff for the bilinear transform
	wc := 2 * fs * math.Tan(math.Pi*cutoffHz/fs)
	bilinear := func(s complex128) complex128 {
		return (complex(2*fs, 0) + s) / (complex(2*fs, 0) - s)
	}

	var sos SOS
	for k := 0; k < order/2; k++ {
		// upper-half-plane prototype pole; its conjugate completes the pair
		p := cmplx.Exp(complex(0, math.Pi*float64(2*k+order+1)/float64(2*order)))
		z := bilinear(analogPole(p, wc, band))
		a1, a2 := -2*real(z), real(z)*real(z)+imag(z)*imag(z)
		sos = append(sos, section2(a1, a2, band))
	}
	if order%2 == 1 {
		z := real(bilinear(analogPole(complex(-1, 0), wc, band)))
		sos = append(sos, section1(z, band))
	}
	return sos, nil
}

func analogPole(p complex128, wc float64, band bandType) complex128 {
	if band == highPass {
		return complex(wc, 0) / p
	}
	return complex(wc, 0) * p
}

// section2 places both zeros at z=1 (high-pass) or z=-1 (low-pass) and
// scales for unit gain at Nyquist or DC respectively.
func section2(a1, a2 float64, band bandType) Biquad {
	if band == highPass {
		g := (1 - a1 + a2) / 4
		return Biquad{B0: g, B1: -2 * g, B2: g, A1: a1, A2: a2}
	}
	g := (1 + a1 + a2) / 4
	return Biquad{B0: g, B1: 2 * g, B2: g, A1: a1, A2: a2}
}

func section1(pole float64, band bandType) Biquad {
	if band == highPass {
		g := (1 + pole) / 2
		return Biquad{B0: g, B1: -g, A1: -pole}
	}
	g := (1 - pole) / 2
	return Biquad{B0: g, B1: g, A1: -pole}
}

// Apply runs the cascade once over x with zero initial state.
func (s SOS) Apply(x []float64) []float64 {
	y := append([]float64(nil), x...)
	for _, q := range s {
		var z1, z2 float64
		for i, v := range y {
			out := q.B0*v + z1
			z1 = q.B1*v - q.A1*out + z2
			z2 = q.B2*v - q.A2*out
			y[i] = out
		}
	}
	return y
}

// FiltFilt applies s forward and backward for zero phase distortion. The
// input is extended by odd reflection at both ends and each pass starts
// from the steady state of its first sample, so edge transients stay in
// the padding.
func (s SOS) FiltFilt(x []float64) []float64 {
	n := len(x)
	if n < 2 {
		return append([]float64(nil), x...)
	}
	pad := 3 * (2*len(s) + 1)
	if pad > n-1 {
		pad = n - 1
	}
	ext := make([]float64, 0, n+2*pad)
	for i := pad; i > 0; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	for i := n - 2; i >= n-1-pad; i-- {
		ext = append(ext, 2*x[n-1]-x[i])
	}

	y := s.steadyPass(ext)
	reverse(y)
	y = s.steadyPass(y)
	reverse(y)
	return y[pad : pad+n]
}

// steadyPass filters x as if it had been preceded by an infinite run of
// x[0]: the DC level is removed, filtered from rest, and the cascade's DC
// response added back.
func (s SOS) steadyPass(x []float64) []float64 {
	x0 := x[0]
	shifted := make([]float64, len(x))
	for i, v := range x {
		shifted[i] = v - x0
	}
	y := s.Apply(shifted)
	dc := s.dcGain() * x0
	for i := range y {
		y[i] += dc
	}
	return y
}

func (s SOS) dcGain() float64 {
	g := 1.0
	for _, q := range s {
		g *= (q.B0 + q.B1 + q.B2) / (1 + q.A1 + q.A2)
	}
	return g
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}

// Bandpass is a zero-phase Butterworth band-pass built from a high-pass
// and a low-pass cascade. A non-positive edge disables that side.
func Bandpass(x []float64, lowHz, highHz float64, order int, fs float64) ([]float64, error) {
	y := x
	if lowHz > 0 {
		hp, err := ButterHighpass(order, lowHz, fs)
		if err != nil {
			return nil, err
		}
		y = hp.FiltFilt(y)
	}
	if highHz > 0 && highHz < fs/2 {
		lp, err := ButterLowpass(order, highHz, fs)
		if err != nil {
			return nil, err
		}
		y = lp.FiltFilt(y)
	}
	if lowHz <= 0 && !(highHz > 0 && highHz < fs/2) {
		y = append([]float64(nil), x...)
	}
	return y, nil
}
