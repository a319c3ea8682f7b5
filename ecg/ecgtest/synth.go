// Package ecgtest builds deterministic synthetic 12-lead recordings for
// tests: every beat is a sum of Gaussians (P, Q, R, S, T) centred on its
// R-peak.
package ecgtest

import (
	"math"

	"github.com/maastricht-university/ecg-pipeline/ecg"
)

// Beat shapes one lead. Amplitudes are in mV; widths in seconds.
type Beat struct {
	P, Q, R, S, T float64
}

// Upright is a textbook positive QRS.
var Upright = Beat{P: 0.08, Q: -0.12, R: 1.0, S: -0.25, T: 0.25}

// Inverted mirrors Upright: dominant negative deflection.
var Inverted = Beat{P: -0.08, Q: 0.12, R: -1.0, S: 0.25, T: -0.25}

// Scaled multiplies every wave of b by k.
func (b Beat) Scaled(k float64) Beat {
	return Beat{P: b.P * k, Q: b.Q * k, R: b.R * k, S: b.S * k, T: b.T * k}
}

// Spec describes a synthetic recording.
type Spec struct {
	Fs      float64
	Samples int
	RPeaks  []int
	Leads   [ecg.NumLeads]Beat
}

// AllLeads returns a Spec in which every lead shares beat b.
func AllLeads(fs float64, samples int, peaks []int, b Beat) Spec {
	s := Spec{Fs: fs, Samples: samples, RPeaks: peaks}
	for i := range s.Leads {
		s.Leads[i] = b
	}
	return s
}

// Build renders the recording in mV.
func (s Spec) Build() ecg.Waveform {
	w := ecg.Waveform{Fs: s.Fs, Units: ecg.Millivolt, Signals: make([][]float64, ecg.NumLeads)}
	for l := range w.Signals {
		sig := make([]float64, s.Samples)
		b := s.Leads[l]
		for i := range sig {
			t := float64(i) / s.Fs
			v := 0.0
			for _, r := range s.RPeaks {
				tr := float64(r) / s.Fs
				v += b.P*gauss(t, tr-0.16, 0.025) +
					b.Q*gauss(t, tr-0.025, 0.008) +
					b.R*gauss(t, tr, 0.010) +
					b.S*gauss(t, tr+0.025, 0.010) +
					b.T*gauss(t, tr+0.28, 0.045)
			}
			sig[i] = v
		}
		w.Signals[l] = sig
	}
	return w
}

// EvenPeaks returns count R-peak indices spaced rr samples apart starting
// at first.
func EvenPeaks(first, rr, count int) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = first + i*rr
	}
	return out
}

// AddSpikes superimposes narrow pacing spikes of the given height at
// every index in at, on every lead.
func AddSpikes(w ecg.Waveform, at []int, height float64) ecg.Waveform {
	out := w.Clone()
	for _, sig := range out.Signals {
		for _, i := range at {
			if i >= 0 && i < len(sig) {
				sig[i] += height
			}
		}
	}
	return out
}

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}
