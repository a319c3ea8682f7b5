package detectors

import (
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/maastricht-university/ecg-pipeline/config"
	"github.com/maastricht-university/ecg-pipeline/ecg"
)

// PacingResult details a pacing-rhythm decision.
type PacingResult struct {
	SpikeCounts []int `json:"spike_counts"` // per lead, canonical order
	DenseLeads  int   `json:"dense_leads"`
	IsPR        bool  `json:"is_pr"`
}

// PacingRhythm reports whether w, sampled at fs, shows pacemaker spikes on
// at least cfg.LeadsThreshold leads.
func PacingRhythm(w ecg.Waveform, fs float64, cfg config.Pacing) (bool, error) {
	res, err := PacingRhythmDetail(w, fs, cfg)
	return res.IsPR, err
}

// PacingRhythmDetail runs the pacing-rhythm detector and keeps the per-lead
// spike counts. Each lead is high-passed well above the QRS band so only
// sharp spikes survive; a lead is spike-dense when the recording duration
// divided by its spike count is below cfg.InvDensityThresholdMs.
func PacingRhythmDetail(w ecg.Waveform, fs float64, cfg config.Pacing) (PacingResult, error) {
	if err := w.RequireStandard(); err != nil {
		return PacingResult{}, err
	}
	if !(fs > 0) {
		return PacingResult{}, fmt.Errorf("invalid sampling frequency %v", fs)
	}
	sos, err := ecg.ButterHighpass(cfg.FilterOrder, cfg.LowerBoundHz, fs)
	if err != nil {
		return PacingResult{}, fmt.Errorf("pacing high-pass: %w", err)
	}
	mv := w.Millivolts()
	opt := ecg.PeakOptions{
		MinDistance:    ecg.MsToSamples(cfg.MPDMs, fs),
		MinProminence:  cfg.MinProminence,
		ProminenceWlen: ecg.MsToSamples(cfg.ProminenceWindowMs, fs),
	}

	counts := make([]int, mv.NumLeads())
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, sig := range mv.Signals {
		i, sig := i, sig
		g.Go(func() error {
			hp := sos.FiltFilt(sig)
			for k, v := range hp {
				hp[k] = math.Abs(v)
			}
			o := opt
			o.MinHeight = cfg.MPHRatio * stat.Mean(hp, nil)
			counts[i] = len(ecg.DetectPeaks(hp, o))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PacingResult{}, err
	}

	durMs := ecg.SamplesToMs(float64(mv.Len()), fs)
	res := PacingResult{SpikeCounts: counts}
	for _, c := range counts {
		if c > 0 && durMs/float64(c) < cfg.InvDensityThresholdMs {
			res.DenseLeads++
		}
	}
	res.IsPR = res.DenseLeads >= cfg.LeadsThreshold
	return res, nil
}
