package orchestrator

import (
	"encoding/json"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/maastricht-university/ecg-pipeline/clients"
	"github.com/maastricht-university/ecg-pipeline/ecg"
	"github.com/maastricht-university/ecg-pipeline/merger"
	"github.com/maastricht-university/ecg-pipeline/store"
)

// bandpass returns a filtered copy of w using the signal section.
func (p *Pipeline) bandpass(w ecg.Waveform) (ecg.Waveform, error) {
	s := p.cfg.Signal
	out := ecg.Waveform{Fs: w.Fs, Units: w.Units, Signals: make([][]float64, w.NumLeads())}
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, sig := range w.Signals {
		i, sig := i, sig
		g.Go(func() (err error) {
			out.Signals[i], err = ecg.Bandpass(sig, s.Bandpass[0], s.Bandpass[1], s.FiltOrder, w.Fs)
			return err
		})
	}
	return out, g.Wait()
}

func predictRequest(name string, t ecg.Tranche, w ecg.Waveform) clients.PredictReq {
	mv := w.Millivolts()
	leads := make([]string, mv.NumLeads())
	for i := range leads {
		if i < ecg.NumLeads {
			leads[i] = ecg.Lead(i).String()
		}
	}
	return clients.PredictReq{Record: name, Tranche: t.String(), Fs: mv.Fs, Leads: leads, Signals: mv.Signals}
}

func toScores(resp *clients.PredictResp) ([]merger.ClassScores, []string) {
	if resp == nil {
		return nil, nil
	}
	scores := make([]merger.ClassScores, 0, len(resp.Outputs))
	models := make([]string, 0, len(resp.Outputs))
	for _, o := range resp.Outputs {
		scores = append(scores, merger.ClassScores{Classes: o.Classes, Probabilities: o.Probabilities})
		models = append(models, o.Model)
	}
	return scores, models
}

func toRow(r *Report) *store.DiagnosisRow {
	verdicts, _ := json.Marshal(r.Verdicts)
	scores, _ := json.Marshal(r.Diagnosis)
	return &store.DiagnosisRow{
		ID:        r.RunID,
		Record:    r.Record,
		Tranche:   r.Tranche.String(),
		Status:    string(r.Status),
		Positive:  strings.Join(r.Positive, ","),
		Codes:     strings.Join(r.Codes, ","),
		Verdicts:  string(verdicts),
		Scores:    string(scores),
		HeartRate: r.HeartRate,
		CreatedAt: r.GeneratedAt,
	}
}
