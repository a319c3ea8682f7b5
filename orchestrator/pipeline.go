// Package orchestrator runs one recording through the pipeline: calibrate,
// resample, filter, locate beats, run the detector bank, ask the learned
// classifier and merge, then persist and publish the result.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/ecg-pipeline/clients"
	cfg "github.com/maastricht-university/ecg-pipeline/config"
	"github.com/maastricht-university/ecg-pipeline/detectors"
	"github.com/maastricht-university/ecg-pipeline/ecg"
	"github.com/maastricht-university/ecg-pipeline/merger"
	"github.com/maastricht-university/ecg-pipeline/metrics"
	"github.com/maastricht-university/ecg-pipeline/publish"
	"github.com/maastricht-university/ecg-pipeline/record"
	"github.com/maastricht-university/ecg-pipeline/rpeaks"
	"github.com/maastricht-university/ecg-pipeline/store"
)

// ErrClassifier marks failures of the learned classifier service.
var ErrClassifier = errors.New("classifier unavailable")

type Pipeline struct {
	cfg     *cfg.Root
	http    *clients.HTTP
	bank    *detectors.Bank
	peaks   rpeaks.Consensus
	log     logrus.FieldLogger
	store   store.Store
	pub     publish.Publisher
	metrics *metrics.Metrics
}

type Option func(*Pipeline)

func WithLogger(l logrus.FieldLogger) Option     { return func(p *Pipeline) { p.log = l } }
func WithStore(s store.Store) Option             { return func(p *Pipeline) { p.store = s } }
func WithPublisher(pub publish.Publisher) Option { return func(p *Pipeline) { p.pub = pub } }
func WithMetrics(m *metrics.Metrics) Option      { return func(p *Pipeline) { p.metrics = m } }
func WithLocator(l rpeaks.Locator) Option        { return func(p *Pipeline) { p.peaks.Locator = l } }

func NewPipeline(c *cfg.Root, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:  c,
		http: clients.NewHTTPWithTimeout(cfg.DurSeconds(c.Services.Classifier.Timeout)),
		peaks: rpeaks.Consensus{
			Locator:     rpeaks.NewEnergyLocator(c.RPeaks.ThresholdK, c.RPeaks.RefractoryMs),
			ToleranceMs: c.RPeaks.ToleranceMs,
		},
		log: logrus.StandardLogger(),
		pub: publish.Noop{},
	}
	for _, o := range opts {
		o(p)
	}
	if p.metrics == nil {
		p.metrics = metrics.New()
	}
	p.bank = detectors.NewBank(c.Thresholds, p.log)
	return p
}

func (p *Pipeline) Metrics() *metrics.Metrics { return p.metrics }

// Run diagnoses rec end to end. A recording shorter than signal.siglen is
// reported with StatusSkipped and a nil error.
func (p *Pipeline) Run(ctx context.Context, rec record.Record) (*Report, error) {
	start := time.Now()
	r, err := p.analyse(ctx, rec, true)
	if err != nil {
		p.metrics.Record(string(StatusFailed))
		return r, err
	}
	if err := p.finish(ctx, r); err != nil {
		p.metrics.Record(string(StatusFailed))
		return r, err
	}
	p.metrics.Record(string(r.Status))
	p.metrics.Since("total", start)
	return r, nil
}

// Detect runs the rule-based detectors only. Nothing is persisted.
func (p *Pipeline) Detect(ctx context.Context, rec record.Record) (*Report, error) {
	return p.analyse(ctx, rec, false)
}

// Health reports the classifier service state. With no classifier
// configured it returns nil, nil.
func (p *Pipeline) Health(ctx context.Context) (*clients.HealthResp, error) {
	url := p.cfg.Services.Classifier.URL
	if url == "" {
		return nil, nil
	}
	h, err := p.http.Health(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifier, err)
	}
	return h, nil
}

func (p *Pipeline) analyse(ctx context.Context, rec record.Record, classify bool) (*Report, error) {
	r := &Report{
		RunID:       uuid.New().String(),
		Record:      rec.Name,
		Status:      StatusFailed,
		GeneratedAt: time.Now().UTC(),
		Labelled:    rec.Diagnoses(),
	}
	log := p.log.WithFields(logrus.Fields{"record": rec.Name, "run_id": r.RunID})

	raw, tranche, err := rec.Waveform()
	if err != nil {
		return r, err
	}
	if err := raw.RequireStandard(); err != nil {
		return r, fmt.Errorf("record %s: %w", rec.Name, err)
	}
	r.Tranche = tranche
	log = log.WithField("tranche", tranche.String())

	policy, err := ecg.ParseSlicePolicy(p.cfg.Signal.Slice)
	if err != nil {
		return r, err
	}
	w, err := ecg.Resample(raw, p.cfg.Signal.TargetFs, ecg.WithLength(p.cfg.Signal.SigLen), ecg.WithSlice(policy))
	if errors.Is(err, ecg.ErrInsufficientLength) {
		log.WithError(err).Warn("record skipped")
		r.Status, r.Reason = StatusSkipped, err.Error()
		return r, nil
	}
	if err != nil {
		return r, err
	}
	r.Fs, r.Samples = w.Fs, w.Len()

	t0 := time.Now()
	filtered, err := p.bandpass(w)
	if err != nil {
		return r, fmt.Errorf("bandpass: %w", err)
	}
	located, err := p.peaks.Locate(ctx, filtered)
	if err != nil {
		return r, fmt.Errorf("record %s: %w", rec.Name, err)
	}
	r.Peaks, r.perLead = located.Peaks, located.PerLead
	p.metrics.Since("preprocess", t0)

	t0 = time.Now()
	v, err := p.bank.Run(ctx, detectors.Input{Raw: w, Filtered: filtered, Peaks: located.Peaks, Fs: w.Fs})
	if err != nil {
		return r, fmt.Errorf("record %s: %w", rec.Name, err)
	}
	p.metrics.Since("detectors", t0)
	r.Verdicts = v
	if rr := detectors.MeanRR(located.Peaks); rr > 0 {
		r.HeartRate = detectors.HeartRate(rr, w.Fs)
	}
	p.countVerdicts(v)

	var outputs []merger.ClassScores
	if url := p.cfg.Services.Classifier.URL; classify && url != "" {
		t0 = time.Now()
		resp, err := p.http.Predict(ctx, url, predictRequest(rec.Name, tranche, filtered))
		if err != nil {
			p.metrics.Classifier("error")
			return r, fmt.Errorf("%w: %v", ErrClassifier, err)
		}
		p.metrics.Classifier("ok")
		p.metrics.Since("classifier", t0)
		outputs, r.Models = toScores(resp)
	}

	d, err := merger.Merge(v, outputs, p.cfg.Merger)
	if err != nil {
		return r, fmt.Errorf("merge: %w", err)
	}
	r.Diagnosis, r.Positive, r.Codes = d, d.Positive(), d.Codes()
	r.Status = StatusOK

	log.WithFields(logrus.Fields{
		"peaks":    len(r.Peaks),
		"positive": r.Positive,
	}).Info("record diagnosed")
	return r, nil
}

func (p *Pipeline) countVerdicts(v detectors.Verdicts) {
	p.metrics.Verdict("pacing", fmt.Sprint(v.PR))
	p.metrics.Verdict("axis", v.Axis.String())
	p.metrics.Verdict("rate", v.Rate.String())
	p.metrics.Verdict("lqrsv", fmt.Sprint(v.LQRSV))
}

// finish persists the bundle, stores the row and publishes the report.
func (p *Pipeline) finish(ctx context.Context, r *Report) error {
	if root := p.cfg.Paths.Outputs; root != "" {
		dir, err := persist(root, r)
		if err != nil {
			return fmt.Errorf("persist %s: %w", r.Record, err)
		}
		r.BundleDir = dir
	}
	if p.store != nil {
		if err := p.store.Save(ctx, toRow(r)); err != nil {
			return err
		}
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := p.pub.Publish(ctx, r.Record, payload); err != nil {
		return fmt.Errorf("publish %s: %w", r.Record, err)
	}
	return nil
}
