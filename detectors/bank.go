package detectors

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/maastricht-university/ecg-pipeline/config"
	"github.com/maastricht-university/ecg-pipeline/ecg"
)

// Input is everything the bank needs for one recording. Raw feeds the
// pacing detector; Filtered feeds the axis and LQRSV detectors.
type Input struct {
	Raw        ecg.Waveform
	Filtered   ecg.Waveform
	Peaks      []int
	Fs         float64
	AxisMethod string    // empty: thresholds default
	NormalRR   []float64 // ms; nil: thresholds default
}

// Verdicts is the outcome of one bank run.
type Verdicts struct {
	PR     bool         `json:"is_pr"`
	Axis   AxisLabel    `json:"axis"`
	Rate   RateLabel    `json:"rate"`
	LQRSV  bool         `json:"is_lqrsv"`
	Pacing PacingResult `json:"pacing"`
	Ratios LQRSVResult  `json:"lqrsv_ratios"`
	MeanRR float64      `json:"mean_rr_ms"`
}

func (v Verdicts) IsBrady() bool { return v.Rate == Bradycardia }
func (v Verdicts) IsTachy() bool { return v.Rate == Tachycardia }
func (v Verdicts) IsLAD() bool   { return v.Axis == AxisLAD }
func (v Verdicts) IsRAD() bool   { return v.Axis == AxisRAD }

// Bank runs the four detectors against shared, read-only inputs.
type Bank struct {
	Thresholds config.Thresholds
	Log        logrus.FieldLogger
}

func NewBank(th config.Thresholds, log logrus.FieldLogger) *Bank {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Bank{Thresholds: th, Log: log}
}

// Run evaluates the detectors concurrently. Each writes its own field of
// the result, so the outcome equals a sequential evaluation. The first
// failing detector cancels the run.
func (b *Bank) Run(ctx context.Context, in Input) (Verdicts, error) {
	var v Verdicts
	g, ctx := errgroup.WithContext(ctx)
	th := b.Thresholds

	g.Go(b.timed(ctx, "pacing", func() (err error) {
		v.Pacing, err = PacingRhythmDetail(in.Raw, in.Fs, th.Pacing)
		v.PR = v.Pacing.IsPR
		return err
	}))
	g.Go(b.timed(ctx, "axis", func() (err error) {
		v.Axis, err = ElectricalAxis(in.Filtered, in.Peaks, in.Fs, in.AxisMethod, th.Axis)
		return err
	}))
	g.Go(b.timed(ctx, "rate", func() (err error) {
		v.Rate, err = Rate(in.Peaks, in.Fs, in.NormalRR, th.Rate)
		if err == nil {
			v.MeanRR = ecg.SamplesToMs(MeanRR(in.Peaks), in.Fs)
		}
		return err
	}))
	g.Go(b.timed(ctx, "lqrsv", func() (err error) {
		v.Ratios, err = LowQRSVoltageRatios(in.Filtered, in.Peaks, in.Fs, th.LQRSV)
		v.LQRSV = v.Ratios.IsLQRSV
		return err
	}))

	if err := g.Wait(); err != nil {
		return Verdicts{}, err
	}
	b.Log.WithFields(logrus.Fields{
		"is_pr":    v.PR,
		"axis":     v.Axis.String(),
		"rate":     v.Rate.String(),
		"is_lqrsv": v.LQRSV,
	}).Debug("detector bank done")
	return v, nil
}

func (b *Bank) timed(ctx context.Context, name string, fn func() error) func() error {
	return func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		err := fn()
		l := b.Log.WithFields(logrus.Fields{"detector": name, "elapsed": time.Since(start)})
		if err != nil && !errors.Is(err, context.Canceled) {
			l.WithError(err).Warn("detector failed")
			return err
		}
		l.Debug("detector finished")
		return err
	}
}
