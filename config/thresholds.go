package config

import "fmt"

// Pacing configures the pacing-rhythm detector.
type Pacing struct {
	LowerBoundHz          float64 `yaml:"lower_bound_hz" mapstructure:"lower_bound_hz"`
	FilterOrder           int     `yaml:"filter_order" mapstructure:"filter_order"`
	MPHRatio              float64 `yaml:"mph_ratio" mapstructure:"mph_ratio"`
	MPDMs                 float64 `yaml:"mpd_ms" mapstructure:"mpd_ms"`
	MinProminence         float64 `yaml:"min_prominence" mapstructure:"min_prominence"` // mV
	ProminenceWindowMs    float64 `yaml:"prominence_window_ms" mapstructure:"prominence_window_ms"`
	InvDensityThresholdMs float64 `yaml:"inv_density_threshold_ms" mapstructure:"inv_density_threshold_ms"`
	LeadsThreshold        int     `yaml:"leads_threshold" mapstructure:"leads_threshold"`
}

// Axis configures the electrical-axis detector.
type Axis struct {
	QRSRadiusMs float64 `yaml:"qrs_radius_ms" mapstructure:"qrs_radius_ms"`
	Method      string  `yaml:"method" mapstructure:"method"`
}

// Rate holds the RR bounds separating tachycardia, normal and bradycardia.
type Rate struct {
	TachyThresholdMs float64 `yaml:"tachy_threshold_ms" mapstructure:"tachy_threshold_ms"`
	BradyThresholdMs float64 `yaml:"brady_threshold_ms" mapstructure:"brady_threshold_ms"`
}

// LQRSV configures the low-QRS-voltage detector. Ceilings are in mV before
// the bias is added.
type LQRSV struct {
	QRSRadiusMs         float64 `yaml:"qrs_radius_ms" mapstructure:"qrs_radius_ms"`
	BiasMv              float64 `yaml:"bias_mv" mapstructure:"bias_mv"`
	LimbCeilingMv       float64 `yaml:"limb_ceiling_mv" mapstructure:"limb_ceiling_mv"`
	PrecordialCeilingMv float64 `yaml:"precordial_ceiling_mv" mapstructure:"precordial_ceiling_mv"`
	RatioThreshold      float64 `yaml:"ratio_threshold" mapstructure:"ratio_threshold"`
}

// Thresholds is the immutable detector configuration. It is passed by
// value and never modified during detection.
type Thresholds struct {
	Pacing Pacing `yaml:"pacing" mapstructure:"pacing"`
	Axis   Axis   `yaml:"axis" mapstructure:"axis"`
	Rate   Rate   `yaml:"rate" mapstructure:"rate"`
	LQRSV  LQRSV  `yaml:"lqrsv" mapstructure:"lqrsv"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Pacing: Pacing{
			LowerBoundHz:          47,
			FilterOrder:           20,
			MPHRatio:              15,
			MPDMs:                 300,
			MinProminence:         0.3,
			ProminenceWindowMs:    120,
			InvDensityThresholdMs: 2500,
			LeadsThreshold:        7,
		},
		Axis: Axis{QRSRadiusMs: 70, Method: "2-lead"},
		Rate: Rate{TachyThresholdMs: 600, BradyThresholdMs: 1000},
		LQRSV: LQRSV{
			QRSRadiusMs:         60,
			BiasMv:              0.02,
			LimbCeilingMv:       0.5,
			PrecordialCeilingMv: 1.0,
			RatioThreshold:      0.8,
		},
	}
}

func (t Thresholds) Validate() error {
	p := t.Pacing
	if !(p.LowerBoundHz > 0) {
		return fmt.Errorf("thresholds.pacing.lower_bound_hz must be positive")
	}
	if p.FilterOrder < 1 {
		return fmt.Errorf("thresholds.pacing.filter_order must be positive")
	}
	if p.LeadsThreshold < 1 || p.LeadsThreshold > 12 {
		return fmt.Errorf("thresholds.pacing.leads_threshold %d outside [1, 12]", p.LeadsThreshold)
	}
	if !(p.InvDensityThresholdMs > 0) {
		return fmt.Errorf("thresholds.pacing.inv_density_threshold_ms must be positive")
	}
	if p.MPDMs < 0 || p.ProminenceWindowMs < 0 || p.MinProminence < 0 || p.MPHRatio < 0 {
		return fmt.Errorf("thresholds.pacing: negative value")
	}
	if !(t.Axis.QRSRadiusMs > 0) {
		return fmt.Errorf("thresholds.axis.qrs_radius_ms must be positive")
	}
	if !(t.Rate.TachyThresholdMs > 0) || !(t.Rate.BradyThresholdMs > 0) {
		return fmt.Errorf("thresholds.rate bounds must be positive")
	}
	l := t.LQRSV
	if !(l.QRSRadiusMs > 0) {
		return fmt.Errorf("thresholds.lqrsv.qrs_radius_ms must be positive")
	}
	if l.RatioThreshold < 0 || l.RatioThreshold > 1 {
		return fmt.Errorf("thresholds.lqrsv.ratio_threshold %v outside [0, 1]", l.RatioThreshold)
	}
	return nil
}
