package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if c.Thresholds.Rate.TachyThresholdMs != 600 || c.Thresholds.Pacing.LeadsThreshold != 7 {
		t.Fatalf("thresholds = %+v", c.Thresholds)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
signal:
  siglen: 5000
thresholds:
  rate:
    tachy_threshold_ms: 500
sink:
  kind: kafka
  brokers: [k1:9092, k2:9092]
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Signal.SigLen != 5000 || c.Signal.TargetFs != 500 {
		t.Fatalf("signal = %+v", c.Signal)
	}
	if c.Thresholds.Rate.TachyThresholdMs != 500 || c.Thresholds.Rate.BradyThresholdMs != 1000 {
		t.Fatalf("rate = %+v", c.Thresholds.Rate)
	}
	if c.Sink.Kind != "kafka" || len(c.Sink.Brokers) != 2 {
		t.Fatalf("sink = %+v", c.Sink)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("missing explicit file accepted")
	}
	if _, err := Load(writeFile(t, "signal: [")); err == nil {
		t.Fatalf("malformed yaml accepted")
	}
	if _, err := Load(writeFile(t, "sink:\n  kind: smoke-signals\n")); err == nil {
		t.Fatalf("unknown sink accepted")
	}
}

func TestOverlayEnv(t *testing.T) {
	t.Setenv("ECG_SERVICES_CLASSIFIER_URL", "http://classifier:9000")
	t.Setenv("ECG_SIGNAL_SLICE", "head")
	t.Setenv("ECG_DATABASE_ENABLED", "true")
	c := Default()
	if err := Overlay(c, viper.New()); err != nil {
		t.Fatalf("Overlay: %v", err)
	}
	if c.Services.Classifier.URL != "http://classifier:9000" || c.Signal.Slice != "head" || !c.Database.Enabled {
		t.Fatalf("overlay not applied: %+v", c)
	}
	if c.Pipeline.LogLvl != "info" {
		t.Fatalf("unset key changed: %q", c.Pipeline.LogLvl)
	}
}

func TestOverlayReachesEveryKey(t *testing.T) {
	t.Setenv("ECG_THRESHOLDS_RATE_TACHY_THRESHOLD_MS", "550")
	t.Setenv("ECG_THRESHOLDS_LQRSV_BIAS_MV", "0.1")
	t.Setenv("ECG_MERGER_THRESHOLD", "0.7")
	t.Setenv("ECG_SINK_BROKERS", "k1:9092,k2:9092")
	c := Default()
	if err := Overlay(c, viper.New()); err != nil {
		t.Fatalf("Overlay: %v", err)
	}
	if c.Thresholds.Rate.TachyThresholdMs != 550 || c.Thresholds.LQRSV.BiasMv != 0.1 || c.Merger.Threshold != 0.7 {
		t.Fatalf("overlay = %+v %+v", c.Thresholds, c.Merger)
	}
	if len(c.Sink.Brokers) != 2 || c.Sink.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers = %v", c.Sink.Brokers)
	}
	if c.Signal.Bandpass != [2]float64{0.5, 45} || c.Thresholds.Rate.BradyThresholdMs != 1000 {
		t.Fatalf("untouched keys changed: %+v %+v", c.Signal, c.Thresholds.Rate)
	}
}

func TestOverlayValidates(t *testing.T) {
	t.Setenv("ECG_SIGNAL_TARGET_FS", "0")
	if err := Overlay(Default(), viper.New()); err == nil {
		t.Fatalf("zero target fs accepted from env")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Root){
		"zero target fs":      func(r *Root) { r.Signal.TargetFs = 0 },
		"negative siglen":     func(r *Root) { r.Signal.SigLen = -1 },
		"merger threshold":    func(r *Root) { r.Merger.Threshold = 1.5 },
		"leads threshold":     func(r *Root) { r.Thresholds.Pacing.LeadsThreshold = 13 },
		"lqrsv ratio":         func(r *Root) { r.Thresholds.LQRSV.RatioThreshold = -0.1 },
		"rate bound":          func(r *Root) { r.Thresholds.Rate.BradyThresholdMs = 0 },
		"pacing filter order": func(r *Root) { r.Thresholds.Pacing.FilterOrder = 0 },
	}
	for name, mutate := range cases {
		c := Default()
		mutate(c)
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: accepted", name)
		}
	}
}

func TestDevConfigFile(t *testing.T) {
	c, err := Load(filepath.Join("dev", "config.yaml"))
	if err != nil {
		t.Fatalf("shipped config: %v", err)
	}
	if c.Signal.SigLen != 5000 || c.Thresholds.Axis.Method != "2-lead" {
		t.Fatalf("shipped config = %+v", c.Signal)
	}
}
