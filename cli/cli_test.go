package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/maastricht-university/ecg-pipeline/ecg"
	"github.com/maastricht-university/ecg-pipeline/ecg/ecgtest"
	"github.com/maastricht-university/ecg-pipeline/orchestrator"
	"github.com/maastricht-university/ecg-pipeline/record"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeRecord(t *testing.T, dir, name string) string {
	t.Helper()
	w := ecgtest.AllLeads(500, 5000, ecgtest.EvenPeaks(250, 400, 12), ecgtest.Upright.Scaled(2)).Build()
	gain := make([]float64, ecg.NumLeads)
	base := make([]float64, ecg.NumLeads)
	for i := range gain {
		gain[i] = 1000
	}
	digital, err := ecg.ToDigital(w, gain, base, ecg.TrancheA)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := json.Marshal(record.Record{Name: name, Digital: digital, Gain: gain, Baseline: base})
	path := filepath.Join(dir, name+".json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestThresholdsCommand(t *testing.T) {
	t.Setenv("ECG_THRESHOLDS_AXIS_METHOD", "3-lead")
	out, err := execute(t, "thresholds", "--log-level", "error")
	if err != nil {
		t.Fatalf("thresholds: %v", err)
	}
	var doc struct {
		Thresholds struct {
			Axis struct {
				Method string `yaml:"method"`
			} `yaml:"axis"`
			Rate struct {
				TachyThresholdMs float64 `yaml:"tachy_threshold_ms"`
			} `yaml:"rate"`
		} `yaml:"thresholds"`
	}
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("not yaml: %v\n%s", err, out)
	}
	if doc.Thresholds.Axis.Method != "3-lead" {
		t.Fatalf("env overlay ignored:\n%s", out)
	}
}

func TestDiagnoseCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeRecord(t, dir, "A0042")
	outputs := filepath.Join(dir, "out")
	out, err := execute(t, "diagnose", "--record", path, "--outputs", outputs, "--log-level", "error")
	if err != nil {
		t.Fatalf("diagnose: %v\n%s", err, out)
	}
	var rep orchestrator.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("output is not a report: %v\n%s", err, out)
	}
	if rep.Record != "A0042" || rep.Status != orchestrator.StatusOK {
		t.Fatalf("report = %+v", rep)
	}
	if _, err := os.Stat(filepath.Join(outputs, rep.RunID, "diagnosis.json")); err != nil {
		t.Fatalf("bundle missing: %v", err)
	}
}

func TestDiagnoseNeedsInput(t *testing.T) {
	_, err := execute(t, "diagnose", "--log-level", "error")
	if err == nil || !strings.Contains(err.Error(), "nothing to diagnose") {
		t.Fatalf("want missing input error, got %v", err)
	}
	if _, err := execute(t, "diagnose", "--header", "x.hea", "--log-level", "error"); err == nil {
		t.Fatalf("header without samples accepted")
	}
}

func TestMissingConfigFile(t *testing.T) {
	if _, err := execute(t, "thresholds", "--config", filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("missing explicit config accepted")
	}
}
