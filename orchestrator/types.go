package orchestrator

import (
	"time"

	"github.com/maastricht-university/ecg-pipeline/detectors"
	"github.com/maastricht-university/ecg-pipeline/ecg"
	"github.com/maastricht-university/ecg-pipeline/merger"
	"github.com/maastricht-university/ecg-pipeline/record"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped" // recording shorter than signal.siglen
	StatusFailed  Status = "failed"
)

// Report is the outcome of one pipeline run over a recording.
type Report struct {
	RunID       string             `json:"run_id"`
	Record      string             `json:"record"`
	Tranche     ecg.Tranche        `json:"tranche"`
	Status      Status             `json:"status"`
	Reason      string             `json:"reason,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
	Fs          float64            `json:"fs"`
	Samples     int                `json:"samples"`
	Peaks       []int              `json:"r_peaks,omitempty"`
	HeartRate   float64            `json:"heart_rate_bpm,omitempty"`
	Verdicts    detectors.Verdicts `json:"verdicts"`
	Models      []string           `json:"models,omitempty"` // classifier outputs merged
	Diagnosis   merger.Diagnosis   `json:"diagnosis"`
	Positive    []string           `json:"positive"`
	Codes       []string           `json:"codes"`
	Labelled    []record.Diagnosis `json:"labelled,omitempty"` // diagnoses shipped with the record
	BundleDir   string             `json:"-"`

	perLead [][]int
}
