// Package record decodes ECG recordings as delivered to the pipeline: a
// JSON document with digitised samples and calibration, optionally backed
// by a WFDB header.
package record

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/maastricht-university/ecg-pipeline/ecg"
)

// Record is one digitised recording with its calibration constants.
type Record struct {
	Name     string      `json:"name"`
	Tranche  string      `json:"tranche,omitempty"` // derived from Name when empty
	Layout   ecg.Layout  `json:"layout"`
	Units    *ecg.Units  `json:"units,omitempty"` // inferred from amplitude when absent
	Digital  [][]float64 `json:"digital"`
	Gain     []float64   `json:"gain"`
	Baseline []float64   `json:"baseline"`
	Dx       []string    `json:"dx,omitempty"`
	Header   *Header     `json:"header,omitempty"`
}

// ResolveTranche returns the explicit tranche or the one implied by the
// record name.
func (r Record) ResolveTranche() (ecg.Tranche, error) {
	if r.Tranche != "" {
		return ecg.ParseTranche(r.Tranche)
	}
	return ecg.TrancheOfRecord(r.Name)
}

// Waveform calibrates the digitised samples. A record backed by a header
// must list the 12 standard leads in canonical order at the tranche's
// native frequency.
func (r Record) Waveform() (ecg.Waveform, ecg.Tranche, error) {
	t, err := r.ResolveTranche()
	if err != nil {
		return ecg.Waveform{}, 0, err
	}
	if h := r.Header; h != nil {
		if err := h.CheckLeads(); err != nil {
			return ecg.Waveform{}, 0, fmt.Errorf("record %s: %w: %v", r.Name, ecg.ErrMalformedWaveform, err)
		}
		if h.Fs != t.NativeFs() {
			return ecg.Waveform{}, 0, fmt.Errorf("record %s: %w: header fs %v, tranche %v records at %v",
				r.Name, ecg.ErrCalibration, h.Fs, t, t.NativeFs())
		}
	}
	units := ecg.Millivolt
	if r.Units != nil {
		units = *r.Units
	}
	w, err := ecg.LoadPhysical(r.Digital, r.Gain, r.Baseline, t, units, r.Layout)
	if err != nil {
		return ecg.Waveform{}, 0, fmt.Errorf("record %s: %w", r.Name, err)
	}
	if r.Units == nil {
		w.Units = ecg.InferUnits(w.Signals)
	}
	return w, t, nil
}

// Diagnoses returns the labelled diagnoses, from the header when present.
func (r Record) Diagnoses() []Diagnosis {
	if r.Header != nil && r.Header.Dx != "" {
		return r.Header.Diagnoses()
	}
	return ParseDiagnoses(strings.Join(r.Dx, ","))
}

// ApplyHeader takes name and calibration from h.
func (r *Record) ApplyHeader(h Header) {
	r.Name = h.Record
	r.Gain = h.Gains()
	r.Baseline = h.Baselines()
	r.Header = &h
}

func Decode(rd io.Reader) (Record, error) {
	var r Record
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return Record{}, fmt.Errorf("record decode: %w", err)
	}
	if len(r.Digital) == 0 {
		return Record{}, fmt.Errorf("record %q has no samples", r.Name)
	}
	return r, nil
}

func ReadFile(path string) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return Record{}, err
	}
	defer f.Close()
	return Decode(f)
}

func ReadHeaderFile(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, err
	}
	defer f.Close()
	return ParseHeader(f)
}

// ReadSamplesCSV reads digitised samples stored one time step per row, one
// lead per column (channel-last). A non-numeric first row is taken as a
// column header and skipped.
func ReadSamplesCSV(rd io.Reader) ([][]float64, error) {
	cr := csv.NewReader(rd)
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("samples csv: %w", err)
	}
	var out [][]float64
	for i, row := range rows {
		vals := make([]float64, len(row))
		for j, cell := range row {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				if i == 0 {
					vals = nil
					break
				}
				return nil, fmt.Errorf("samples csv row %d col %d: %w", i+1, j+1, err)
			}
			vals[j] = v
		}
		if vals != nil {
			out = append(out, vals)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("samples csv: no data rows")
	}
	return out, nil
}
