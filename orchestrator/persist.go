package orchestrator

import (
	"encoding/json"
	"os"
	"path/filepath"
)

type peaksBundle struct {
	RunID   string  `json:"run_id"`
	Record  string  `json:"record"`
	Fs      float64 `json:"fs"`
	Peaks   []int   `json:"r_peaks"`
	PerLead [][]int `json:"per_lead"`
}

func mkRunDir(outputsRoot, runID string) (string, error) {
	dir := filepath.Join(outputsRoot, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// persist writes diagnosis.json and, when beats were located, peaks.json
// under outputsRoot/<run id>.
func persist(outputsRoot string, r *Report) (string, error) {
	dir, err := mkRunDir(outputsRoot, r.RunID)
	if err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, "diagnosis.json"), r); err != nil {
		return "", err
	}
	if len(r.Peaks) > 0 {
		pb := peaksBundle{RunID: r.RunID, Record: r.Record, Fs: r.Fs, Peaks: r.Peaks, PerLead: r.perLead}
		if err := writeJSON(filepath.Join(dir, "peaks.json"), pb); err != nil {
			return "", err
		}
	}
	return dir, nil
}
