package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// --- Learned classifier (/predict) ---
type PredictReq struct {
	Record  string      `json:"record"`
	Tranche string      `json:"tranche,omitempty"`
	Fs      float64     `json:"fs"`
	Leads   []string    `json:"leads"`
	Signals [][]float64 `json:"signals"` // channel-first, band-passed, mV
}

// PredictResp holds one entry per model the service ran. Tranche-specific
// models report only the classes they were trained on.
type PredictResp struct {
	Outputs []ModelOutput `json:"outputs"`
}

type ModelOutput struct {
	Model         string    `json:"model"`
	Classes       []string  `json:"classes"`
	Probabilities []float64 `json:"probabilities"`
}

func (h *HTTP) Predict(ctx context.Context, url string, in PredictReq) (*PredictResp, error) {
	reqBody, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("predict encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/predict", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("predict %s: %s", resp.Status, string(b))
	}

	var out PredictResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("predict decode: %w", err)
	}
	for i, o := range out.Outputs {
		if len(o.Classes) != len(o.Probabilities) {
			return nil, fmt.Errorf("predict: output %d has %d classes and %d probabilities", i, len(o.Classes), len(o.Probabilities))
		}
	}
	return &out, nil
}
