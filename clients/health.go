package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// --- Health (/health) ---
type HealthResp struct {
	Status  string   `json:"status"`
	Models  []string `json:"models"`
	Version string   `json:"version"`
}

func (h *HTTP) Health(ctx context.Context, url string) (*HealthResp, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/health", nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health %s", resp.Status)
	}
	var out HealthResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("health decode: %w", err)
	}
	return &out, nil
}
