package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/ecg-pipeline/config"
	"github.com/maastricht-university/ecg-pipeline/ecg"
	"github.com/maastricht-university/ecg-pipeline/ecg/ecgtest"
	"github.com/maastricht-university/ecg-pipeline/orchestrator"
	"github.com/maastricht-university/ecg-pipeline/record"
	"github.com/maastricht-university/ecg-pipeline/store"
)

func newTestServer(t *testing.T, classifierURL string) (http.Handler, *store.Memory) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	c := config.Default()
	c.Paths.Outputs = t.TempDir()
	c.Services.Classifier.URL = classifierURL
	mem := store.NewMemory()
	p := orchestrator.NewPipeline(c, orchestrator.WithLogger(log), orchestrator.WithStore(mem))
	return NewServer(p, mem, log).Router("test"), mem
}

func recordBody(t *testing.T, mutate func(*record.Record)) *bytes.Reader {
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
	rec := record.Record{Name: "A0100", Digital: digital, Gain: gain, Baseline: base}
	if mutate != nil {
		mutate(&rec)
	}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(b)
}

func do(h http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	return rec
}

func TestDetectEndpoint(t *testing.T) {
	h, _ := newTestServer(t, "")
	res := do(h, http.MethodPost, "/api/v1/ecg/detect", recordBody(t, nil))
	if res.Code != http.StatusOK {
		t.Fatalf("status %d: %s", res.Code, res.Body)
	}
	var rep orchestrator.Report
	if err := json.Unmarshal(res.Body.Bytes(), &rep); err != nil {
		t.Fatal(err)
	}
	if rep.Record != "A0100" || rep.Verdicts.Axis.String() != "normal" || rep.Status != orchestrator.StatusOK {
		t.Fatalf("report = %+v", rep)
	}
}

func TestDiagnoseAndLookup(t *testing.T) {
	h, _ := newTestServer(t, "")
	res := do(h, http.MethodPost, "/api/v1/ecg/diagnose", recordBody(t, nil))
	if res.Code != http.StatusOK {
		t.Fatalf("status %d: %s", res.Code, res.Body)
	}
	var rep orchestrator.Report
	_ = json.Unmarshal(res.Body.Bytes(), &rep)

	got := do(h, http.MethodGet, "/api/v1/ecg/diagnoses/"+rep.RunID, nil)
	if got.Code != http.StatusOK || !strings.Contains(got.Body.String(), `"record":"A0100"`) {
		t.Fatalf("lookup %d: %s", got.Code, got.Body)
	}
	list := do(h, http.MethodGet, "/api/v1/ecg/records/A0100/diagnoses?limit=5", nil)
	if list.Code != http.StatusOK || !strings.Contains(list.Body.String(), rep.RunID) {
		t.Fatalf("list %d: %s", list.Code, list.Body)
	}
	if res := do(h, http.MethodGet, "/api/v1/ecg/diagnoses/nope", nil); res.Code != http.StatusNotFound {
		t.Fatalf("missing diagnosis: %d", res.Code)
	}
	if res := do(h, http.MethodGet, "/api/v1/ecg/records/A0100/diagnoses?limit=x", nil); res.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: %d", res.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer down.Close()

	cases := []struct {
		name   string
		url    string
		body   io.Reader
		status int
	}{
		{"malformed json", "", strings.NewReader(`{"name":`), http.StatusBadRequest},
		{"no samples", "", strings.NewReader(`{"name":"A1"}`), http.StatusBadRequest},
		{"zero gain", "", recordBody(t, func(r *record.Record) { r.Gain[0] = 0 }), http.StatusUnprocessableEntity},
		{"unknown tranche", "", recordBody(t, func(r *record.Record) { r.Name = "ZZ1" }), http.StatusUnprocessableEntity},
		{"three leads", "", recordBody(t, func(r *record.Record) {
			r.Digital, r.Gain, r.Baseline = r.Digital[:3], r.Gain[:3], r.Baseline[:3]
		}), http.StatusUnprocessableEntity},
		{"classifier down", down.URL, recordBody(t, nil), http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newTestServer(t, tc.url)
			res := do(h, http.MethodPost, "/api/v1/ecg/diagnose", tc.body)
			if res.Code != tc.status {
				t.Fatalf("status = %d, want %d: %s", res.Code, tc.status, res.Body)
			}
			var body ErrorResponse
			if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil || body.Error == "" {
				t.Fatalf("error body = %s", res.Body)
			}
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h, _ := newTestServer(t, "")
	if res := do(h, http.MethodGet, "/api/v1/ecg/health", nil); res.Code != http.StatusOK {
		t.Fatalf("health %d: %s", res.Code, res.Body)
	}
	_ = do(h, http.MethodPost, "/api/v1/ecg/diagnose", recordBody(t, nil))
	res := do(h, http.MethodGet, "/metrics", nil)
	if res.Code != http.StatusOK || !strings.Contains(res.Body.String(), `ecg_records_total{status="ok"} 1`) {
		t.Fatalf("metrics %d:\n%s", res.Code, res.Body)
	}
}
