package record

import (
	"errors"
	"strings"
	"testing"

	"github.com/maastricht-university/ecg-pipeline/ecg"
)

const sampleHeader = `A0001 12 500 7500 05-Feb-2020 11:39:16
A0001.mat 16+24 1000/mV 16 0 28 -1716 0 I
A0001.mat 16+24 1000/mV 16 0 7 2029 0 II
A0001.mat 16+24 1000/mV 16 0 -21 3745 0 III
A0001.mat 16+24 1000/mV 16 0 -17 3680 0 aVR
A0001.mat 16+24 1000/mV 16 0 24 -2664 0 aVL
A0001.mat 16+24 1000/mV 16 0 -7 -1499 0 aVF
A0001.mat 16+24 1000/mV 16 0 -290 390 0 V1
A0001.mat 16+24 1000/mV 16 0 -204 157 0 V2
A0001.mat 16+24 1000/mV 16 0 -96 -2555 0 V3
A0001.mat 16+24 1000/mV 16 0 -112 49 0 V4
A0001.mat 16+24 1000/mV 16 0 -596 -321 0 V5
A0001.mat 16+24 1000(12)/mV 16 3 -16 -3112 0 V6
#Age: 74
#Sex: Male
#Dx: 59118001,713427006,164889003
#Rx: Unknown
#Hx: Unknown
#Sx: Unknown
`

func TestParseHeader(t *testing.T) {
	h, err := ParseHeader(strings.NewReader(sampleHeader))
	if err != nil {
		t.Fatalf("ParseHeader error: %v", err)
	}
	if h.Record != "A0001" || h.NLeads != 12 || h.Fs != 500 || h.NSamples != 7500 {
		t.Fatalf("record line: %+v", h)
	}
	if h.Age == nil || *h.Age != 74 || h.Sex != "Male" {
		t.Fatalf("demographics: age=%v sex=%q", h.Age, h.Sex)
	}
	if err := h.CheckLeads(); err != nil {
		t.Fatalf("CheckLeads: %v", err)
	}
	g, b := h.Gains(), h.Baselines()
	if g[0] != 1000 || b[0] != 0 {
		t.Fatalf("lead I gain=%v baseline=%v", g[0], b[0])
	}
	// an explicit baseline in parentheses wins over adc zero
	if b[11] != 12 || h.Signals[11].ADCZero != 3 || h.Signals[11].Units != "mV" {
		t.Fatalf("lead V6: %+v", h.Signals[11])
	}
	dx := h.Diagnoses()
	if len(dx) != 2 || dx[0].Abbr != "RBBB" || dx[1].Abbr != "AF" {
		t.Fatalf("diagnoses = %+v", dx)
	}
}

func TestParseHeaderErrors(t *testing.T) {
	cases := map[string]string{
		"empty":          "#Age: 3\n",
		"bad frequency":  "A1 1 fast 10\nA1.mat 16 1000/mV 16 0 0 0 0 I\n",
		"missing leads":  "A1 2 500 10\nA1.mat 16 1000/mV 16 0 0 0 0 I\n",
		"short signal":   "A1 1 500 10\nA1.mat 16 1000/mV\n",
		"bad gain":       "A1 1 500 10\nA1.mat 16 x/mV 16 0 0 0 0 I\n",
		"bad adc fields": "A1 1 500 10\nA1.mat 16 1000/mV sixteen 0 0 0 0 I\n",
	}
	for name, text := range cases {
		if _, err := ParseHeader(strings.NewReader(text)); err == nil {
			t.Fatalf("%s: accepted", name)
		}
	}
}

func TestParseDiagnosis(t *testing.T) {
	cases := []struct {
		raw    string
		kind   DiagnosisKind
		abbr   string
		scored bool
	}{
		{"164889003", Coded, "AF", true},
		{"17338001", Coded, "PVC", true},
		{"63593006", Coded, "PAC", true},
		{"RBBB", AbbreviationOnly, "RBBB", true},
		{"crbbb", AbbreviationOnly, "RBBB", true},
		{"999999", AbbreviationOnly, "999999", false},
		{"Normal", AbbreviationOnly, "Normal", false},
	}
	for _, tc := range cases {
		d := ParseDiagnosis(tc.raw)
		if d.Kind != tc.kind || d.Abbr != tc.abbr || d.Scored != tc.scored {
			t.Fatalf("ParseDiagnosis(%q) = %+v", tc.raw, d)
		}
	}
	if d := ParseDiagnosis("59118001"); d.Code != "59118001" {
		t.Fatalf("code not kept: %+v", d)
	}
}

func TestRecordWaveform(t *testing.T) {
	doc := `{"name":"HR00012","layout":"channel_last","units":"mV",
		"digital":[[0,100],[500,200],[1000,300]],
		"gain":[1000,100],"baseline":[0,100],"dx":["AF","VPB"]}`
	r, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	w, tr, err := r.Waveform()
	if err != nil {
		t.Fatal(err)
	}
	if tr != ecg.TrancheE || w.Fs != 500 || w.NumLeads() != 2 || w.Len() != 3 {
		t.Fatalf("tranche %v, waveform %+v", tr, w)
	}
	if w.Signals[0][2] != 1 || w.Signals[1][2] != 2 {
		t.Fatalf("signals = %v", w.Signals)
	}
	dx := r.Diagnoses()
	if len(dx) != 2 || dx[1].Abbr != "PVC" {
		t.Fatalf("diagnoses = %+v", dx)
	}

	r.Tranche = "F"
	w, _, err = r.Waveform()
	if err != nil || w.Signals[0][2] != 4.88 {
		t.Fatalf("explicit tranche F: %v, %v", w.Signals, err)
	}
}

func TestDecodeRejectsEmpty(t *testing.T) {
	if _, err := Decode(strings.NewReader(`{"name":"A1"}`)); err == nil {
		t.Fatalf("record without samples accepted")
	}
	if _, err := Decode(strings.NewReader(`{`)); err == nil {
		t.Fatalf("truncated json accepted")
	}
}

func TestApplyHeader(t *testing.T) {
	h, err := ParseHeader(strings.NewReader(sampleHeader))
	if err != nil {
		t.Fatal(err)
	}
	var r Record
	r.ApplyHeader(h)
	if r.Name != "A0001" || len(r.Gain) != 12 || r.Baseline[11] != 12 || r.Header == nil {
		t.Fatalf("record = %+v", r)
	}
	if tr, err := r.ResolveTranche(); err != nil || tr != ecg.TrancheA {
		t.Fatalf("tranche = %v, %v", tr, err)
	}
}

func TestHeaderLeadsAndFrequencyEnforced(t *testing.T) {
	digital := make([][]float64, ecg.NumLeads)
	for i := range digital {
		digital[i] = []float64{0, float64(100 * i), 0}
	}
	load := func(hea string) error {
		h, err := ParseHeader(strings.NewReader(hea))
		if err != nil {
			t.Fatal(err)
		}
		r := Record{Digital: digital}
		r.ApplyHeader(h)
		_, _, err = r.Waveform()
		return err
	}
	if err := load(sampleHeader); err != nil {
		t.Fatalf("canonical header rejected: %v", err)
	}
	swapped := strings.NewReplacer("-1716 0 I\n", "-1716 0 II\n", "2029 0 II\n", "2029 0 I\n").Replace(sampleHeader)
	if err := load(swapped); !errors.Is(err, ecg.ErrMalformedWaveform) {
		t.Fatalf("II before I: %v", err)
	}
	resampled := strings.Replace(sampleHeader, "A0001 12 500 7500", "A0001 12 250 3750", 1)
	if err := load(resampled); !errors.Is(err, ecg.ErrCalibration) {
		t.Fatalf("250 Hz header for tranche A: %v", err)
	}
}

func TestUnitsInferredWhenAbsent(t *testing.T) {
	doc := `{"name":"A0002","digital":[[0,5000,-3000]],"gain":[1],"baseline":[0]}`
	r, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	w, _, err := r.Waveform()
	if err != nil {
		t.Fatal(err)
	}
	if w.Units != ecg.Microvolt || w.Millivolts().Signals[0][1] != 5 {
		t.Fatalf("units = %v, signals %v", w.Units, w.Signals)
	}

	mv := ecg.Millivolt
	r.Units = &mv
	if w, _, _ = r.Waveform(); w.Units != ecg.Millivolt {
		t.Fatalf("declared units overridden: %v", w.Units)
	}
}

func TestReadSamplesCSV(t *testing.T) {
	got, err := ReadSamplesCSV(strings.NewReader("I,II\n1,2\n3, 4\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1][1] != 4 {
		t.Fatalf("rows = %v", got)
	}
	if _, err := ReadSamplesCSV(strings.NewReader("1,2\n3,x\n")); err == nil {
		t.Fatalf("bad cell accepted")
	}
	if _, err := ReadSamplesCSV(strings.NewReader("I,II\n")); err == nil {
		t.Fatalf("header-only csv accepted")
	}
}
