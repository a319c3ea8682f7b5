package record

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/maastricht-university/ecg-pipeline/ecg"
)

// Signal describes one lead line of a WFDB header.
type Signal struct {
	File      string  `json:"file"`
	Format    string  `json:"format"`
	Gain      float64 `json:"gain"`
	Baseline  float64 `json:"baseline"`
	Units     string  `json:"units"`
	ADCRes    int     `json:"adc_res"`
	ADCZero   int     `json:"adc_zero"`
	InitValue int     `json:"init_value"`
	Checksum  int     `json:"checksum"`
	BlockSize int     `json:"block_size"`
	Lead      string  `json:"lead"`
}

// Header is a parsed WFDB .hea file with the challenge comment fields.
type Header struct {
	Record   string   `json:"record"`
	NLeads   int      `json:"n_leads"`
	Fs       float64  `json:"fs"`
	NSamples int      `json:"n_samples"`
	Date     string   `json:"date,omitempty"`
	Time     string   `json:"time,omitempty"`
	Signals  []Signal `json:"signals"`
	Age      *int     `json:"age,omitempty"`
	Sex      string   `json:"sex,omitempty"`
	Dx       string   `json:"dx,omitempty"`
	Rx       string   `json:"rx,omitempty"`
	Hx       string   `json:"hx,omitempty"`
	Sx       string   `json:"sx,omitempty"`
}

// ParseHeader reads a WFDB header: the record line, one line per signal and
// "#Key: value" comments.
func ParseHeader(r io.Reader) (Header, error) {
	var h Header
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			h.comment(strings.TrimSpace(strings.TrimPrefix(text, "#")))
			continue
		}
		line++
		var err error
		if line == 1 {
			err = h.recordLine(text)
		} else {
			err = h.signalLine(text)
		}
		if err != nil {
			return Header{}, fmt.Errorf("header line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return Header{}, err
	}
	if line == 0 {
		return Header{}, fmt.Errorf("header: no record line")
	}
	if len(h.Signals) != h.NLeads {
		return Header{}, fmt.Errorf("header: %d signal lines for %d leads", len(h.Signals), h.NLeads)
	}
	return h, nil
}

func (h *Header) recordLine(text string) error {
	f := strings.Fields(text)
	if len(f) < 3 {
		return fmt.Errorf("record line %q: need name, signals, frequency", text)
	}
	h.Record = f[0]
	var err error
	if h.NLeads, err = strconv.Atoi(f[1]); err != nil {
		return fmt.Errorf("number of signals: %w", err)
	}
	// the frequency may carry a counter frequency ("500/1000")
	fsField, _, _ := strings.Cut(f[2], "/")
	if h.Fs, err = strconv.ParseFloat(fsField, 64); err != nil {
		return fmt.Errorf("sampling frequency: %w", err)
	}
	if len(f) > 3 {
		if h.NSamples, err = strconv.Atoi(f[3]); err != nil {
			return fmt.Errorf("number of samples: %w", err)
		}
	}
	if len(f) > 4 {
		h.Date = f[4]
	}
	if len(f) > 5 {
		h.Time = f[5]
	}
	return nil
}

func (h *Header) signalLine(text string) error {
	f := strings.Fields(text)
	if len(f) < 9 {
		return fmt.Errorf("signal line %q: need 9 fields, got %d", text, len(f))
	}
	s := Signal{File: f[0], Format: f[1], Lead: strings.Join(f[8:], " ")}

	// gain field: "1000/mV", "1000(0)/mV" or "1000"
	gainField, units, _ := strings.Cut(f[2], "/")
	s.Units = units
	baseline := ""
	if i := strings.IndexByte(gainField, '('); i >= 0 && strings.HasSuffix(gainField, ")") {
		baseline = gainField[i+1 : len(gainField)-1]
		gainField = gainField[:i]
	}
	var err error
	if s.Gain, err = strconv.ParseFloat(gainField, 64); err != nil {
		return fmt.Errorf("gain: %w", err)
	}
	ints := []*int{&s.ADCRes, &s.ADCZero, &s.InitValue, &s.Checksum, &s.BlockSize}
	for k, p := range ints {
		if *p, err = strconv.Atoi(f[3+k]); err != nil {
			return fmt.Errorf("field %d: %w", 4+k, err)
		}
	}
	s.Baseline = float64(s.ADCZero)
	if baseline != "" {
		if s.Baseline, err = strconv.ParseFloat(baseline, 64); err != nil {
			return fmt.Errorf("baseline: %w", err)
		}
	}
	h.Signals = append(h.Signals, s)
	return nil
}

func (h *Header) comment(text string) {
	key, val, ok := strings.Cut(text, ":")
	if !ok {
		return
	}
	val = strings.TrimSpace(val)
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "age":
		if a, err := strconv.Atoi(val); err == nil {
			h.Age = &a
		}
	case "sex":
		h.Sex = val
	case "dx":
		h.Dx = val
	case "rx":
		h.Rx = val
	case "hx":
		h.Hx = val
	case "sx":
		h.Sx = val
	}
}

func (h Header) Gains() []float64 {
	out := make([]float64, len(h.Signals))
	for i, s := range h.Signals {
		out[i] = s.Gain
	}
	return out
}

func (h Header) Baselines() []float64 {
	out := make([]float64, len(h.Signals))
	for i, s := range h.Signals {
		out[i] = s.Baseline
	}
	return out
}

// Diagnoses parses the #Dx comment.
func (h Header) Diagnoses() []Diagnosis { return ParseDiagnoses(h.Dx) }

// CheckLeads verifies the signals are the 12 standard leads in canonical
// order.
func (h Header) CheckLeads() error {
	if len(h.Signals) != ecg.NumLeads {
		return fmt.Errorf("header has %d leads, want %d", len(h.Signals), ecg.NumLeads)
	}
	for i, s := range h.Signals {
		l, err := ecg.ParseLead(s.Lead)
		if err != nil {
			return err
		}
		if int(l) != i {
			return fmt.Errorf("lead %q at position %d, want %v", s.Lead, i, ecg.Lead(i))
		}
	}
	return nil
}
