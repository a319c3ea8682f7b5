package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", "json")
	if log.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %v", log.GetLevel())
	}
	log.WithField("record", "A0001").Info("loaded")
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("not json: %q", buf.String())
	}
	if entry["record"] != "A0001" || entry["msg"] != "loaded" {
		t.Fatalf("entry = %v", entry)
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	log := NewWithWriter(&bytes.Buffer{}, "chatty", "text")
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level = %v", log.GetLevel())
	}
}
