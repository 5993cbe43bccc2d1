package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewWithWriterEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug")
	l.WithFields(Fields{"analysis_id": "a1"}).Info("analysis_completed")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("not json: %v (%q)", err, buf.String())
	}
	if line["msg"] != "analysis_completed" || line["analysis_id"] != "a1" || line["level"] != "info" {
		t.Fatalf("unexpected entry: %v", line)
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	if got := ParseLevel("nonsense"); got != logrus.InfoLevel {
		t.Fatalf("want info, got %v", got)
	}
	if got := ParseLevel(" warn "); got != logrus.WarnLevel {
		t.Fatalf("want warn, got %v", got)
	}
}

func TestOrUsesDefault(t *testing.T) {
	if Or(nil) != Default() {
		t.Fatalf("nil logger should resolve to the default")
	}
	l := New("error")
	if Or(l) != l {
		t.Fatalf("explicit logger should be kept")
	}
}
