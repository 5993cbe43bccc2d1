package cmdlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"spreadscope/internal/logging"
	"spreadscope/internal/metrics"
)

func TestRunRecordsSuccessAndFailure(t *testing.T) {
	var buf bytes.Buffer
	logging.Default().SetOutput(&buf)
	t.Cleanup(func() { logging.Default().SetOutput(os.Stdout) })

	if err := Run("ping", func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	boom := errors.New("boom")
	if err := Run("ping", func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, m := range []string{
		`spreadscope_command_runs_total{command="ping"} 2`,
		`spreadscope_command_errors_total{command="ping"} 1`,
	} {
		if !strings.Contains(body, m) {
			t.Fatalf("expected %s in metrics", m)
		}
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), buf.String())
	}
	var last map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &last); err != nil {
		t.Fatalf("log line not json: %v", err)
	}
	if last["msg"] != "ping_error" || last["error"] != "boom" || last["level"] != "error" {
		t.Fatalf("unexpected log entry: %v", last)
	}
}
