package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hrportal/internal/platform/logging"
)

type countingRecorder struct {
	statuses []int
}

func (c *countingRecorder) Record(_ string, status int, _ time.Duration) {
	c.statuses = append(c.statuses, status)
}

func TestLoggerAndMetricsRecordStatus(t *testing.T) {
	var buf bytes.Buffer
	rec := &countingRecorder{}
	handler := RequestID(Logger(logging.NewWithWriter(&buf, "json"))(Metrics(rec)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json log line, got %q", buf.String())
	}
	if line["status"] != float64(http.StatusTeapot) || line["requestId"] != "req-42" || line["path"] != "/healthz" {
		t.Fatalf("unexpected log line %v", line)
	}
	if len(rec.statuses) != 1 || rec.statuses[0] != http.StatusTeapot {
		t.Fatalf("unexpected recorded statuses %v", rec.statuses)
	}
}
