package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
		"warning": slog.LevelWarn,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentWorker, Output: &buf})

	logger.Debug("hidden")
	logger.Info("visible", FieldUserID, "u1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec[FieldComponent] != ComponentWorker || rec[FieldUserID] != "u1" {
		t.Errorf("unexpected record %v", rec)
	}
	if logger.Component() != ComponentWorker {
		t.Errorf("unexpected component %s", logger.Component())
	}
}

func TestMiddlewareAndEnrich(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "text", Output: &buf})

	h := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = Enrich(r, FieldRequestID, "req-1")
		FromContext(r.Context()).Info("handled")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Errorf("expected request id in log, got %q", buf.String())
	}
	if FromContext(context.Background()) != slog.Default() {
		t.Errorf("expected default logger without context value")
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().WithUser("").WithError(errors.New("boom"), "READ_ERROR").WithHTTPResponse(502, 12)
	if _, ok := f[FieldUserID]; ok {
		t.Errorf("empty user id should be omitted")
	}
	if f[FieldErrorCode] != "READ_ERROR" || f[FieldSuccess] != false {
		t.Errorf("unexpected fields %v", f)
	}
	if got := len(f.ToSlice()); got != 2*len(f) {
		t.Errorf("expected %d slice entries, got %d", 2*len(f), got)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "text", Output: &buf}).With("service", "tutorbook")
	logger.WithComponent(ComponentHTTP).Info("ready")

	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=http") {
		t.Errorf("expected a single http component, got %q", out)
	}
	if !strings.Contains(out, "service=tutorbook") {
		t.Errorf("expected inherited attribute, got %q", out)
	}
}
