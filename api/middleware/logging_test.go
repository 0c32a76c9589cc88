package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nivedithavs/trendora-backend/pkg/logger"
)

func TestLoggingRecordsStatusAndCompletes(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})

	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 passed through, got %d", w.Code)
	}
	if w.Body.String() != "missing" {
		t.Fatalf("body must pass through unchanged, got %q", w.Body.String())
	}
	out := buf.String()
	if !strings.Contains(out, "request.complete") {
		t.Fatalf("expected completion log, got %s", out)
	}
	if !strings.Contains(out, `"status":404`) {
		t.Fatalf("expected recorded status in log, got %s", out)
	}
}

func TestLoggingDefaultsImplicitStatusToOK(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})

	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), `"status":200`) {
		t.Fatalf("expected implicit 200 in log, got %s", buf.String())
	}
}
