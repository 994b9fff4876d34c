package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegisterHTTP_HealthAndReadiness(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	registerHTTP(mux, discardLogger(), Config{}, nil, false, nil, nil)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rr.Code)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("readyz status=%d", rr.Code)
	}
}

func TestRegisterHTTP_ReadinessRequiresDB(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	registerHTTP(mux, discardLogger(), Config{ReadinessRequireDB: true}, nil, false, nil, nil)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d want 503", rr.Code)
	}
}

func TestNew_MemoryModeServesAuthAndMetrics(t *testing.T) {
	t.Setenv("LABLINK_JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("LABLINK_DATABASE_URL", "")
	t.Setenv("LABLINK_KAKAO_CLIENT_ID", "")
	t.Setenv("LABLINK_GOOGLE_CLIENT_ID", "")

	a, err := New(LoadConfig(), discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.dbEnabled {
		t.Fatalf("expected in-memory mode without database url")
	}

	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.auth, a.metricsReg)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Fatalf("metrics output missing runtime collectors")
	}

	// Auth routes are mounted even in memory mode; an empty store just
	// rejects the credentials.
	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.c","password":"pw"}`))
	req.Header.Set("Content-Type", "application/json")
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("login against empty store status=%d want 401", rr.Code)
	}
}
