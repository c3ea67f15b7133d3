package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shaiso/Valora/internal/domain"
)

type fakeConn struct {
	status domain.ConnectionStatus
}

func (c *fakeConn) Status() domain.ConnectionStatus { return c.status }

func newTestHandler(r *Readiness, conn ConnectionInfo) *Handler {
	return NewHandler(Config{
		Readiness: r,
		Conn:      conn,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func doHealth(t *testing.T, h *Handler) (int, healthResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rec.Code, resp
}

func TestHealth_Initializing(t *testing.T) {
	r := NewReadiness("database", "broker")
	h := newTestHandler(r, &fakeConn{status: domain.ConnInitializing})

	code, resp := doHealth(t, h)

	// Во время инициализации проба отвечает успехом,
	// иначе супервизор убьёт стартующий процесс
	if code != http.StatusOK {
		t.Errorf("status code = %d, want 200 during initialization", code)
	}
	if resp.Status != "initializing" {
		t.Errorf("status = %q, want initializing", resp.Status)
	}
	if resp.Services["database"] != "not_initialized" {
		t.Errorf("database = %q, want not_initialized", resp.Services["database"])
	}
}

func TestHealth_Healthy(t *testing.T) {
	r := NewReadiness("database", "broker")
	r.SetReady("database")
	r.SetReady("broker")
	r.MarkStarted()

	h := newTestHandler(r, &fakeConn{status: domain.ConnConnected})

	code, resp := doHealth(t, h)

	if code != http.StatusOK {
		t.Errorf("status code = %d, want 200", code)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
	if resp.Connection != string(domain.ConnConnected) {
		t.Errorf("connection = %q, want connected", resp.Connection)
	}
	if resp.Services["database"] != "initialized" || resp.Services["broker"] != "initialized" {
		t.Errorf("services = %v", resp.Services)
	}
}

func TestHealth_UnhealthyService(t *testing.T) {
	r := NewReadiness("database", "broker")
	r.SetReady("broker")
	r.MarkStarted()

	h := newTestHandler(r, &fakeConn{status: domain.ConnConnected})

	code, resp := doHealth(t, h)

	if code != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want 503", code)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("status = %q, want unhealthy", resp.Status)
	}
}

func TestHealth_UnhealthyConnection(t *testing.T) {
	r := NewReadiness("database")
	r.SetReady("database")
	r.MarkStarted()

	h := newTestHandler(r, &fakeConn{status: domain.ConnReconnecting})

	code, resp := doHealth(t, h)

	if code != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want 503", code)
	}
	if resp.Connection != string(domain.ConnReconnecting) {
		t.Errorf("connection = %q, want reconnecting", resp.Connection)
	}
}

func TestRoutes_MetricsExposed(t *testing.T) {
	r := NewReadiness()
	r.MarkStarted()

	mux := http.NewServeMux()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	RegisterRoutes(mux, newTestHandler(r, &fakeConn{status: domain.ConnConnected}), logger)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("metrics status code = %d, want 200", rec.Code)
	}
}
