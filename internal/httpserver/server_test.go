package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vaultbloom/vaultbloom/internal/model"
	"github.com/vaultbloom/vaultbloom/internal/syncer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVault struct {
	logins  []model.LoginRecord
	status  model.SyncStatus
	cursor  uint64
	locked  bool
	syncErr error
	synced  int
}

func (v *stubVault) GetAllLogins() ([]model.LoginRecord, error) {
	if v.locked {
		return nil, syncer.ErrLocked
	}
	return v.logins, nil
}

func (v *stubVault) Status() (model.SyncStatus, uint64) { return v.status, v.cursor }

func (v *stubVault) WaitStatus(uint64) (model.SyncStatus, uint64) { return v.status, v.cursor }

func (v *stubVault) Sync() error {
	if v.locked {
		return syncer.ErrLocked
	}
	if v.syncErr != nil {
		return v.syncErr
	}
	v.synced++
	return nil
}

func (v *stubVault) Lock() error            { v.locked = true; return nil }
func (v *stubVault) Unlock(string) error    { v.locked = false; return nil }
func (v *stubVault) TouchLogin(string) error { return nil }
func (v *stubVault) Reset() error           { return nil }

func newTestServer(t *testing.T, vault model.VaultAPI) *gin.Engine {
	t.Helper()
	srv := NewServer("", vault)
	srv.startTime = time.Now()

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/api/health", srv.handleHealth)
	r.GET("/api/status", srv.handleStatus)
	r.GET("/api/logins", srv.handleLogins)
	r.POST("/api/sync", srv.handleSync)
	return r
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestServer(t, &stubVault{status: model.Synced()})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("health status = %v, want ok", body["status"])
	}
	if body["sync"] != "Synced" {
		t.Errorf("health sync = %v, want Synced", body["sync"])
	}
}

func TestStatusEndpoint_CarriesReasonAndCursor(t *testing.T) {
	r := newTestServer(t, &stubVault{status: model.SyncError("backend unreachable"), cursor: 9})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if body["state"] != "Error" {
		t.Errorf("state = %v, want Error", body["state"])
	}
	if body["reason"] != "backend unreachable" {
		t.Errorf("reason = %v, want backend unreachable", body["reason"])
	}
	if body["cursor"] != float64(9) {
		t.Errorf("cursor = %v, want 9", body["cursor"])
	}
}

func TestLoginsEndpoint_Redacts(t *testing.T) {
	r := newTestServer(t, &stubVault{
		status: model.Synced(),
		logins: []model.LoginRecord{
			{ID: "1", Hostname: "https://example.com", Username: "alice"},
			{ID: "2", Hostname: "https://other.example"},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/logins", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("logins status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	raw := w.Body.String()
	if strings.Contains(raw, "alice") {
		t.Fatalf("response leaks username: %s", raw)
	}

	var body struct {
		Logins []struct {
			ID          string `json:"id"`
			Hostname    string `json:"hostname"`
			HasUsername bool   `json:"has_username"`
		} `json:"logins"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal logins: %v", err)
	}
	if body.Count != 2 || len(body.Logins) != 2 {
		t.Fatalf("count = %d, logins = %d, want 2", body.Count, len(body.Logins))
	}
	if !body.Logins[0].HasUsername || body.Logins[1].HasUsername {
		t.Fatalf("has_username flags wrong: %+v", body.Logins)
	}
}

func TestLoginsEndpoint_LockedVault(t *testing.T) {
	r := newTestServer(t, &stubVault{locked: true})

	req := httptest.NewRequest(http.MethodGet, "/api/logins", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("locked logins status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestSyncEndpoint(t *testing.T) {
	vault := &stubVault{status: model.ReadyToSync()}
	r := newTestServer(t, vault)

	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("sync status = %d, want %d", w.Code, http.StatusAccepted)
	}
	if vault.synced != 1 {
		t.Errorf("sync calls = %d, want 1", vault.synced)
	}
}

func TestSyncEndpoint_NoBackend(t *testing.T) {
	r := newTestServer(t, &stubVault{syncErr: syncer.ErrNoBackend})

	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("sync status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestSyncEndpoint_WrongMethod(t *testing.T) {
	r := newTestServer(t, &stubVault{})

	req := httptest.NewRequest(http.MethodGet, "/api/sync", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// Gin reports 404 when the route exists only for another method
	if w.Code != http.StatusMethodNotAllowed && w.Code != http.StatusNotFound {
		t.Errorf("sync GET status = %d, want 405 or 404", w.Code)
	}
}
