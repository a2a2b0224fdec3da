package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/relatorlabs/beacon/logger"
	"github.com/relatorlabs/beacon/registry"
	"github.com/relatorlabs/beacon/server"
)

const testSecret = "test-api-key"

func newTestRouter(t *testing.T) (*gin.Engine, *registry.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	RegisterValidators()

	log := logger.NewDefault("test")
	store := registry.NewStore()
	leases := registry.NewLeaseManager(30 * time.Second)
	svc := registry.NewService(store, leases, log)

	srv := server.New(server.Config{Host: "127.0.0.1", Port: 0, APIKey: testSecret}, log)
	Routes(srv, NewHandlers(svc, log), testSecret)
	return srv.GinEngine(), svc
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+testSecret)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAPI_Health_NoAuthRequired(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, path := range []string{"/", "/health"} {
		w := doJSON(t, r, http.MethodGet, path, "", false)
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200 without auth, got %d", path, w.Code)
		}

		var resp HealthResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: bad body: %v", path, err)
		}
		if resp.Status != "ok" {
			t.Errorf("%s: expected status ok, got %q", path, resp.Status)
		}
		if resp.Registered != 0 {
			t.Errorf("%s: expected 0 registered, got %d", path, resp.Registered)
		}
	}
}

func TestAPI_ProtectedRoutes_RequireAuth(t *testing.T) {
	r, svc := newTestRouter(t)

	cases := []struct{ method, path, body string }{
		{http.MethodPost, "/register", `{"name":"tts","host":"10.0.0.5","port":50053}`},
		{http.MethodGet, "/discover/tts", ""},
		{http.MethodGet, "/services", ""},
		{http.MethodDelete, "/unregister/tts", ""},
	}
	for _, tc := range cases {
		w := doJSON(t, r, tc.method, tc.path, tc.body, false)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", tc.method, tc.path, w.Code)
		}
	}

	// The rejected register must not have touched the store.
	if svc.LiveCount() != 0 {
		t.Error("unauthorized register mutated the store")
	}
}

func TestAPI_Register_ThenDiscover(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/register",
		`{"name":"tts","host":"10.0.0.5","port":50053,"metadata":{"protocol":"grpc"}}`, true)
	if w.Code != http.StatusOK {
		t.Fatalf("register: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var reg RegisterResponse
	if err := json.Unmarshal(w.Body.Bytes(), &reg); err != nil {
		t.Fatal(err)
	}
	if reg.Endpoint != "10.0.0.5:50053" {
		t.Errorf("expected endpoint 10.0.0.5:50053, got %q", reg.Endpoint)
	}
	if reg.ExpiresAt.IsZero() {
		t.Error("expected expires_at to be set")
	}

	w = doJSON(t, r, http.MethodGet, "/discover/tts", "", true)
	if w.Code != http.StatusOK {
		t.Fatalf("discover: expected 200, got %d", w.Code)
	}
	var disc ServiceResponse
	if err := json.Unmarshal(w.Body.Bytes(), &disc); err != nil {
		t.Fatal(err)
	}
	if disc.Host != "10.0.0.5" || disc.Port != 50053 {
		t.Errorf("unexpected discover response: %+v", disc)
	}
	if disc.Metadata["protocol"] != "grpc" {
		t.Errorf("metadata not passed through: %v", disc.Metadata)
	}
}

func TestAPI_Register_Overwrite(t *testing.T) {
	r, _ := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/register", `{"name":"tts","host":"10.0.0.5","port":50053}`, true)
	w := doJSON(t, r, http.MethodPost, "/register", `{"name":"tts","host":"10.0.0.5","port":50099}`, true)
	if w.Code != http.StatusOK {
		t.Fatalf("re-register: expected 200 (no conflict), got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/discover/tts", "", true)
	var disc ServiceResponse
	_ = json.Unmarshal(w.Body.Bytes(), &disc)
	if disc.Port != 50099 {
		t.Errorf("expected port 50099 after overwrite, got %d", disc.Port)
	}
}

func TestAPI_Register_InvalidPayload(t *testing.T) {
	r, _ := newTestRouter(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"host":"10.0.0.5","port":50053}`},
		{"missing host", `{"name":"tts","port":50053}`},
		{"missing port", `{"name":"tts","host":"10.0.0.5"}`},
		{"port out of range", `{"name":"tts","host":"10.0.0.5","port":99999}`},
		{"bad service name", `{"name":"TTS Service!","host":"10.0.0.5","port":50053}`},
		{"not json", `port=50053`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/register", tc.body, true)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestAPI_Discover_NotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/discover/ghost", "", true)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error.Code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND code, got %q", resp.Error.Code)
	}
}

func TestAPI_List(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/services", "", true)
	var empty ListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &empty)
	if empty.Count != 0 || len(empty.Services) != 0 {
		t.Errorf("expected empty list, got %+v", empty)
	}

	for _, body := range []string{
		`{"name":"events","host":"10.0.0.1","port":50051}`,
		`{"name":"commentary","host":"10.0.0.2","port":50052}`,
		`{"name":"tts","host":"10.0.0.3","port":50053}`,
	} {
		doJSON(t, r, http.MethodPost, "/register", body, true)
	}

	w = doJSON(t, r, http.MethodGet, "/services", "", true)
	var resp ListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 3 || len(resp.Services) != 3 {
		t.Fatalf("expected 3 services, got count=%d len=%d", resp.Count, len(resp.Services))
	}
}

func TestAPI_Unregister_Idempotent(t *testing.T) {
	r, _ := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/register", `{"name":"tts","host":"10.0.0.5","port":50053}`, true)

	w := doJSON(t, r, http.MethodDelete, "/unregister/tts", "", true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp UnregisterResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Removed {
		t.Error("expected removed=true")
	}

	w = doJSON(t, r, http.MethodDelete, "/unregister/tts", "", true)
	if w.Code != http.StatusOK {
		t.Fatalf("unregister of absent name must not error, got %d", w.Code)
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Removed {
		t.Error("expected removed=false for absent name")
	}
}

func TestAPI_Health_CountsRegistrations(t *testing.T) {
	r, _ := newTestRouter(t)

	doJSON(t, r, http.MethodPost, "/register", `{"name":"tts","host":"10.0.0.5","port":50053}`, true)

	w := doJSON(t, r, http.MethodGet, "/", "", false)
	var resp HealthResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Registered != 1 {
		t.Errorf("expected registered=1, got %d", resp.Registered)
	}
}

func TestAPI_Metrics_NoAuthRequired(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/metrics", "", false)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for unauthenticated metrics scrape, got %d", w.Code)
	}
}
