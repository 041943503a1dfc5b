package api_test

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brianhealey/phonebook/internal/api"
	"github.com/brianhealey/phonebook/internal/auth"
	"github.com/brianhealey/phonebook/internal/config"
	"github.com/brianhealey/phonebook/internal/events"
	"github.com/brianhealey/phonebook/internal/identity"
	"github.com/brianhealey/phonebook/internal/models"
	"github.com/brianhealey/phonebook/internal/registry"
)

var seed = []models.Contact{
	{ID: "1", Name: "Arto Hellas", Number: "040-123456"},
	{ID: "2", Name: "Ada Lovelace", Number: "39-445323523"},
}

// newTestServer spins up a full router over an in-memory registry.
func newTestServer(t *testing.T, opts api.Options, initial ...models.Contact) *httptest.Server {
	t.Helper()
	return newTestServerWithAuth(t, t.TempDir(), opts, initial...)
}

func newTestServerWithAuth(t *testing.T, dataDir string, opts api.Options, initial ...models.Contact) *httptest.Server {
	t.Helper()

	bus := events.NewBus()
	reg, err := registry.New(config.NewMemStore(initial...), bus)
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}

	authSvc, err := auth.NewService(dataDir)
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}

	srv := httptest.NewServer(api.NewRouter(reg, authSvc, bus, opts))
	t.Cleanup(func() {
		srv.Close()
		authSvc.Close()
	})
	return srv
}

// do is a convenience helper for making requests to the test server.
func do(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, bodyReader)
	if err != nil {
		t.Fatalf("NewRequest %s %s: %v", method, path, err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("Do %s %s: %v", method, path, err)
	}
	return resp
}

// decodeJSON reads and decodes a JSON response body into v.
func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
}

// requireStatus fails the test if the response status doesn't match.
func requireStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status = %d, want %d; body: %s", resp.StatusCode, expected, body)
	}
}

// requireErrorMessage decodes an error body and checks its "error" field.
func requireErrorMessage(t *testing.T, resp *http.Response, want string) {
	t.Helper()
	var body map[string]any
	decodeJSON(t, resp, &body)
	if body["error"] != want {
		t.Errorf("error = %v, want %q", body["error"], want)
	}
}

// --- Tests ---

func TestListPersons(t *testing.T) {
	srv := newTestServer(t, api.Options{}, seed...)

	resp := do(t, srv, "GET", "/api/persons", "")
	requireStatus(t, resp, http.StatusOK)

	var got []models.Contact
	decodeJSON(t, resp, &got)
	if len(got) != 2 || got[0].Name != "Arto Hellas" || got[1].Name != "Ada Lovelace" {
		t.Errorf("GET /api/persons = %+v", got)
	}
}

func TestListPersons_EmptyIsArray(t *testing.T) {
	srv := newTestServer(t, api.Options{})

	resp := do(t, srv, "GET", "/api/persons", "")
	requireStatus(t, resp, http.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("body = %s, want []", body)
	}
}

func TestGetPerson(t *testing.T) {
	srv := newTestServer(t, api.Options{}, seed...)

	resp := do(t, srv, "GET", "/api/persons/2", "")
	requireStatus(t, resp, http.StatusOK)
	var c models.Contact
	decodeJSON(t, resp, &c)
	if c.Name != "Ada Lovelace" {
		t.Errorf("name = %q", c.Name)
	}

	resp = do(t, srv, "GET", "/api/persons/99", "")
	requireStatus(t, resp, http.StatusNotFound)
	requireErrorMessage(t, resp, "contact 99 not found")
}

func TestCreatePerson(t *testing.T) {
	srv := newTestServer(t, api.Options{}, seed...)

	resp := do(t, srv, "POST", "/api/persons", `{"name":"Dan Abramov","number":"12-43234345"}`)
	requireStatus(t, resp, http.StatusCreated)

	var c models.Contact
	decodeJSON(t, resp, &c)
	if c.ID == "" || c.Name != "Dan Abramov" {
		t.Errorf("created = %+v", c)
	}

	resp = do(t, srv, "GET", "/api/persons", "")
	var list []models.Contact
	decodeJSON(t, resp, &list)
	if len(list) != 3 || list[2].ID != c.ID {
		t.Errorf("created contact not appended: %+v", list)
	}
}

func TestCreatePerson_ValidationError(t *testing.T) {
	srv := newTestServer(t, api.Options{})

	resp := do(t, srv, "POST", "/api/persons", `{"name":"Al","number":"040-1234567"}`)
	requireStatus(t, resp, http.StatusBadRequest)
	requireErrorMessage(t, resp, "name too short")
}

func TestCreatePerson_InvalidJSON(t *testing.T) {
	srv := newTestServer(t, api.Options{})

	resp := do(t, srv, "POST", "/api/persons", `{not json`)
	requireStatus(t, resp, http.StatusBadRequest)
}

func TestCreatePerson_DuplicateName(t *testing.T) {
	srv := newTestServer(t, api.Options{}, seed...)

	resp := do(t, srv, "POST", "/api/persons", `{"name":"arto hellas","number":"040-7654321"}`)
	requireStatus(t, resp, http.StatusConflict)
	requireErrorMessage(t, resp, "name must be unique")
}

func TestUpdatePerson(t *testing.T) {
	srv := newTestServer(t, api.Options{}, seed...)

	resp := do(t, srv, "PUT", "/api/persons/1", `{"id":"1","name":"Arto Hellas","number":"040-999999"}`)
	requireStatus(t, resp, http.StatusOK)

	var c models.Contact
	decodeJSON(t, resp, &c)
	if c.ID != "1" || c.Number != "040-999999" {
		t.Errorf("updated = %+v", c)
	}
}

func TestUpdatePerson_UnknownID(t *testing.T) {
	srv := newTestServer(t, api.Options{}, seed...)

	resp := do(t, srv, "PUT", "/api/persons/gone", `{"name":"Arto Hellas","number":"040-999999"}`)
	requireStatus(t, resp, http.StatusNotFound)
	requireErrorMessage(t, resp, "contact gone not found")
}

func TestDeletePerson(t *testing.T) {
	srv := newTestServer(t, api.Options{}, seed...)

	resp := do(t, srv, "DELETE", "/api/persons/1", "")
	requireStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = do(t, srv, "DELETE", "/api/persons/1", "")
	requireStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestUnknownEndpoint(t *testing.T) {
	srv := newTestServer(t, api.Options{})

	resp := do(t, srv, "GET", "/api/nothing-here", "")
	requireStatus(t, resp, http.StatusNotFound)
	requireErrorMessage(t, resp, "unknown endpoint")
}

func TestInfo_Text(t *testing.T) {
	srv := newTestServer(t, api.Options{}, seed...)

	resp := do(t, srv, "GET", "/info", "")
	requireStatus(t, resp, http.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.HasPrefix(string(body), "Phonebook has info for 2 people\n") {
		t.Errorf("body = %q", body)
	}
}

func TestInfo_JSON(t *testing.T) {
	srv := newTestServer(t, api.Options{Identity: identity.Info{Hostname: "box", Version: "1.0.0"}}, seed...)

	req, _ := http.NewRequest("GET", srv.URL+"/info", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	requireStatus(t, resp, http.StatusOK)
	var info models.Info
	decodeJSON(t, resp, &info)
	if info.Count != 2 || info.Version != "1.0.0" || info.Hostname != "box" {
		t.Errorf("info = %+v", info)
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	srv := newTestServer(t, api.Options{}, seed...)

	resp := do(t, srv, "GET", "/healthz", "")
	requireStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = do(t, srv, "GET", "/api/persons", "")
	resp.Body.Close()

	resp = do(t, srv, "GET", "/metrics", "")
	requireStatus(t, resp, http.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "phonebook_contacts 2") {
		t.Error("metrics missing phonebook_contacts gauge")
	}
	if !strings.Contains(string(body), "phonebook_sse_subscribers 0") {
		t.Error("metrics missing phonebook_sse_subscribers gauge")
	}
	if !strings.Contains(string(body), `http_requests_total{method="GET",path="/api/persons",status="200"}`) {
		t.Errorf("metrics missing request counter:\n%s", body)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, api.Options{})

	resp := do(t, srv, "OPTIONS", "/api/persons", "")
	requireStatus(t, resp, http.StatusNoContent)
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q", got)
	}
	resp.Body.Close()
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, api.Options{RateLimit: 0.001, RateBurst: 2})

	for i := 0; i < 2; i++ {
		resp := do(t, srv, "GET", "/api/persons", "")
		requireStatus(t, resp, http.StatusOK)
		resp.Body.Close()
	}
	resp := do(t, srv, "GET", "/api/persons", "")
	requireStatus(t, resp, http.StatusTooManyRequests)
	requireErrorMessage(t, resp, "too many requests")

	// Unlimited endpoints stay reachable.
	resp = do(t, srv, "GET", "/healthz", "")
	requireStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()
}

func TestRateLimit_IgnoresForwardedFor(t *testing.T) {
	srv := newTestServer(t, api.Options{RateLimit: 0.001, RateBurst: 1})

	limited := 0
	for i := 0; i < 5; i++ {
		req, err := http.NewRequest("GET", srv.URL+"/api/persons", nil)
		if err != nil {
			t.Fatalf("NewRequest: %v", err)
		}
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("10.0.1.%d", i))
		resp, err := srv.Client().Do(req)
		if err != nil {
			t.Fatalf("Do: %v", err)
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			limited++
		}
		resp.Body.Close()
	}
	if limited != 4 {
		t.Errorf("rate-limited = %d, want 4", limited)
	}
}

func TestAuth_SecuredMode(t *testing.T) {
	dataDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataDir, auth.KeysFileName), []byte(`{"admin":{"access_key":"s3cret"}}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	srv := newTestServerWithAuth(t, dataDir, api.Options{}, seed...)

	resp := do(t, srv, "GET", "/api/persons", "")
	requireStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	req, _ := http.NewRequest("GET", srv.URL+"/api/persons", nil)
	req.Header.Set(auth.HeaderAPIKey, "s3cret")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// /info stays public
	resp = do(t, srv, "GET", "/info", "")
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestSSE_SnapshotThenChanges(t *testing.T) {
	srv := newTestServer(t, api.Options{}, seed...)

	resp := do(t, srv, "GET", "/api/subscribe", "")
	requireStatus(t, resp, http.StatusOK)
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	lines := make(chan string, 32)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	next := func() string {
		t.Helper()
		for {
			select {
			case l, ok := <-lines:
				if !ok {
					t.Fatal("stream closed")
				}
				// Skip blank separators, ids and heartbeats.
				if l != "" && !strings.HasPrefix(l, "id:") && !strings.HasPrefix(l, ":") {
					return l
				}
			case <-time.After(2 * time.Second):
				t.Fatal("timed out waiting for SSE line")
			}
		}
	}

	if got := next(); got != "event: snapshot" {
		t.Fatalf("first line = %q, want snapshot event", got)
	}
	if got := next(); !strings.Contains(got, "Arto Hellas") {
		t.Fatalf("snapshot data = %q", got)
	}

	created := do(t, srv, "POST", "/api/persons", `{"name":"Dan Abramov","number":"12-43234345"}`)
	requireStatus(t, created, http.StatusCreated)
	created.Body.Close()

	if got := next(); got != "event: created" {
		t.Fatalf("line = %q, want created event", got)
	}
	if got := next(); !strings.Contains(got, "Dan Abramov") {
		t.Fatalf("created data = %q", got)
	}
}
