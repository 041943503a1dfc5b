package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brianhealey/phonebook/internal/auth"
)

// writeKeysJSON writes keys.json to dir.
func writeKeysJSON(t *testing.T, dir string, keys map[string]auth.Key) {
	t.Helper()
	data, err := json.Marshal(keys)
	if err != nil {
		t.Fatalf("json.Marshal keys: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, auth.KeysFileName), data, 0644); err != nil {
		t.Fatalf("WriteFile keys.json: %v", err)
	}
}

func newService(t *testing.T, dir string) *auth.Service {
	t.Helper()
	svc, err := auth.NewService(dir)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

func newSecuredService(t *testing.T, accessKey string) *auth.Service {
	t.Helper()
	dir := t.TempDir()
	writeKeysJSON(t, dir, map[string]auth.Key{"admin": {AccessKey: accessKey}})
	return newService(t, dir)
}

// serve runs a request through the middleware and reports whether the inner handler ran.
func serve(svc *auth.Service, req *http.Request) (*httptest.ResponseRecorder, bool) {
	reached := false
	h := svc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, reached
}

// --- Open mode ---

func TestService_OpenMode_IsOpenMode(t *testing.T) {
	svc := newService(t, t.TempDir())
	if !svc.IsOpenMode() {
		t.Error("IsOpenMode() = false, want true when no keys.json")
	}
}

// accepts reports whether svc authenticates key.
func accepts(svc *auth.Service, key string) bool {
	_, ok := svc.Authenticate(key)
	return ok
}

func TestService_OpenMode_RejectsEverything(t *testing.T) {
	svc := newService(t, t.TempDir())
	if accepts(svc, "") {
		t.Error("accepts(\"\") = true, want false")
	}
	if accepts(svc, "any-key-at-all") {
		t.Error("accepts(any) = true with no keys, want false")
	}
}

func TestService_BlankKeysAreOpenMode(t *testing.T) {
	dir := t.TempDir()
	writeKeysJSON(t, dir, map[string]auth.Key{"admin": {AccessKey: ""}})
	svc := newService(t, dir)
	if !svc.IsOpenMode() {
		t.Error("IsOpenMode() = false, want true when all keys are blank")
	}
}

func TestMiddleware_OpenMode_PassesThrough(t *testing.T) {
	svc := newService(t, t.TempDir())
	rec, reached := serve(svc, httptest.NewRequest(http.MethodGet, "/api/persons", nil))
	if !reached || rec.Code != http.StatusOK {
		t.Errorf("open mode: reached=%v status=%d, want pass-through", reached, rec.Code)
	}
}

// --- Secured mode ---

func TestService_SecuredMode(t *testing.T) {
	svc := newSecuredService(t, "secret-key")
	if svc.IsOpenMode() {
		t.Error("IsOpenMode() = true, want false")
	}
	if !accepts(svc, "secret-key") {
		t.Error("accepts(correct) = false")
	}
	if accepts(svc, "wrong") {
		t.Error("accepts(wrong) = true")
	}
}

func TestMiddleware_SecuredMode_Header_Passes(t *testing.T) {
	svc := newSecuredService(t, "secret-key")
	req := httptest.NewRequest(http.MethodGet, "/api/persons", nil)
	req.Header.Set(auth.HeaderAPIKey, "secret-key")

	if _, reached := serve(svc, req); !reached {
		t.Error("valid header key was rejected")
	}
}

func TestMiddleware_SecuredMode_QueryParam_Passes(t *testing.T) {
	svc := newSecuredService(t, "secret-key")
	req := httptest.NewRequest(http.MethodGet, "/api/persons?api-key=secret-key", nil)

	if _, reached := serve(svc, req); !reached {
		t.Error("valid query key was rejected")
	}
}

func TestMiddleware_SecuredMode_WrongKey_Unauthorized(t *testing.T) {
	svc := newSecuredService(t, "secret-key")
	req := httptest.NewRequest(http.MethodGet, "/api/persons", nil)
	req.Header.Set(auth.HeaderAPIKey, "nope")

	rec, reached := serve(svc, req)
	if reached {
		t.Fatal("wrong key reached the handler")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "authentication required" {
		t.Errorf("error = %v, want %q", body["error"], "authentication required")
	}
}

func TestService_Reload(t *testing.T) {
	dir := t.TempDir()
	svc := newService(t, dir)

	writeKeysJSON(t, dir, map[string]auth.Key{"admin": {AccessKey: "k1"}})
	if err := svc.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if !accepts(svc, "k1") {
		t.Error("accepts(k1) = false after Reload")
	}

	if err := os.Remove(filepath.Join(dir, auth.KeysFileName)); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := svc.Reload(); err != nil {
		t.Fatalf("Reload after remove: %v", err)
	}
	if !svc.IsOpenMode() {
		t.Error("IsOpenMode() = false after keys file removed")
	}
}

func TestService_WatcherPicksUpNewKeys(t *testing.T) {
	dir := t.TempDir()
	svc := newService(t, dir)

	writeKeysJSON(t, dir, map[string]auth.Key{"admin": {AccessKey: "watched"}})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if accepts(svc, "watched") {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Skip("fsnotify did not deliver an event in time; watcher may be unavailable here")
}

func TestService_CorruptKeysFile_Error(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, auth.KeysFileName), []byte("{nope"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := auth.NewService(dir); err == nil {
		t.Error("NewService with corrupt keys.json: want error")
	}
}

func TestService_DisabledKey(t *testing.T) {
	dir := t.TempDir()
	writeKeysJSON(t, dir, map[string]auth.Key{
		"alice": {AccessKey: "alice-key"},
		"bob":   {AccessKey: "bob-key", Disabled: true},
	})
	svc := newService(t, dir)

	if !accepts(svc, "alice-key") {
		t.Error("enabled key rejected")
	}
	if accepts(svc, "bob-key") {
		t.Error("disabled key accepted")
	}
}

func TestService_OnlyDisabledKeysStaySecured(t *testing.T) {
	dir := t.TempDir()
	writeKeysJSON(t, dir, map[string]auth.Key{"bob": {AccessKey: "bob-key", Disabled: true}})
	svc := newService(t, dir)

	if svc.IsOpenMode() {
		t.Error("IsOpenMode() = true with a disabled key configured")
	}
}

func TestMiddleware_OwnerInContext(t *testing.T) {
	dir := t.TempDir()
	writeKeysJSON(t, dir, map[string]auth.Key{"alice": {AccessKey: "alice-key"}})
	svc := newService(t, dir)

	var owner string
	h := svc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner = auth.OwnerFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/persons", nil)
	req.Header.Set(auth.HeaderAPIKey, "alice-key")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if owner != "alice" {
		t.Errorf("owner = %q, want alice", owner)
	}
}

func TestService_ReloadKeepsKeysOnParseError(t *testing.T) {
	dir := t.TempDir()
	writeKeysJSON(t, dir, map[string]auth.Key{"admin": {AccessKey: "k1"}})
	svc := newService(t, dir)

	if err := os.WriteFile(filepath.Join(dir, auth.KeysFileName), []byte("{half"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := svc.Reload(); err == nil {
		t.Fatal("Reload of a corrupt file: want error")
	}
	if !accepts(svc, "k1") {
		t.Error("previous key lost after a failed reload")
	}
}
