package vault

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// recordedCall captures one request the fake Vault server saw.
type recordedCall struct {
	Method string
	Path   string
	Body   map[string]any
}

// fakeVault is an httptest-backed Vault stand-in. Handlers are keyed by
// "METHOD path"; unmatched requests answer 404 with an empty errors list.
type fakeVault struct {
	t        *testing.T
	server   *httptest.Server
	handlers map[string]http.HandlerFunc

	mu    sync.Mutex
	calls []recordedCall
}

func newFakeVault(t *testing.T) *fakeVault {
	t.Helper()
	f := &fakeVault{t: t, handlers: map[string]http.HandlerFunc{}}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeVault) handle(method, path string, h http.HandlerFunc) {
	f.handlers[method+" "+path] = h
}

func (f *fakeVault) respond(method, path string, status int, body string) {
	f.handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	})
}

func (f *fakeVault) serve(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&body)
	}

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{Method: r.Method, Path: r.URL.Path, Body: body})
	f.mu.Unlock()

	if r.Header.Get("X-Vault-Token") == "" {
		f.t.Errorf("request %s %s missing X-Vault-Token header", r.Method, r.URL.Path)
	}

	if h, ok := f.handlers[r.Method+" "+r.URL.Path]; ok {
		h(w, r)
		return
	}
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"errors":[]}`))
}

func (f *fakeVault) recorded() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

func (f *fakeVault) client(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(Config{Address: f.server.URL, Token: "test-token"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{Token: "t"}); err == nil {
		t.Fatal("expected error for missing address")
	}
	if _, err := NewClient(Config{Address: "http://127.0.0.1:8200"}); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestRequestDecodesErrorEnvelope(t *testing.T) {
	f := newFakeVault(t)
	f.respond(http.MethodGet, "/v1/secret/data/missing", http.StatusForbidden,
		`{"errors":["permission denied","token expired"]}`)

	_, err := f.client(t).ReadSecret(context.Background(), "secret", "missing")
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", apiErr.StatusCode)
	}
	if got, want := apiErr.Error(), "permission denied, token expired"; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
}

func TestRequestMarksClientDeadOnTransportFailure(t *testing.T) {
	f := newFakeVault(t)
	client := f.client(t)
	f.server.Close()

	_, err := client.ListMounts(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := err.(*TransportError); !ok {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}
	if client.Alive() {
		t.Error("client should be dead after transport failure")
	}
}

func TestNormalizePath(t *testing.T) {
	for in, want := range map[string]string{
		"secret":    "secret",
		"secret/":   "secret",
		"secret///": "secret",
		"a/b/c/":    "a/b/c",
		"":          "",
	} {
		if got := NormalizePath(in); got != want {
			t.Errorf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
