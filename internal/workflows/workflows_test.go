// SPDX-License-Identifier: MPL-2.0

package workflows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"nugo-cli/internal/registry"
	"nugo-cli/internal/transport"
	"nugo-cli/pkg/semver"
)

// mockRegistry is an in-memory v3-style registry: a service index plus
// publish, search, and registration endpoints, enough to drive every
// workflow end to end.
type mockRegistry struct {
	t   *testing.T
	srv *httptest.Server

	mu            sync.Mutex
	published     map[string]bool // "id@version" (lowercase) -> listed
	apiKey        string          // expected X-NuGet-ApiKey on mutations
	listingHits   int             // round trips seen by the listing endpoint
	listingStatus int             // when non-zero, every listing request gets this status
}

func newMockRegistry(t *testing.T, apiKey string) *mockRegistry {
	t.Helper()
	m := &mockRegistry{t: t, published: make(map[string]bool), apiKey: apiKey}
	mux := http.NewServeMux()
	mux.HandleFunc("/index.json", m.serveIndex)
	mux.HandleFunc("/publish", m.servePublish)
	mux.HandleFunc("/publish/", m.serveListing)
	mux.HandleFunc("/query", m.serveSearch)
	mux.HandleFunc("/registrations/", m.serveRegistration)
	m.srv = httptest.NewServer(mux)
	t.Cleanup(m.srv.Close)
	return m
}

func (m *mockRegistry) source() string { return m.srv.URL + "/index.json" }

func (m *mockRegistry) serveIndex(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, `{
		"version": "3.0.0",
		"resources": [
			{"@id": "%[1]s/publish", "@type": "PackagePublish/2.0.0"},
			{"@id": "%[1]s/query", "@type": "SearchQueryService/3.5.0"},
			{"@id": "%[1]s/registrations", "@type": "RegistrationsBaseUrl/3.6.0"}
		]
	}`, m.srv.URL)
}

func (m *mockRegistry) authorized(r *http.Request) bool {
	return r.Header.Get(transport.APIKeyHeader) == m.apiKey
}

func (m *mockRegistry) servePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !m.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("package")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	file.Close()

	// <Id>.<Version>.nupkg, id and version both dot-separated: split from
	// the right, version is the last three dot groups for these tests.
	name := strings.TrimSuffix(header.Filename, ".nupkg")
	parts := strings.Split(name, ".")
	if len(parts) < 4 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	id := strings.Join(parts[:len(parts)-3], ".")
	version := strings.Join(parts[len(parts)-3:], ".")
	key := strings.ToLower(id + "@" + version)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.published[key]; exists {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, "package version already exists")
		return
	}
	m.published[key] = true
	w.WriteHeader(http.StatusCreated)
}

// failListings makes every subsequent listing request answer with status.
func (m *mockRegistry) failListings(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listingStatus = status
}

func (m *mockRegistry) listingRequests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listingHits
}

func (m *mockRegistry) serveListing(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.listingHits++
	status := m.listingStatus
	m.mu.Unlock()
	if status != 0 {
		w.WriteHeader(status)
		return
	}
	if !m.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/publish/")
	id, version, ok := strings.Cut(rest, "/")
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	key := strings.ToLower(id + "@" + version)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.published[key]; !exists {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodDelete:
		m.published[key] = false
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPut:
		m.published[key] = true
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (m *mockRegistry) serveSearch(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("semVerLevel") != "2.0.0" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	q := strings.ToLower(r.URL.Query().Get("q"))

	m.mu.Lock()
	defer m.mu.Unlock()
	type record struct {
		ID          string `json:"id"`
		Version     string `json:"version"`
		Description string `json:"description"`
	}
	var data []record
	for key, listed := range m.published {
		if !listed {
			continue
		}
		id, version, _ := strings.Cut(key, "@")
		if q != "" && !strings.Contains(id, q) {
			continue
		}
		data = append(data, record{ID: id, Version: version})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"totalHits": len(data), "data": data})
}

func (m *mockRegistry) serveRegistration(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/registrations/")
	id := strings.TrimSuffix(rest, "/index.json")

	m.mu.Lock()
	defer m.mu.Unlock()
	var leaves []map[string]any
	for key, listed := range m.published {
		keyID, version, _ := strings.Cut(key, "@")
		if keyID != id {
			continue
		}
		leaves = append(leaves, map[string]any{
			"catalogEntry": map[string]any{"id": keyID, "version": version, "listed": listed},
		})
	}
	if len(leaves) == 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"count": 1,
		"items": []map[string]any{{"count": len(leaves), "items": leaves}},
	})
}

// testContext wires a workflow context against the mock registry.
func testContext(t *testing.T, m *mockRegistry, apiKey string) *Context {
	t.Helper()
	client := transport.NewClient(
		transport.WithAPIKey(apiKey),
		transport.WithPolicy(transport.Policy{MaxAttempts: 3, MaxElapsed: 5 * time.Second, BaseDelay: time.Millisecond}),
	)
	return NewContext(m.source(), registry.NewResolver(client), client)
}

// writeManifest lays out a buildable package directory and returns the
// manifest path.
func writeManifest(t *testing.T, id, version string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bin", "a.dll"), []byte("machine code"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc := fmt.Sprintf(`
id: %q
version: %q
description: "Test package."
files: [{src: "bin/a.dll", target: "lib/a.dll"}]
`, id, version)
	path := filepath.Join(dir, "nupkg.cue")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPublish_EndToEnd(t *testing.T) {
	t.Parallel()

	m := newMockRegistry(t, "secret")
	wctx := testContext(t, m, "secret")
	manifest := writeManifest(t, "Sample.Pkg", "1.0.0")

	out := Publish{ManifestPath: manifest}.Execute(context.Background(), wctx)
	if out.State != StateSuccess {
		t.Fatalf("first publish: %+v", out)
	}

	// Pushing the identical identity again must terminate as Conflict.
	again := Publish{ManifestPath: manifest}.Execute(context.Background(), wctx)
	if again.State != StateConflict {
		t.Fatalf("second publish: %+v", again)
	}
	if again.State.ExitCode() != 5 {
		t.Errorf("conflict exit code = %d, want 5", again.State.ExitCode())
	}
}

func TestPublish_WithoutKeyFailsBeforeUpload(t *testing.T) {
	t.Parallel()

	m := newMockRegistry(t, "secret")
	wctx := testContext(t, m, "") // no key configured
	manifest := writeManifest(t, "Sample.Pkg", "1.0.0")

	out := Publish{ManifestPath: manifest}.Execute(context.Background(), wctx)
	if out.State != StateUnauthenticated {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestPublish_InvalidManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nupkg.cue")
	if err := os.WriteFile(path, []byte("id: \".broken\"\nversion: \"nope\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := newMockRegistry(t, "secret")
	out := Publish{ManifestPath: path}.Execute(context.Background(), testContext(t, m, "secret"))
	if out.State != StateValidationFailed {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestUnlistRelist_IdempotentToggles(t *testing.T) {
	t.Parallel()

	m := newMockRegistry(t, "secret")
	wctx := testContext(t, m, "secret")
	manifest := writeManifest(t, "Sample.Pkg", "1.0.0")
	if out := (Publish{ManifestPath: manifest}).Execute(context.Background(), wctx); out.State != StateSuccess {
		t.Fatalf("publish: %+v", out)
	}

	version := semver.MustParse("1.0.0")
	unlist := Unlist{ID: "Sample.Pkg", Version: version}
	for i := 0; i < 2; i++ {
		if out := unlist.Execute(context.Background(), wctx); out.State != StateSuccess {
			t.Fatalf("unlist #%d: %+v", i+1, out)
		}
	}

	relist := Relist{ID: "Sample.Pkg", Version: version}
	for i := 0; i < 2; i++ {
		if out := relist.Execute(context.Background(), wctx); out.State != StateSuccess {
			t.Fatalf("relist #%d: %+v", i+1, out)
		}
	}

	missing := Unlist{ID: "No.Such.Pkg", Version: version}
	if out := missing.Execute(context.Background(), wctx); out.State != StateNotFound {
		t.Fatalf("unlist missing: %+v", out)
	}
}

func TestUnlistRelist_NotRetriedAfterServerError(t *testing.T) {
	t.Parallel()

	m := newMockRegistry(t, "secret")
	wctx := testContext(t, m, "secret")
	manifest := writeManifest(t, "Sample.Pkg", "1.0.0")
	if out := (Publish{ManifestPath: manifest}).Execute(context.Background(), wctx); out.State != StateSuccess {
		t.Fatalf("publish: %+v", out)
	}

	m.failListings(http.StatusInternalServerError)
	version := semver.MustParse("1.0.0")

	before := m.listingRequests()
	out := Unlist{ID: "Sample.Pkg", Version: version}.Execute(context.Background(), wctx)
	if out.State != StateTransportFailed {
		t.Fatalf("unlist after 500: %+v", out)
	}
	// A listing change mutates registry state, so once the server has
	// answered the DELETE must not be re-sent.
	if got := m.listingRequests() - before; got != 1 {
		t.Errorf("unlist round trips = %d, want 1", got)
	}

	before = m.listingRequests()
	if out := (Relist{ID: "Sample.Pkg", Version: version}).Execute(context.Background(), wctx); out.State != StateTransportFailed {
		t.Fatalf("relist after 500: %+v", out)
	}
	if got := m.listingRequests() - before; got != 1 {
		t.Errorf("relist round trips = %d, want 1", got)
	}
}

func TestSearch_OnePage(t *testing.T) {
	t.Parallel()

	m := newMockRegistry(t, "secret")
	wctx := testContext(t, m, "secret")
	for _, version := range []string{"1.0.0", "1.1.0"} {
		manifest := writeManifest(t, "Sample.Pkg", version)
		if out := (Publish{ManifestPath: manifest}).Execute(context.Background(), wctx); out.State != StateSuccess {
			t.Fatalf("publish %s: %+v", version, out)
		}
	}

	out := Search{Query: "sample", Take: 20}.Execute(context.Background(), wctx)
	if out.State != StateSuccess {
		t.Fatalf("search: %+v", out)
	}
	if out.Search == nil || out.Search.TotalHits != 2 {
		t.Errorf("search page = %+v", out.Search)
	}
}

func TestView_RegistrationIndex(t *testing.T) {
	t.Parallel()

	m := newMockRegistry(t, "secret")
	wctx := testContext(t, m, "secret")
	manifest := writeManifest(t, "Sample.Pkg", "2.0.0")
	if out := (Publish{ManifestPath: manifest}).Execute(context.Background(), wctx); out.State != StateSuccess {
		t.Fatalf("publish: %+v", out)
	}

	out := View{ID: "Sample.Pkg"}.Execute(context.Background(), wctx)
	if out.State != StateSuccess {
		t.Fatalf("view: %+v", out)
	}
	versions := out.Registration.Versions()
	if len(versions) != 1 || versions[0] != "2.0.0" {
		t.Errorf("versions = %v", versions)
	}

	if out := (View{ID: "No.Such.Pkg"}).Execute(context.Background(), wctx); out.State != StateNotFound {
		t.Fatalf("view missing: %+v", out)
	}
}

func TestPing_ReportsEndpoints(t *testing.T) {
	t.Parallel()

	m := newMockRegistry(t, "secret")
	wctx := testContext(t, m, "")

	out := Ping{}.Execute(context.Background(), wctx)
	if out.State != StateSuccess {
		t.Fatalf("ping: %+v", out)
	}
	if out.Ping == nil || out.Ping.Endpoints[string(registry.PackagePublish)] == "" {
		t.Errorf("report = %+v", out.Ping)
	}
}

func TestLogin_ReturnsCredentialsWithoutPersisting(t *testing.T) {
	t.Parallel()

	m := newMockRegistry(t, "secret")
	wctx := testContext(t, m, "candidate-key")

	out := Login{APIKey: "candidate-key"}.Execute(context.Background(), wctx)
	if out.State != StateSuccess {
		t.Fatalf("login: %+v", out)
	}
	if out.Credentials == nil || out.Credentials.APIKey != "candidate-key" || out.Credentials.Source != m.source() {
		t.Errorf("credentials = %+v", out.Credentials)
	}

	if out := (Login{}).Execute(context.Background(), wctx); out.State != StateValidationFailed {
		t.Fatalf("empty key: %+v", out)
	}
}
