package static

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
)

func newSite(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	site := filepath.Join(tmpDir, "site")

	if err := os.MkdirAll(filepath.Join(site, "docs"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(site, "empty"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	files := map[string]string{
		"index.html":      "<html><body><h1>home</h1></body></html>",
		"ok.txt":          "ok",
		"data.bin2":       "\x00\x01\x02",
		"docs/index.html": "<html><body>docs</body></html>",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(site, name), []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile %s: %v", name, err)
		}
	}

	// Sibling of the root that must never be reachable.
	if err := os.WriteFile(filepath.Join(tmpDir, "secret.txt"), []byte("secret"), 0o644); err != nil {
		t.Fatalf("WriteFile secret.txt: %v", err)
	}

	return site
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://example.com"+path, nil)
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandler_ServesFile(t *testing.T) {
	h := NewHandler(Options{Root: newSite(t)})

	rr := get(t, h, "/ok.txt")
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /ok.txt status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Body.String(); got != "ok" {
		t.Fatalf("GET /ok.txt body = %q, want %q", got, "ok")
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	if cc := rr.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}
}

func TestHandler_BlocksDirectoryTraversal(t *testing.T) {
	h := NewHandler(Options{Root: newSite(t)})

	cases := []string{
		"/../secret.txt",
		"/%2e%2e/secret.txt",
		"/..//secret.txt",
		"/docs/../../secret.txt",
	}
	for _, p := range cases {
		rr := get(t, h, p)
		if rr.Code == http.StatusOK && strings.Contains(rr.Body.String(), "secret") {
			t.Fatalf("GET %s unexpectedly served secret content", p)
		}
		if rr.Code != http.StatusNotFound {
			t.Fatalf("GET %s status = %d, want %d", p, rr.Code, http.StatusNotFound)
		}
	}
}

func TestHandler_BlocksAbsolutePathEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("absolute-path escape is OS-specific on Windows")
	}

	site := newSite(t)
	h := NewHandler(Options{Root: site})

	absSecret := filepath.ToSlash(filepath.Join(filepath.Dir(site), "secret.txt"))
	rr := get(t, h, "/"+absSecret)

	if rr.Code == http.StatusOK && strings.Contains(rr.Body.String(), "secret") {
		t.Fatalf("unexpectedly served absolute-path content from %q", absSecret)
	}
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestHandler_DirectoryIndex(t *testing.T) {
	h := NewHandler(Options{Root: newSite(t)})

	rr := get(t, h, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("GET / status = %d, want %d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), "home") {
		t.Errorf("GET / should serve index.html, got %q", rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
}

func TestHandler_DirectoryWithoutIndex(t *testing.T) {
	h := NewHandler(Options{Root: newSite(t)})

	rr := get(t, h, "/empty/")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("GET /empty/ status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	// No directory listing and no raw filesystem error text.
	if strings.Contains(rr.Body.String(), "empty") {
		t.Errorf("404 body leaks directory name: %q", rr.Body.String())
	}
}

func TestHandler_DirectoryRedirect(t *testing.T) {
	h := NewHandler(Options{Root: newSite(t)})

	rr := get(t, h, "/docs")
	if rr.Code != http.StatusFound {
		t.Fatalf("GET /docs status = %d, want %d", rr.Code, http.StatusFound)
	}
	if loc := rr.Header().Get("Location"); loc != "/docs/" {
		t.Errorf("Location = %q, want %q", loc, "/docs/")
	}

	// Query strings survive the redirect.
	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://example.com/docs?a=1", nil)
	h.ServeHTTP(rr, req)
	if loc := rr.Header().Get("Location"); loc != "/docs/?a=1" {
		t.Errorf("Location = %q, want %q", loc, "/docs/?a=1")
	}
}

func TestHandler_UnknownExtensionFallsBack(t *testing.T) {
	h := NewHandler(Options{Root: newSite(t)})

	rr := get(t, h, "/data.bin2")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/octet-stream" {
		t.Errorf("Content-Type = %q, want application/octet-stream", ct)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := NewHandler(Options{Root: newSite(t)})

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(method, "http://example.com/ok.txt", nil)
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s status = %d, want %d", method, rr.Code, http.StatusMethodNotAllowed)
		}
		if allow := rr.Header().Get("Allow"); allow != "GET, HEAD" {
			t.Errorf("%s Allow = %q, want %q", method, allow, "GET, HEAD")
		}
	}
}

func TestHandler_Head(t *testing.T) {
	h := NewHandler(Options{Root: newSite(t)})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodHead, "http://example.com/ok.txt", nil)
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("HEAD status = %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("HEAD body should be empty, got %q", rr.Body.String())
	}
}

func TestHandler_InjectsScript(t *testing.T) {
	script := `<script>/* reload client */</script>`
	h := NewHandler(Options{Root: newSite(t), InjectScript: script})

	rr := get(t, h, "/")
	body := rr.Body.String()

	idx := strings.Index(body, script)
	end := strings.Index(body, "</body>")
	if idx == -1 {
		t.Fatalf("script not injected into HTML response: %q", body)
	}
	if end == -1 || idx > end {
		t.Errorf("script should be injected before </body>: %q", body)
	}
	if got := rr.Header().Get("Content-Length"); got != strconv.Itoa(len(body)) {
		t.Errorf("Content-Length = %q, want %d", got, len(body))
	}

	// Non-HTML responses are untouched.
	rr = get(t, h, "/ok.txt")
	if strings.Contains(rr.Body.String(), "reload client") {
		t.Error("script injected into non-HTML response")
	}
}

func TestResolver_RelPath(t *testing.T) {
	rv := NewResolver("/srv/site", "index.html")

	tests := []struct {
		urlPath string
		want    string
		ok      bool
	}{
		{"/", "", true},
		{"/a/b.txt", "a/b.txt", true},
		{"/docs/", "docs", true},
		{"/../x", "", false},
		{"/a/../../x", "", false},
		{"//etc/passwd", "", false},
		{"/a\\b", "", false},
		{"/a/./b", "", false},
		{"/a\x00b", "", false},
		{"no-leading-slash", "", false},
	}

	for _, tt := range tests {
		got, ok := rv.relPath(tt.urlPath)
		if ok != tt.ok || got != tt.want {
			t.Errorf("relPath(%q) = (%q, %v), want (%q, %v)", tt.urlPath, got, ok, tt.want, tt.ok)
		}
	}
}
