package static

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Options configures the static file handler.
type Options struct {
	// Root is the directory tree to serve.
	Root string

	// Index is the file served for directory requests (default: index.html).
	Index string

	// InjectScript, when nonempty, is injected into HTML responses before
	// the closing </body> tag. Used for the live-reload client.
	InjectScript string

	// Logger receives diagnostics for resolution failures. Raw error text
	// is never sent to the client.
	Logger *slog.Logger
}

// Handler serves files from a root directory.
type Handler struct {
	resolver *Resolver
	inject   []byte
	log      *slog.Logger
}

// NewHandler creates a static file handler for the given options.
func NewHandler(opts Options) *Handler {
	if opts.Index == "" {
		opts.Index = "index.html"
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	// Some systems ship without a .js mapping in /etc/mime.types.
	if err := mime.AddExtensionType(".js", "application/javascript"); err != nil {
		log.Warn("failed to register .js MIME type", "error", err)
	}

	return &Handler{
		resolver: NewResolver(opts.Root, opts.Index),
		inject:   []byte(opts.InjectScript),
		log:      log,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		h.errorPage(w, r, http.StatusMethodNotAllowed)
		return
	}

	res, err := h.resolver.Resolve(r.URL.Path)
	if err != nil {
		h.log.Debug("resolve failed", "path", r.URL.Path, "error", err)
		h.errorPage(w, r, statusFor(err))
		return
	}

	if res.RedirectTo != "" {
		loc := res.RedirectTo
		if r.URL.RawQuery != "" {
			loc += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, loc, http.StatusFound)
		return
	}

	h.serveFile(w, r, res)
}

// serveFile streams a resolved file with its content type. HTML files get
// the live-reload client script injected.
func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, res Resolution) {
	f, err := os.Open(res.Path)
	if err != nil {
		h.log.Warn("open failed", "path", res.Path, "error", err)
		h.errorPage(w, r, statusFor(err))
		return
	}
	defer f.Close()

	ctype := mime.TypeByExtension(filepath.Ext(res.Path))
	if ctype == "" {
		ctype = "application/octet-stream"
	}

	// Dev server: never let the browser cache stale assets.
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Header().Set("Content-Type", ctype)

	if len(h.inject) > 0 && strings.HasPrefix(ctype, "text/html") {
		body, err := io.ReadAll(f)
		if err != nil {
			h.log.Warn("read failed", "path", res.Path, "error", err)
			h.errorPage(w, r, http.StatusInternalServerError)
			return
		}
		body = injectScript(body, h.inject)
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			w.Write(body)
		}
		return
	}

	http.ServeContent(w, r, res.Info.Name(), res.Info.ModTime(), f)
}

// injectScript inserts the reload client script before </body>, falling
// back to </html>, falling back to appending.
func injectScript(body, script []byte) []byte {
	if idx := bytes.LastIndex(body, []byte("</body>")); idx != -1 {
		return append(body[:idx:idx], append(append([]byte{}, script...), body[idx:]...)...)
	}
	if idx := bytes.LastIndex(body, []byte("</html>")); idx != -1 {
		return append(body[:idx:idx], append(append([]byte{}, script...), body[idx:]...)...)
	}
	return append(body, script...)
}

// statusFor maps a resolution or I/O error onto an HTTP status without
// leaking the underlying error text.
func statusFor(err error) int {
	switch {
	case stderrors.Is(err, ErrNotFound), os.IsNotExist(err):
		return http.StatusNotFound
	case os.IsPermission(err):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// errorPage writes a minimal HTML error page for the given status.
func (h *Handler) errorPage(w http.ResponseWriter, r *http.Request, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>%[1]d %[2]s</title></head>
<body style="font-family: system-ui; padding: 40px; background: #1a1a1a; color: #fff;">
<h1 style="color: #ff5555;">%[1]d %[2]s</h1>
<p style="color: #888;">liveserve</p>
</body>
</html>`, status, http.StatusText(status))
}
