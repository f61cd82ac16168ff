package static

import (
	stderrors "errors"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrNotFound is returned when a request path does not resolve to a
// servable file. Traversal attempts resolve to ErrNotFound as well, so the
// response never reveals whether the target exists.
var ErrNotFound = stderrors.New("static: not found")

// Resolution is the outcome of mapping a request path onto the filesystem.
type Resolution struct {
	// Path is the filesystem path of the file to serve.
	Path string

	// Info is the stat result for Path.
	Info os.FileInfo

	// RedirectTo, when nonempty, means the request targeted a directory
	// without a trailing slash and should be redirected so relative links
	// inside the index file resolve correctly.
	RedirectTo string
}

// Resolver maps request paths to filesystem paths under a root directory.
type Resolver struct {
	root  string
	index string
}

// NewResolver creates a resolver for the given root directory. Directory
// requests resolve to the named index file within them.
func NewResolver(root, index string) *Resolver {
	return &Resolver{root: filepath.Clean(root), index: index}
}

// Root returns the root directory the resolver serves from.
func (rv *Resolver) Root() string {
	return rv.root
}

// Resolve maps a request path to a file under the root. It returns
// ErrNotFound for missing files and for any path that would escape the
// root; other errors (e.g. permission) are returned as-is.
func (rv *Resolver) Resolve(urlPath string) (Resolution, error) {
	rel, ok := rv.relPath(urlPath)
	if !ok {
		return Resolution{}, ErrNotFound
	}

	fsPath := rv.root
	if rel != "" {
		fsPath = filepath.Join(rv.root, filepath.FromSlash(rel))
	}

	info, err := os.Stat(fsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Resolution{}, ErrNotFound
		}
		return Resolution{}, err
	}

	if info.IsDir() {
		if !strings.HasSuffix(urlPath, "/") {
			return Resolution{RedirectTo: urlPath + "/"}, nil
		}
		fsPath = filepath.Join(fsPath, rv.index)
		info, err = os.Stat(fsPath)
		if err != nil {
			if os.IsNotExist(err) {
				return Resolution{}, ErrNotFound
			}
			return Resolution{}, err
		}
		if info.IsDir() {
			return Resolution{}, ErrNotFound
		}
	}

	return Resolution{Path: fsPath, Info: info}, nil
}

// relPath returns a sanitized relative path for a request. It rejects
// traversal and absolute-path tricks so resolution cannot escape the root.
// An empty path with ok=true means the root directory itself.
func (rv *Resolver) relPath(urlPath string) (string, bool) {
	if !strings.HasPrefix(urlPath, "/") {
		return "", false
	}
	rel := strings.TrimPrefix(urlPath, "/")
	if rel == "" {
		return "", true
	}

	// Reject NUL early (can appear via %00).
	if strings.IndexByte(rel, 0) != -1 {
		return "", false
	}

	// Percent-decoding can smuggle in invalid byte sequences.
	if !utf8.ValidString(rel) {
		return "", false
	}

	// Reject platform-dependent separators.
	if strings.Contains(rel, "\\") {
		return "", false
	}

	// After prefix stripping, a leading "/" indicates an absolute-path
	// attempt (e.g. "//etc/passwd" => "/etc/passwd").
	if strings.HasPrefix(rel, "/") {
		return "", false
	}

	// Reject dot-segments before cleaning to avoid "cleaning away"
	// traversal attempts and changing the meaning of the request path.
	for _, seg := range strings.Split(rel, "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}

	clean := path.Clean(rel)
	if clean == "." || clean == "" || clean == ".." || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return "", false
	}

	// Reject OS-absolute and volume-qualified paths after slash conversion.
	osPath := filepath.FromSlash(clean)
	if filepath.IsAbs(osPath) || filepath.VolumeName(osPath) != "" {
		return "", false
	}

	return clean, true
}
