package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"cbztag/internal/cbz"
)

// resolveArchivePath maps the path query parameter onto the library directory.
func (s *Server) resolveArchivePath(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("path"))
	if raw == "" {
		return "", badRequest("path query parameter is required")
	}
	if strings.ContainsRune(raw, 0) {
		return "", badRequest("path contains a NUL byte")
	}
	if filepath.IsAbs(raw) {
		return "", badRequest("path must be relative to the library directory")
	}
	resolved := filepath.Join(s.libraryDir, filepath.FromSlash(raw))
	rel, err := filepath.Rel(s.libraryDir, resolved)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", badRequest("path escapes the library directory")
	}
	if !cbz.IsArchivePath(resolved) {
		return "", badRequest("path must name a .cbz archive")
	}
	return resolved, nil
}
