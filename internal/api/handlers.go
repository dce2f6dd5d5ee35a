package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"cbztag/internal/catalog"
	"cbztag/internal/cbz"
	"cbztag/internal/comicinfo"
	"cbztag/internal/logging"
)

const (
	maxDocumentBody     = 8 << 20
	defaultLibraryLimit = 100
	maxLibraryLimit     = 1000
)

// PageCountResponse is the body of GET /api/archive/pages.
type PageCountResponse struct {
	PageCount int `json:"pageCount"`
}

// LibraryResponse is the body of GET /api/library. Matches is set for
// searches, Entries for plain listings.
type LibraryResponse struct {
	Query   string          `json:"query,omitempty"`
	Entries []catalog.Entry `json:"entries,omitempty"`
	Matches []catalog.Match `json:"matches,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Catalog string `json:"catalog,omitempty"`
}

func (s *Server) handleGetArchive(w http.ResponseWriter, r *http.Request) {
	path, err := s.resolveArchivePath(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := cbz.ReadMetadata(path)
	s.metrics.recordArchiveOp("open", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handlePutArchive(w http.ResponseWriter, r *http.Request) {
	path, err := s.resolveArchivePath(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := decodeDocument(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var opts []cbz.Option
	if suffix := s.cfg.BackupSuffix(); suffix != "" {
		opts = append(opts, cbz.WithBackup(suffix))
	}
	unlock := s.saves.lock(path)
	defer unlock()
	err = cbz.WriteMetadata(path, doc, opts...)
	s.metrics.recordArchiveOp("save", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	logger := logging.WithContext(r.Context(), s.logger)
	logger.Info("archive metadata saved", logging.String(logging.FieldPath, path))
	if s.scanner != nil {
		if err := s.scanner.Refresh(r.Context(), path); err != nil {
			logger.Warn(
				"catalog refresh failed",
				logging.String(logging.FieldPath, path),
				logging.String(logging.FieldErrorKind, cbz.Kind(err)),
				logging.Error(err),
			)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeDocument(body io.Reader) (*comicinfo.ComicInfo, error) {
	dec := json.NewDecoder(io.LimitReader(body, maxDocumentBody))
	dec.DisallowUnknownFields()
	var doc comicinfo.ComicInfo
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, badRequest("request body must be a ComicInfo JSON object")
		}
		return nil, badRequest("decode ComicInfo: " + err.Error())
	}
	if dec.More() {
		return nil, badRequest("request body holds more than one JSON value")
	}
	return &doc, nil
}

func (s *Server) handlePages(w http.ResponseWriter, r *http.Request) {
	path, err := s.resolveArchivePath(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	count, err := cbz.CountPages(path)
	s.metrics.recordArchiveOp("pages", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PageCountResponse{PageCount: count})
}

func (s *Server) handleCover(w http.ResponseWriter, r *http.Request) {
	path, err := s.resolveArchivePath(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cover, err := cbz.ExtractCover(path)
	s.metrics.recordArchiveOp("cover", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, cover.DataURI())
}

func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query != "" {
		matches, err := s.store.Search(r.Context(), query, limit)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, LibraryResponse{Query: query, Matches: matches})
		return
	}
	entries, err := s.store.List(r.Context(), catalog.ListOptions{
		Series:          strings.TrimSpace(r.URL.Query().Get("series")),
		MissingMetadata: r.URL.Query().Get("missing") == "true",
		Limit:           limit,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LibraryResponse{Entries: entries})
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultLibraryLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, badRequest("limit must be a positive integer")
	}
	return min(limit, maxLibraryLimit), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Catalog: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Catalog: "ok"})
}
