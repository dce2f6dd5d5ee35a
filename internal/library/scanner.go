package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"cbztag/internal/catalog"
	"cbztag/internal/cbz"
	"cbztag/internal/config"
	"cbztag/internal/logging"
)

// ErrScanInProgress is returned when another process holds the scan lock.
var ErrScanInProgress = errors.New("another library scan is already running")

// Scanner indexes archives into a catalog.
type Scanner struct {
	store    *catalog.Store
	logger   *slog.Logger
	lockPath string
	lock     *flock.Flock
	now      func() time.Time
}

// Options tunes a single scan.
type Options struct {
	// Force re-reads archives even when size and modification time are unchanged.
	Force bool
	// Prune removes rows for archives no longer present under the root.
	// Defaults to true through DefaultOptions.
	Prune bool
}

// DefaultOptions returns the options used by "cbztag library scan".
func DefaultOptions() Options {
	return Options{Prune: true}
}

// Failure records an archive that could not be indexed.
type Failure struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// Result summarizes a scan.
type Result struct {
	RunID     string        `json:"runId"`
	Root      string        `json:"root"`
	Seen      int           `json:"seen"`
	Indexed   int           `json:"indexed"`
	Unchanged int           `json:"unchanged"`
	Removed   int           `json:"removed"`
	Failures  []Failure     `json:"failures,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// NewScanner constructs a scanner that locks cfg.LockPath().
func NewScanner(cfg *config.Config, store *catalog.Store, logger *slog.Logger) (*Scanner, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("scanner requires config and catalog store")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	lockPath := cfg.LockPath()
	return &Scanner{
		store:    store,
		logger:   logging.NewComponentLogger(logger, "library"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		now:      time.Now,
	}, nil
}

// Scan walks root and reconciles the catalog with the archives found there.
func (s *Scanner) Scan(ctx context.Context, root string, opts Options) (*Result, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve scan root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", root)
	}

	ok, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrScanInProgress
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release scan lock", logging.String("lock", s.lockPath), logging.Error(err))
		}
	}()

	result := &Result{RunID: uuid.NewString(), Root: root}
	ctx = logging.WithCorrelationID(ctx, result.RunID)
	logger := logging.WithContext(ctx, s.logger)
	start := s.now()
	logger.Info("library scan started", logging.String("root", root), logging.Bool("force", opts.Force))

	seen := make(map[string]struct{})
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("skipping unreadable path", logging.String(logging.FieldPath, path), logging.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !cbz.IsArchivePath(path) || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		seen[path] = struct{}{}
		result.Seen++
		s.indexOne(ctx, logger, path, opts, result)
		return nil
	})
	if walkErr != nil {
		return result, fmt.Errorf("walk %s: %w", root, walkErr)
	}

	if opts.Prune {
		removed, err := s.store.Prune(ctx, root, seen)
		result.Removed = len(removed)
		for _, path := range removed {
			logger.Debug("removed vanished archive", logging.String(logging.FieldPath, path))
		}
		if err != nil {
			return result, fmt.Errorf("prune catalog: %w", err)
		}
	}

	result.Duration = s.now().Sub(start)
	logger.Info(
		"library scan complete",
		logging.Int("seen", result.Seen),
		logging.Int("indexed", result.Indexed),
		logging.Int("unchanged", result.Unchanged),
		logging.Int("removed", result.Removed),
		logging.Int("failed", len(result.Failures)),
		logging.Duration("duration", result.Duration),
	)
	return result, nil
}

func (s *Scanner) indexOne(ctx context.Context, logger *slog.Logger, path string, opts Options, result *Result) {
	info, err := os.Stat(path)
	if err != nil {
		s.fail(logger, result, path, err)
		return
	}
	if !opts.Force {
		existing, err := s.store.Get(ctx, path)
		if err != nil {
			s.fail(logger, result, path, err)
			return
		}
		if existing != nil && existing.Unchanged(info) {
			result.Unchanged++
			return
		}
	}
	if err := s.index(ctx, path, info); err != nil {
		var archiveErr *cbz.Error
		if errors.As(err, &archiveErr) && archiveErr.ErrorKind() == "parse" {
			// Indexed without metadata fields; report the bad document.
			result.Indexed++
		}
		s.fail(logger, result, path, err)
		return
	}
	result.Indexed++
	logger.Debug("indexed archive", logging.String(logging.FieldPath, path))
}

// Refresh re-reads one archive into the catalog, typically after a metadata
// write. It does not take the scan lock.
func (s *Scanner) Refresh(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s.store.Remove(ctx, path)
		}
		return err
	}
	return s.index(ctx, path, info)
}

// index upserts a row for path. A metadata parse failure still indexes the
// archive, without its ComicInfo fields, and returns the parse error.
func (s *Scanner) index(ctx context.Context, path string, info os.FileInfo) error {
	summary, err := cbz.Inspect(path)
	if err != nil {
		return err
	}
	doc, readErr := cbz.ReadMetadata(path)
	if readErr != nil && cbz.Kind(readErr) != "parse" {
		return readErr
	}
	entry := catalog.NewEntry(path, info, summary, doc, s.now())
	if err := s.store.Upsert(ctx, entry); err != nil {
		return err
	}
	return readErr
}

func (s *Scanner) fail(logger *slog.Logger, result *Result, path string, err error) {
	kind := cbz.Kind(err)
	result.Failures = append(result.Failures, Failure{Path: path, Kind: kind, Error: err.Error()})
	logger.Warn(
		"archive not indexed cleanly",
		logging.String(logging.FieldPath, path),
		logging.String(logging.FieldErrorKind, kind),
		logging.Error(err),
	)
}
