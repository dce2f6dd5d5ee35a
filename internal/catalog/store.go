package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cbztag/internal/config"
	"cbztag/internal/textutil"
)

// Store manages catalog persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database under the configured
// state directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.CatalogPath())
}

// OpenPath initializes or connects to the catalog database at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const entryColumns = `path, series, number, volume, title, year, publisher,
    page_count, has_metadata, size, mod_time, scanned_at`

// Upsert inserts or replaces the row for entry.Path.
func (s *Store) Upsert(ctx context.Context, entry Entry) error {
	if strings.TrimSpace(entry.Path) == "" {
		return errors.New("entry path is empty")
	}
	if entry.ScannedAt.IsZero() {
		entry.ScannedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO archives (
            path, series, series_key, number, number_sort, volume, title, year, publisher,
            page_count, has_metadata, size, mod_time, scanned_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(path) DO UPDATE SET
            series = excluded.series,
            series_key = excluded.series_key,
            number = excluded.number,
            number_sort = excluded.number_sort,
            volume = excluded.volume,
            title = excluded.title,
            year = excluded.year,
            publisher = excluded.publisher,
            page_count = excluded.page_count,
            has_metadata = excluded.has_metadata,
            size = excluded.size,
            mod_time = excluded.mod_time,
            scanned_at = excluded.scanned_at`,
		entry.Path,
		nullableString(entry.Series),
		textutil.Fold(entry.Series),
		nullableString(entry.Number),
		numberSort(entry.Number),
		nullableInt(entry.Volume),
		nullableString(entry.Title),
		nullableInt(entry.Year),
		nullableString(entry.Publisher),
		entry.PageCount,
		boolToInt(entry.HasMetadata),
		entry.Size,
		entry.ModTime.UTC().Format(time.RFC3339Nano),
		entry.ScannedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", entry.Path, err)
	}
	return nil
}

// Get fetches the row for path. It returns nil, nil when the path is not indexed.
func (s *Store) Get(ctx context.Context, path string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM archives WHERE path = ?`, path)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// ListOptions filters List.
type ListOptions struct {
	// Root restricts results to paths inside this directory.
	Root string
	// Series restricts results to one series, compared case-insensitively.
	Series string
	// MissingMetadata keeps only archives without a ComicInfo.xml entry.
	MissingMetadata bool
	Limit           int
}

// List returns entries ordered by series, volume, and issue number.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM archives`
	var where []string
	var args []any
	if opts.Series != "" {
		where = append(where, "series_key = ?")
		args = append(args, textutil.Fold(opts.Series))
	}
	if opts.MissingMetadata {
		where = append(where, "has_metadata = 0")
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY series_key, volume, number_sort, number, path`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if opts.Root != "" && !within(opts.Root, entry.Path) {
			continue
		}
		entries = append(entries, *entry)
		if opts.Limit > 0 && len(entries) >= opts.Limit {
			break
		}
	}
	return entries, rows.Err()
}

// Remove deletes the row for path. Removing an unknown path is not an error.
func (s *Store) Remove(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM archives WHERE path = ?`, path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// Prune deletes every row inside root whose path is not in keep and returns
// the removed paths.
func (s *Store) Prune(ctx context.Context, root string, keep map[string]struct{}) ([]string, error) {
	entries, err := s.List(ctx, ListOptions{Root: root})
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, entry := range entries {
		if _, ok := keep[entry.Path]; ok {
			continue
		}
		if err := s.Remove(ctx, entry.Path); err != nil {
			return removed, err
		}
		removed = append(removed, entry.Path)
	}
	return removed, nil
}

// Stats summarizes the catalog.
type Stats struct {
	Archives       int   `json:"archives"`
	WithMetadata   int   `json:"withMetadata"`
	Pages          int64 `json:"pages"`
	Series         int   `json:"series"`
	TotalSizeBytes int64 `json:"totalSizeBytes"`
	DatabaseSize   int64 `json:"databaseSizeBytes"`
}

// Stats aggregates counts across all rows.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	row := s.db.QueryRowContext(ctx, `SELECT
        COUNT(1),
        COALESCE(SUM(has_metadata), 0),
        COALESCE(SUM(page_count), 0),
        COUNT(DISTINCT NULLIF(series_key, '')),
        COALESCE(SUM(size), 0)
        FROM archives`)
	if err := row.Scan(&stats.Archives, &stats.WithMetadata, &stats.Pages, &stats.Series, &stats.TotalSizeBytes); err != nil {
		return stats, fmt.Errorf("catalog stats: %w", err)
	}
	if info, err := os.Stat(s.path); err == nil {
		stats.DatabaseSize = info.Size()
	}
	return stats, nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("catalog database connection unavailable")
	}
	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.PingContext(connCtx)
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// numberSort orders issue numbers like "7", "7.1", and "10" numerically.
// Non-numeric numbers such as "Annual 1" sort after numeric ones.
func numberSort(number string) any {
	n, err := strconv.ParseFloat(strings.TrimSpace(number), 64)
	if err != nil {
		return nil
	}
	return n
}
