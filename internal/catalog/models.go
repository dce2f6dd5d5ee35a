package catalog

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cbztag/internal/cbz"
	"cbztag/internal/comicinfo"
)

// Entry is one indexed archive.
type Entry struct {
	Path        string    `json:"path"`
	Series      string    `json:"series,omitempty"`
	Number      string    `json:"number,omitempty"`
	Volume      *int      `json:"volume,omitempty"`
	Title       string    `json:"title,omitempty"`
	Year        *int      `json:"year,omitempty"`
	Publisher   string    `json:"publisher,omitempty"`
	PageCount   int       `json:"pageCount"`
	HasMetadata bool      `json:"hasMetadata"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"modTime"`
	ScannedAt   time.Time `json:"scannedAt"`
}

// DisplayName renders the entry the way a reader would shelve it:
// "Series v2 #7: Title", falling back to the file name.
func (e Entry) DisplayName() string {
	var b strings.Builder
	if e.Series != "" {
		b.WriteString(e.Series)
		if e.Volume != nil {
			b.WriteString(" v")
			b.WriteString(strconv.Itoa(*e.Volume))
		}
		if e.Number != "" {
			b.WriteString(" #")
			b.WriteString(e.Number)
		}
	}
	if e.Title != "" {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(e.Title)
	}
	if b.Len() == 0 {
		return strings.TrimSuffix(filepath.Base(e.Path), filepath.Ext(e.Path))
	}
	return b.String()
}

// Unchanged reports whether info describes the same file the entry was built from.
func (e Entry) Unchanged(info os.FileInfo) bool {
	return info != nil && e.Size == info.Size() && e.ModTime.Equal(info.ModTime().UTC())
}

// NewEntry builds a catalog row from what the scanner read out of an archive.
// summary supplies the page count and whether a metadata entry exists; doc may
// be nil when the metadata could not be decoded.
func NewEntry(path string, info os.FileInfo, summary *cbz.Summary, doc *comicinfo.ComicInfo, scannedAt time.Time) Entry {
	entry := Entry{Path: path, ScannedAt: scannedAt.UTC()}
	if info != nil {
		entry.Size = info.Size()
		entry.ModTime = info.ModTime().UTC()
	}
	if summary != nil {
		entry.PageCount = summary.Pages
		entry.HasMetadata = summary.MetadataEntry != ""
	}
	if doc != nil {
		entry.Series = deref(doc.Series)
		entry.Number = deref(doc.Number)
		entry.Title = deref(doc.Title)
		entry.Publisher = deref(doc.Publisher)
		entry.Volume = doc.Volume
		entry.Year = doc.Year
		if doc.PageCount != nil && *doc.PageCount > 0 {
			entry.PageCount = *doc.PageCount
		}
	}
	return entry
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func (e Entry) searchText() string {
	parts := []string{e.Series, e.Title, e.Number, e.Publisher, strings.TrimSuffix(filepath.Base(e.Path), filepath.Ext(e.Path))}
	if e.Volume != nil {
		parts = append(parts, strconv.Itoa(*e.Volume))
	}
	if e.Year != nil {
		parts = append(parts, strconv.Itoa(*e.Year))
	}
	return strings.Join(parts, " ")
}
