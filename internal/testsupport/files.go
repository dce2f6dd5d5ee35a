package testsupport

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// Entry describes one member of a fixture archive.
type Entry struct {
	Name string
	Data []byte
	// Store writes the entry uncompressed; the default is Deflate.
	Store bool
}

// ArchiveOption customizes WriteArchive.
type ArchiveOption func(*zip.Writer) error

// WithComment sets the archive comment.
func WithComment(comment string) ArchiveOption {
	return func(zw *zip.Writer) error {
		return zw.SetComment(comment)
	}
}

// WriteArchive builds a zip file at path holding entries in order and returns
// the file's bytes.
func WriteArchive(t testing.TB, path string, entries []Entry, opts ...ArchiveOption) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, entry := range entries {
		method := zip.Deflate
		if entry.Store {
			method = zip.Store
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: entry.Name, Method: method})
		if err != nil {
			t.Fatalf("create entry %s: %v", entry.Name, err)
		}
		if _, err := w.Write(entry.Data); err != nil {
			t.Fatalf("write entry %s: %v", entry.Name, err)
		}
	}
	for _, opt := range opts {
		if err := opt(zw); err != nil {
			t.Fatalf("archive option: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}

	WriteFile(t, path, buf.Bytes())
	return buf.Bytes()
}

// ImageEntries returns placeholder image entries with the given names. Each
// payload is the entry name repeated so bodies differ and compress.
func ImageEntries(names ...string) []Entry {
	entries := make([]Entry, len(names))
	for i, name := range names {
		entries[i] = Entry{Name: name, Data: bytes.Repeat([]byte(name), 64)}
	}
	return entries
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ReadEntries opens the archive at path and returns every entry's name and
// decompressed contents in directory order.
func ReadEntries(t testing.TB, path string) []Entry {
	t.Helper()

	rc, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer rc.Close()

	out := make([]Entry, 0, len(rc.File))
	for _, f := range rc.File {
		r, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(r); err != nil {
			r.Close()
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		r.Close()
		out = append(out, Entry{Name: f.Name, Data: buf.Bytes(), Store: f.Method == zip.Store})
	}
	return out
}
