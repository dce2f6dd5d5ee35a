package cbz

import (
	"archive/zip"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cbztag/internal/comicinfo"
	"cbztag/internal/fileutil"
)

// MetadataName is the entry name used when an archive has no metadata entry.
const MetadataName = "ComicInfo.xml"

const maxMetadataSize = 8 << 20

var imageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"webp": {},
	"bmp":  {},
}

// IsMetadataName reports whether an entry name is ComicInfo.xml in any case.
func IsMetadataName(name string) bool {
	return strings.EqualFold(name, MetadataName)
}

// IsImageName reports whether an entry name carries an image extension.
// Directory entries never count. A leading dot on the final element is not an
// extension separator, so ".jpg" alone is not an image.
func IsImageName(name string) bool {
	if name == "" || strings.HasSuffix(name, "/") {
		return false
	}
	base := strings.TrimPrefix(path.Base(name), ".")
	ext := path.Ext(base)
	if len(ext) < 2 {
		return false
	}
	_, ok := imageExtensions[strings.ToLower(ext[1:])]
	return ok
}

// IsArchivePath reports whether a filesystem path has the .cbz extension.
func IsArchivePath(p string) bool {
	return strings.EqualFold(filepath.Ext(p), ".cbz")
}

// MIMEType infers a content type from an image entry name.
func MIMEType(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

func openArchive(p string) (*zip.ReadCloser, error) {
	rc, err := zip.OpenReader(p)
	if err != nil {
		return nil, &Error{Op: "open archive", Path: p, Err: err}
	}
	return rc, nil
}

func countImages(files []*zip.File) int {
	count := 0
	for _, f := range files {
		if IsImageName(f.Name) {
			count++
		}
	}
	return count
}

func findMetadata(files []*zip.File) *zip.File {
	for _, f := range files {
		if IsMetadataName(f.Name) {
			return f
		}
	}
	return nil
}

func readEntry(f *zip.File, limit int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	if limit <= 0 {
		return io.ReadAll(rc)
	}
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("entry %s exceeds %d bytes", f.Name, limit)
	}
	return data, nil
}

// ReadMetadata decodes the first ComicInfo.xml entry of the archive at p. An
// archive without one yields an empty document and no error.
func ReadMetadata(p string) (*comicinfo.ComicInfo, error) {
	rc, err := openArchive(p)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	f := findMetadata(rc.File)
	if f == nil {
		return &comicinfo.ComicInfo{}, nil
	}
	data, err := readEntry(f, maxMetadataSize)
	if err != nil {
		return nil, &Error{Op: "read " + f.Name + " from", Path: p, Err: err}
	}
	info, err := comicinfo.Decode(data)
	if err != nil {
		return nil, &Error{Op: "read " + f.Name + " from", Path: p, Err: err}
	}
	return info, nil
}

// CountPages returns the number of image entries in the archive at p.
func CountPages(p string) (int, error) {
	rc, err := openArchive(p)
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	return countImages(rc.File), nil
}

// Options tunes WriteMetadata.
type Options struct {
	// BackupSuffix, when set, keeps a verified copy of the original archive at
	// path+BackupSuffix before the commit.
	BackupSuffix string
	// Now stamps the rewritten metadata entry. Defaults to time.Now.
	Now func() time.Time
}

// Option mutates Options.
type Option func(*Options)

// WithBackup keeps a copy of the original archive at path+suffix.
func WithBackup(suffix string) Option {
	return func(o *Options) {
		o.BackupSuffix = suffix
	}
}

// WriteMetadata stores info in the archive at p. When info.PageCount is nil it
// is set to the archive's image count before encoding, so the caller's document
// reflects what was written. See the package documentation for the commit
// protocol.
func WriteMetadata(p string, info *comicinfo.ComicInfo, opts ...Option) error {
	options := Options{Now: time.Now}
	for _, opt := range opts {
		opt(&options)
	}
	if info == nil {
		info = &comicinfo.ComicInfo{}
	}

	src, err := openArchive(p)
	if err != nil {
		return err
	}
	defer src.Close()

	if info.PageCount == nil {
		count := countImages(src.File)
		info.PageCount = &count
	}
	payload, err := comicinfo.Encode(info)
	if err != nil {
		return &Error{Op: "encode metadata for", Path: p, Err: err}
	}

	stat, err := os.Stat(p)
	if err != nil {
		return &Error{Op: "stat archive", Path: p, Err: err}
	}

	if suffix := strings.TrimSpace(options.BackupSuffix); suffix != "" {
		if err := fileutil.CopyFileVerified(p, p+suffix); err != nil {
			return &Error{Op: "back up archive", Path: p, Err: err}
		}
	}

	err = fileutil.ReplaceFile(p, stat.Mode().Perm(), func(w io.Writer) error {
		if err := rewrite(w, &src.Reader, payload, options.Now()); err != nil {
			return err
		}
		// Release the source before the rename so platforms that refuse to
		// replace open files can commit.
		return src.Close()
	})
	if err != nil {
		var archiveErr *Error
		if errors.As(err, &archiveErr) {
			return err
		}
		return &Error{Op: "save archive", Path: p, Err: err}
	}
	return nil
}

// rewrite streams src into w. Every metadata entry is replaced by payload in
// place; other entries are copied raw. A metadata entry is appended when src
// has none.
func rewrite(w io.Writer, src *zip.Reader, payload []byte, modified time.Time) error {
	zw := zip.NewWriter(w)
	replaced := false
	for _, f := range src.File {
		if IsMetadataName(f.Name) {
			replaced = true
			if err := writeStored(zw, f.Name, payload, modified); err != nil {
				return err
			}
			continue
		}
		if err := zw.Copy(f); err != nil {
			return &Error{Op: "copy entry", Path: f.Name, Err: err}
		}
	}
	if !replaced {
		if err := writeStored(zw, MetadataName, payload, modified); err != nil {
			return err
		}
	}
	if src.Comment != "" {
		if err := zw.SetComment(src.Comment); err != nil {
			return &Error{Op: "set archive comment", Err: err}
		}
	}
	if err := zw.Close(); err != nil {
		return &Error{Op: "finalize archive", Err: err}
	}
	return nil
}

func writeStored(zw *zip.Writer, name string, payload []byte, modified time.Time) error {
	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Store,
		Modified: modified,
	}
	fw, err := zw.CreateHeader(header)
	if err != nil {
		return &Error{Op: "write entry", Path: name, Err: err}
	}
	if _, err := fw.Write(payload); err != nil {
		return &Error{Op: "write entry", Path: name, Err: err}
	}
	return nil
}

// Cover is the raw bytes of the selected cover image.
type Cover struct {
	Name     string
	MIMEType string
	Data     []byte
}

// DataURI renders the cover as data:<mime>;base64,<payload>.
func (c *Cover) DataURI() string {
	if c == nil {
		return ""
	}
	return "data:" + c.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(c.Data)
}

// CoverName returns the cover candidate among entry names: the smallest image
// name in byte order. The second result is false when there is no image.
func CoverName(names []string) (string, bool) {
	images := make([]string, 0, len(names))
	for _, name := range names {
		if IsImageName(name) {
			images = append(images, name)
		}
	}
	if len(images) == 0 {
		return "", false
	}
	sort.Strings(images)
	return images[0], true
}

// ExtractCover reads the cover image of the archive at p. It returns an error
// matching ErrNoImages when the archive has no image entries.
func ExtractCover(p string) (*Cover, error) {
	rc, err := openArchive(p)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	names := make([]string, len(rc.File))
	byName := make(map[string]*zip.File, len(rc.File))
	for i, f := range rc.File {
		names[i] = f.Name
		if _, dup := byName[f.Name]; !dup {
			byName[f.Name] = f
		}
	}
	name, ok := CoverName(names)
	if !ok {
		return nil, &Error{Op: "extract cover from", Path: p, Err: ErrNoImages}
	}
	data, err := readEntry(byName[name], 0)
	if err != nil {
		return nil, &Error{Op: "read image " + name + " from", Path: p, Err: err}
	}
	return &Cover{Name: name, MIMEType: MIMEType(name), Data: data}, nil
}

// Summary describes an archive without decoding its metadata.
type Summary struct {
	Path          string `json:"path"`
	Size          int64  `json:"size"`
	Entries       int    `json:"entries"`
	Pages         int    `json:"pages"`
	Cover         string `json:"cover,omitempty"`
	MetadataEntry string `json:"metadataEntry,omitempty"`
	Comment       string `json:"comment,omitempty"`
}

// Inspect gathers entry statistics for the archive at p in one pass.
func Inspect(p string) (*Summary, error) {
	rc, err := openArchive(p)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	summary := &Summary{Path: p, Entries: len(rc.File), Comment: rc.Comment}
	if stat, err := os.Stat(p); err == nil {
		summary.Size = stat.Size()
	}
	names := make([]string, len(rc.File))
	for i, f := range rc.File {
		names[i] = f.Name
	}
	summary.Pages = countImages(rc.File)
	summary.Cover, _ = CoverName(names)
	if f := findMetadata(rc.File); f != nil {
		summary.MetadataEntry = f.Name
	}
	return summary, nil
}
