package cbz

import (
	"errors"
	"fmt"
	"io/fs"

	"cbztag/internal/comicinfo"
)

// ErrNoImages is returned by ExtractCover when no entry has an image extension.
var ErrNoImages = errors.New("no images found in archive")

// Error records a failed archive operation on a path.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorKind classifies the failure: "not_found" when the archive is missing or
// holds no images, "parse" or "encode" for metadata faults, "io" otherwise.
func (e *Error) ErrorKind() string {
	return Kind(e.Err)
}

// Kind classifies any error returned by this package.
func Kind(err error) string {
	var parseErr *comicinfo.ParseError
	var encodeErr *comicinfo.EncodeError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoImages), errors.Is(err, fs.ErrNotExist):
		return "not_found"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &encodeErr):
		return "encode"
	default:
		return "io"
	}
}
