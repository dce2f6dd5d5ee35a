package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cbztag/internal/cbz"
	"cbztag/internal/comicinfo"
)

// archiveArg returns the archive path argument, warning on stderr when the
// file does not look like a CBZ. Non-.cbz zips are still processed.
func archiveArg(cmd *cobra.Command, arg string) string {
	path := strings.TrimSpace(arg)
	if path != "" && !cbz.IsArchivePath(path) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s does not have a .cbz extension\n", path)
	}
	return path
}

type assignment struct {
	field string
	value string
}

// parseAssignments turns Field=Value arguments into canonical field names.
// Field names match case-insensitively; an empty value clears the field.
func parseAssignments(args []string) ([]assignment, error) {
	out := make([]assignment, 0, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid assignment %q: expected Field=Value", arg)
		}
		field, known := comicinfo.Lookup(name)
		if !known {
			return nil, fmt.Errorf("unknown field %q", strings.TrimSpace(name))
		}
		out = append(out, assignment{field: field.Name, value: value})
	}
	return out, nil
}

// readDocumentFile decodes a ComicInfo JSON document from path, or from stdin
// when path is "-".
func readDocumentFile(cmd *cobra.Command, path string) (*comicinfo.ComicInfo, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var doc comicinfo.ComicInfo
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &doc, nil
}

func formatBytes(size int64) string {
	if size < 0 {
		return "-"
	}
	return humanize.IBytes(uint64(size))
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
