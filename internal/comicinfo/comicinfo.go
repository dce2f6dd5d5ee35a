package comicinfo

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// RootElement is the document element name of ComicInfo.xml.
const RootElement = "ComicInfo"

// Declaration precedes every encoded document.
const Declaration = `<?xml version="1.0" encoding="utf-8"?>`

// ComicInfo is the metadata record stored in a comic archive. Every field is
// optional; a nil pointer means the value is not specified.
type ComicInfo struct {
	XMLName xml.Name `xml:"ComicInfo" json:"-"`

	Title               *string    `xml:"Title,omitempty" json:"Title,omitempty"`
	Series              *string    `xml:"Series,omitempty" json:"Series,omitempty"`
	Number              *string    `xml:"Number,omitempty" json:"Number,omitempty"`
	Count               *int       `xml:"Count,omitempty" json:"Count,omitempty"`
	Volume              *int       `xml:"Volume,omitempty" json:"Volume,omitempty"`
	AlternateSeries     *string    `xml:"AlternateSeries,omitempty" json:"AlternateSeries,omitempty"`
	AlternateNumber     *string    `xml:"AlternateNumber,omitempty" json:"AlternateNumber,omitempty"`
	AlternateCount      *int       `xml:"AlternateCount,omitempty" json:"AlternateCount,omitempty"`
	Summary             *string    `xml:"Summary,omitempty" json:"Summary,omitempty"`
	Notes               *string    `xml:"Notes,omitempty" json:"Notes,omitempty"`
	Year                *int       `xml:"Year,omitempty" json:"Year,omitempty"`
	Month               *int       `xml:"Month,omitempty" json:"Month,omitempty"`
	Day                 *int       `xml:"Day,omitempty" json:"Day,omitempty"`
	Writer              *string    `xml:"Writer,omitempty" json:"Writer,omitempty"`
	Penciller           *string    `xml:"Penciller,omitempty" json:"Penciller,omitempty"`
	Inker               *string    `xml:"Inker,omitempty" json:"Inker,omitempty"`
	Colorist            *string    `xml:"Colorist,omitempty" json:"Colorist,omitempty"`
	Letterer            *string    `xml:"Letterer,omitempty" json:"Letterer,omitempty"`
	CoverArtist         *string    `xml:"CoverArtist,omitempty" json:"CoverArtist,omitempty"`
	Editor              *string    `xml:"Editor,omitempty" json:"Editor,omitempty"`
	Translator          *string    `xml:"Translator,omitempty" json:"Translator,omitempty"`
	Publisher           *string    `xml:"Publisher,omitempty" json:"Publisher,omitempty"`
	Imprint             *string    `xml:"Imprint,omitempty" json:"Imprint,omitempty"`
	Genre               *string    `xml:"Genre,omitempty" json:"Genre,omitempty"`
	Tags                *string    `xml:"Tags,omitempty" json:"Tags,omitempty"`
	Web                 *string    `xml:"Web,omitempty" json:"Web,omitempty"`
	PageCount           *int       `xml:"PageCount,omitempty" json:"PageCount,omitempty"`
	LanguageISO         *string    `xml:"LanguageISO,omitempty" json:"LanguageISO,omitempty"`
	Format              *string    `xml:"Format,omitempty" json:"Format,omitempty"`
	BlackAndWhite       *YesNo     `xml:"BlackAndWhite,omitempty" json:"BlackAndWhite,omitempty"`
	Manga               *Manga     `xml:"Manga,omitempty" json:"Manga,omitempty"`
	Characters          *string    `xml:"Characters,omitempty" json:"Characters,omitempty"`
	Teams               *string    `xml:"Teams,omitempty" json:"Teams,omitempty"`
	Locations           *string    `xml:"Locations,omitempty" json:"Locations,omitempty"`
	ScanInformation     *string    `xml:"ScanInformation,omitempty" json:"ScanInformation,omitempty"`
	StoryArc            *string    `xml:"StoryArc,omitempty" json:"StoryArc,omitempty"`
	StoryArcNumber      *string    `xml:"StoryArcNumber,omitempty" json:"StoryArcNumber,omitempty"`
	SeriesGroup         *string    `xml:"SeriesGroup,omitempty" json:"SeriesGroup,omitempty"`
	AgeRating           *AgeRating `xml:"AgeRating,omitempty" json:"AgeRating,omitempty"`
	CommunityRating     *float64   `xml:"CommunityRating,omitempty" json:"CommunityRating,omitempty"`
	MainCharacterOrTeam *string    `xml:"MainCharacterOrTeam,omitempty" json:"MainCharacterOrTeam,omitempty"`
	Review              *string    `xml:"Review,omitempty" json:"Review,omitempty"`
	GTIN                *string    `xml:"GTIN,omitempty" json:"GTIN,omitempty"`
}

// ParseError reports a document that does not fit the ComicInfo schema.
// Field is empty when the failure concerns the document as a whole.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parse %s: %v", RootElement, e.Err)
	}
	return fmt.Sprintf("parse %s: field %s: %v", RootElement, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrorKind classifies the failure for callers mapping errors to statuses.
func (e *ParseError) ErrorKind() string { return "parse" }

// EncodeError wraps a serializer fault.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", RootElement, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// ErrorKind classifies the failure for callers mapping errors to statuses.
func (e *EncodeError) ErrorKind() string { return "encode" }

// Decode parses a ComicInfo.xml document. Child elements that are not part of
// the schema are skipped; a recognized element with unparseable text fails.
func Decode(data []byte) (*ComicInfo, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader
	root, err := nextStart(dec)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if root.Name.Local != RootElement {
		return nil, &ParseError{Err: fmt.Errorf("expected root element <%s>, found <%s>", RootElement, root.Name.Local)}
	}

	info := &ComicInfo{}
	target := reflect.ValueOf(info).Elem()
	seen := make(map[string]struct{}, len(schema))
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, &ParseError{Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			f, ok := fieldByName[t.Name.Local]
			if !ok {
				if err := dec.Skip(); err != nil {
					return nil, &ParseError{Field: t.Name.Local, Err: err}
				}
				continue
			}
			if _, dup := seen[f.name]; dup {
				return nil, &ParseError{Field: f.name, Err: errors.New("duplicate element")}
			}
			seen[f.name] = struct{}{}
			var text string
			if err := dec.DecodeElement(&text, &t); err != nil {
				return nil, &ParseError{Field: f.name, Err: err}
			}
			if err := f.assign(target, text); err != nil {
				return nil, &ParseError{Field: f.name, Value: text, Err: err}
			}
		case xml.EndElement:
			return info, nil
		}
	}
}

// Encode renders info as a ComicInfo.xml document: the XML declaration, a
// newline, then the <ComicInfo> element. Absent fields produce no element.
func Encode(info *ComicInfo) ([]byte, error) {
	if info == nil {
		info = &ComicInfo{}
	}
	var buf bytes.Buffer
	buf.WriteString(Declaration)
	buf.WriteByte('\n')

	enc := xml.NewEncoder(&buf)
	root := xml.StartElement{Name: xml.Name{Local: RootElement}}
	if err := enc.EncodeToken(root); err != nil {
		return nil, &EncodeError{Err: err}
	}
	source := reflect.ValueOf(info).Elem()
	for _, f := range schema {
		text, ok, err := f.format(source)
		if err != nil {
			return nil, &EncodeError{Err: fmt.Errorf("%s: %w", f.name, err)}
		}
		if !ok {
			continue
		}
		el := xml.StartElement{Name: xml.Name{Local: f.name}}
		if err := enc.EncodeElement(text, el); err != nil {
			return nil, &EncodeError{Err: fmt.Errorf("%s: %w", f.name, err)}
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, &EncodeError{Err: err}
	}
	if err := enc.Flush(); err != nil {
		return nil, &EncodeError{Err: err}
	}
	return buf.Bytes(), nil
}

func nextStart(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return xml.StartElement{}, errors.New("document has no root element")
			}
			return xml.StartElement{}, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start, nil
		}
	}
}

// IsEmpty reports whether no field is set.
func (c *ComicInfo) IsEmpty() bool {
	if c == nil {
		return true
	}
	source := reflect.ValueOf(c).Elem()
	for _, f := range schema {
		if !source.Field(f.index).IsNil() {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of c.
func (c *ComicInfo) Clone() *ComicInfo {
	if c == nil {
		return nil
	}
	out := &ComicInfo{}
	src := reflect.ValueOf(c).Elem()
	dst := reflect.ValueOf(out).Elem()
	for _, f := range schema {
		field := src.Field(f.index)
		if field.IsNil() {
			continue
		}
		cp := reflect.New(f.elem)
		cp.Elem().Set(field.Elem())
		dst.Field(f.index).Set(cp)
	}
	return out
}

// Equal compares two documents field by field. Nil and empty documents are equal.
func Equal(a, b *ComicInfo) bool {
	if a == nil {
		a = &ComicInfo{}
	}
	if b == nil {
		b = &ComicInfo{}
	}
	av := reflect.ValueOf(a).Elem()
	bv := reflect.ValueOf(b).Elem()
	for _, f := range schema {
		x, y := av.Field(f.index), bv.Field(f.index)
		if x.IsNil() != y.IsNil() {
			return false
		}
		if x.IsNil() {
			continue
		}
		xe, ye := x.Elem(), y.Elem()
		if xe.Kind() == reflect.Float64 && math.IsNaN(xe.Float()) && math.IsNaN(ye.Float()) {
			continue
		}
		if !xe.Equal(ye) {
			return false
		}
	}
	return true
}

// charsetReader honors a declared encoding other than UTF-8. The decoder only
// reaches the declaration when the bytes are ASCII compatible, so a UTF-16
// label means the file was written as UTF-8 under a stale header and the input
// passes through unchanged.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q", label)
	}
	name, err := htmlindex.Name(enc)
	if err == nil && (name == "utf-8" || strings.HasPrefix(name, "utf-16")) {
		return input, nil
	}
	return enc.NewDecoder().Reader(input), nil
}
