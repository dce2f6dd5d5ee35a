package comicinfo_test

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"cbztag/internal/comicinfo"
)

func ptr[T any](v T) *T { return &v }

func fullDocument() *comicinfo.ComicInfo {
	return &comicinfo.ComicInfo{
		Title:               ptr("Issue One"),
		Series:              ptr("The Long Road"),
		Number:              ptr("1"),
		Count:               ptr(12),
		Volume:              ptr(2),
		AlternateSeries:     ptr("Road Stories"),
		AlternateNumber:     ptr("1a"),
		AlternateCount:      ptr(4),
		Summary:             ptr("Heroes <meet> & part ways."),
		Notes:               ptr("Scanned from print"),
		Year:                ptr(1999),
		Month:               ptr(7),
		Day:                 ptr(31),
		Writer:              ptr("A. Writer"),
		Penciller:           ptr("B. Pencil"),
		Inker:               ptr("C. Ink"),
		Colorist:            ptr("D. Color"),
		Letterer:            ptr("E. Letter"),
		CoverArtist:         ptr("F. Cover"),
		Editor:              ptr("G. Editor"),
		Translator:          ptr("H. Translator"),
		Publisher:           ptr("Indie House"),
		Imprint:             ptr("Small Press"),
		Genre:               ptr("Adventure, Drama"),
		Tags:                ptr("roadtrip"),
		Web:                 ptr("https://example.com/issue-1"),
		PageCount:           ptr(24),
		LanguageISO:         ptr("en"),
		Format:              ptr("Trade Paperback"),
		BlackAndWhite:       ptr(comicinfo.YesNoNo),
		Manga:               ptr(comicinfo.MangaYesAndRightToLeft),
		Characters:          ptr("Ann, Bob"),
		Teams:               ptr("Road Crew"),
		Locations:           ptr("Route 66"),
		ScanInformation:     ptr("600dpi"),
		StoryArc:            ptr("Departure"),
		StoryArcNumber:      ptr("1"),
		SeriesGroup:         ptr("Road Universe"),
		AgeRating:           ptr(comicinfo.AgeRatingAdultsOnly18),
		CommunityRating:     ptr(4.25),
		MainCharacterOrTeam: ptr("Ann"),
		Review:              ptr("Solid start."),
		GTIN:                ptr("9781234567897"),
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		doc  *comicinfo.ComicInfo
	}{
		{"empty", &comicinfo.ComicInfo{}},
		{"title only", &comicinfo.ComicInfo{Title: ptr("Issue One")}},
		{"empty string kept", &comicinfo.ComicInfo{Notes: ptr("")}},
		{"zero numbers kept", &comicinfo.ComicInfo{Count: ptr(0), CommunityRating: ptr(0.0)}},
		{"negative page count", &comicinfo.ComicInfo{PageCount: ptr(-3)}},
		{"unknown enums", &comicinfo.ComicInfo{
			BlackAndWhite: ptr(comicinfo.YesNoUnknown),
			Manga:         ptr(comicinfo.MangaUnknown),
			AgeRating:     ptr(comicinfo.AgeRatingUnknown),
		}},
		{"full", fullDocument()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := comicinfo.Encode(tc.doc)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := comicinfo.Decode(data)
			if err != nil {
				t.Fatalf("Decode: %v\n%s", err, data)
			}
			if !comicinfo.Equal(got, tc.doc) {
				t.Fatalf("round trip mismatch\nencoded: %s\ngot: %#v", data, got)
			}
		})
	}
}

func TestRoundTripEveryEnumValue(t *testing.T) {
	for _, v := range comicinfo.AgeRatingValues() {
		doc := &comicinfo.ComicInfo{AgeRating: ptr(v)}
		data, err := comicinfo.Encode(doc)
		if err != nil {
			t.Fatalf("Encode(%v): %v", v, err)
		}
		got, err := comicinfo.Decode(data)
		if err != nil {
			t.Fatalf("Decode(%v): %v", v, err)
		}
		if got.AgeRating == nil || *got.AgeRating != v {
			t.Fatalf("AgeRating %v did not survive: %s", v, data)
		}
	}
	for _, v := range comicinfo.MangaValues() {
		data, _ := comicinfo.Encode(&comicinfo.ComicInfo{Manga: ptr(v)})
		got, err := comicinfo.Decode(data)
		if err != nil || got.Manga == nil || *got.Manga != v {
			t.Fatalf("Manga %v did not survive: %v %s", v, err, data)
		}
	}
	for _, v := range comicinfo.YesNoValues() {
		data, _ := comicinfo.Encode(&comicinfo.ComicInfo{BlackAndWhite: ptr(v)})
		got, err := comicinfo.Decode(data)
		if err != nil || got.BlackAndWhite == nil || *got.BlackAndWhite != v {
			t.Fatalf("YesNo %v did not survive: %v %s", v, err, data)
		}
	}
}

func TestEncodeUsesExternalLabels(t *testing.T) {
	cases := map[comicinfo.AgeRating]string{
		comicinfo.AgeRatingAdultsOnly18:   "Adults Only 18+",
		comicinfo.AgeRatingEarlyChildhood: "Early Childhood",
		comicinfo.AgeRatingEveryone10:     "Everyone 10+",
		comicinfo.AgeRatingKidsToAdults:   "Kids to Adults",
		comicinfo.AgeRatingMA15:           "MA15+",
		comicinfo.AgeRatingMature17:       "Mature 17+",
		comicinfo.AgeRatingR18:            "R18+",
		comicinfo.AgeRatingRatingPending:  "Rating Pending",
		comicinfo.AgeRatingX18:            "X18+",
		comicinfo.AgeRatingTeen:           "Teen",
	}
	for value, label := range cases {
		data, err := comicinfo.Encode(&comicinfo.ComicInfo{AgeRating: ptr(value)})
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		want := "<AgeRating>" + label + "</AgeRating>"
		if !strings.Contains(string(data), want) {
			t.Errorf("expected %q in %s", want, data)
		}
	}
}

func TestEncodeDeclarationAndRoot(t *testing.T) {
	data, err := comicinfo.Encode(&comicinfo.ComicInfo{Title: ptr("Issue One")})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `<?xml version="1.0" encoding="utf-8"?>` + "\n" + `<ComicInfo><Title>Issue One</Title></ComicInfo>`
	if string(data) != want {
		t.Fatalf("unexpected encoding:\n got %q\nwant %q", data, want)
	}
}

func TestEncodeOmitsAbsentFields(t *testing.T) {
	data, err := comicinfo.Encode(&comicinfo.ComicInfo{Series: ptr("S"), PageCount: ptr(3)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	text := string(data)
	for _, f := range comicinfo.Fields() {
		present := strings.Contains(text, "<"+f.Name+">") || strings.Contains(text, "<"+f.Name+"/>")
		want := f.Name == "Series" || f.Name == "PageCount"
		if present != want {
			t.Errorf("field %s present=%v, want %v\n%s", f.Name, present, want, text)
		}
	}
}

func TestEncodeRejectsOutOfDomainEnum(t *testing.T) {
	bad := comicinfo.AgeRating(99)
	_, err := comicinfo.Encode(&comicinfo.ComicInfo{AgeRating: &bad})
	var encErr *comicinfo.EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected EncodeError, got %v", err)
	}
}

func TestDecodeRejectsUnknownEnumLabel(t *testing.T) {
	cases := []struct {
		field string
		doc   string
	}{
		{"AgeRating", `<ComicInfo><AgeRating>AdultsOnly18</AgeRating></ComicInfo>`},
		{"AgeRating", `<ComicInfo><AgeRating>everyone</AgeRating></ComicInfo>`},
		{"Manga", `<ComicInfo><Manga>RightToLeft</Manga></ComicInfo>`},
		{"BlackAndWhite", `<ComicInfo><BlackAndWhite>true</BlackAndWhite></ComicInfo>`},
		{"BlackAndWhite", `<ComicInfo><BlackAndWhite></BlackAndWhite></ComicInfo>`},
	}
	for _, tc := range cases {
		_, err := comicinfo.Decode([]byte(tc.doc))
		var parseErr *comicinfo.ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("Decode(%s): expected ParseError, got %v", tc.doc, err)
		}
		if parseErr.Field != tc.field {
			t.Errorf("Decode(%s): field %q, want %q", tc.doc, parseErr.Field, tc.field)
		}
	}
}

func TestDecodeRejectsWrongRoot(t *testing.T) {
	for _, doc := range []string{
		`<?xml version="1.0"?><ComicBookInfo><Title>x</Title></ComicBookInfo>`,
		`<comicinfo><Title>x</Title></comicinfo>`,
		``,
		`not xml at all`,
	} {
		_, err := comicinfo.Decode([]byte(doc))
		var parseErr *comicinfo.ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("Decode(%q): expected ParseError, got %v", doc, err)
		}
	}
}

func TestDecodeRejectsMalformedNumbers(t *testing.T) {
	for field, doc := range map[string]string{
		"Count":           `<ComicInfo><Count>twelve</Count></ComicInfo>`,
		"Year":            `<ComicInfo><Year>1999.5</Year></ComicInfo>`,
		"CommunityRating": `<ComicInfo><CommunityRating>high</CommunityRating></ComicInfo>`,
	} {
		_, err := comicinfo.Decode([]byte(doc))
		var parseErr *comicinfo.ParseError
		if !errors.As(err, &parseErr) || parseErr.Field != field {
			t.Errorf("Decode(%s): expected ParseError on %s, got %v", doc, field, err)
		}
	}
}

func TestDecodeIgnoresUnknownElementsAndAttributes(t *testing.T) {
	doc := `<?xml version="1.0" encoding="utf-8"?>
<ComicInfo xmlns:xsd="http://www.w3.org/2001/XMLSchema" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <Title>Issue One</Title>
  <Pages>
    <Page Image="0" Type="FrontCover" />
  </Pages>
  <PageCount> 24 </PageCount>
  <Manga>Yes</Manga>
</ComicInfo>`
	got, err := comicinfo.Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Title == nil || *got.Title != "Issue One" {
		t.Fatalf("unexpected title: %v", got.Title)
	}
	if got.PageCount == nil || *got.PageCount != 24 {
		t.Fatalf("unexpected page count: %v", got.PageCount)
	}
	if got.Manga == nil || *got.Manga != comicinfo.MangaYes {
		t.Fatalf("unexpected manga: %v", got.Manga)
	}
	if got.Series != nil {
		t.Fatalf("expected absent series, got %q", *got.Series)
	}
}

func TestDecodeRejectsDuplicateElements(t *testing.T) {
	_, err := comicinfo.Decode([]byte(`<ComicInfo><Title>a</Title><Title>b</Title></ComicInfo>`))
	var parseErr *comicinfo.ParseError
	if !errors.As(err, &parseErr) || parseErr.Field != "Title" {
		t.Fatalf("expected duplicate Title error, got %v", err)
	}
}

func TestJSONUsesPascalCaseKeysAndLabels(t *testing.T) {
	doc := &comicinfo.ComicInfo{
		Title:     ptr("Issue One"),
		AgeRating: ptr(comicinfo.AgeRatingMature17),
		PageCount: ptr(2),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"Title":"Issue One","PageCount":2,"AgeRating":"Mature 17+"}`
	if string(data) != want {
		t.Fatalf("unexpected json: %s", data)
	}

	var back comicinfo.ComicInfo
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !comicinfo.Equal(&back, doc) {
		t.Fatalf("json round trip mismatch: %#v", back)
	}
	if err := json.Unmarshal([]byte(`{"Manga":"Sideways"}`), &back); err == nil {
		t.Fatal("expected error for unknown Manga label")
	}
}

func TestIsEmptyAndClone(t *testing.T) {
	if !(&comicinfo.ComicInfo{}).IsEmpty() {
		t.Fatal("zero document should be empty")
	}
	doc := fullDocument()
	if doc.IsEmpty() {
		t.Fatal("full document should not be empty")
	}
	clone := doc.Clone()
	if !comicinfo.Equal(doc, clone) {
		t.Fatal("clone differs from original")
	}
	*clone.Title = "Changed"
	if *doc.Title == "Changed" {
		t.Fatal("clone shares storage with original")
	}
}

func TestDecodeAcceptsForeignEncodingDeclaration(t *testing.T) {
	cases := []struct {
		name string
		doc  []byte
		want string
	}{
		{
			name: "utf-16 header over utf-8 bytes",
			doc:  []byte("<?xml version=\"1.0\" encoding=\"utf-16\"?>\n<ComicInfo><Title>Café</Title></ComicInfo>"),
			want: "Café",
		},
		{
			name: "latin-1",
			doc:  []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n<ComicInfo><Title>Caf\xe9</Title></ComicInfo>"),
			want: "Café",
		},
		{
			name: "utf8 alias",
			doc:  []byte("<?xml version=\"1.0\" encoding=\"utf8\"?><ComicInfo><Title>x</Title></ComicInfo>"),
			want: "x",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := comicinfo.Decode(tc.doc)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if doc.Title == nil || *doc.Title != tc.want {
				t.Fatalf("title = %v, want %q", doc.Title, tc.want)
			}
		})
	}

	_, err := comicinfo.Decode([]byte(`<?xml version="1.0" encoding="x-klingon"?><ComicInfo/>`))
	var parseErr *comicinfo.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError for unknown encoding, got %v", err)
	}
}

func TestDecodeRejectsIntegersOutsideInt32(t *testing.T) {
	for _, value := range []string{"3000000000", "-2147483649"} {
		doc := `<ComicInfo><Count>` + value + `</Count></ComicInfo>`
		_, err := comicinfo.Decode([]byte(doc))
		var parseErr *comicinfo.ParseError
		if !errors.As(err, &parseErr) || parseErr.Field != "Count" {
			t.Errorf("Decode(%s): expected ParseError on Count, got %v", doc, err)
		}
	}
	doc, err := comicinfo.Decode([]byte(`<ComicInfo><Count>2147483647</Count></ComicInfo>`))
	if err != nil || doc.Count == nil || *doc.Count != 2147483647 {
		t.Fatalf("expected max int32 to decode, got %v, %v", doc, err)
	}
}

func TestEqualTreatsNaNRatingsAsEqual(t *testing.T) {
	doc := &comicinfo.ComicInfo{Title: ptr("x"), CommunityRating: ptr(math.NaN())}
	payload, err := comicinfo.Encode(doc)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := comicinfo.Decode(payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !comicinfo.Equal(doc, decoded) {
		t.Fatalf("expected NaN rating to survive a round trip as equal, got %s", payload)
	}
	if comicinfo.Equal(doc, &comicinfo.ComicInfo{Title: ptr("x"), CommunityRating: ptr(1.0)}) {
		t.Fatal("NaN rating must differ from a number")
	}
}
