package comicinfo_test

import (
	"strings"
	"testing"

	"cbztag/internal/comicinfo"
)

func TestFieldsFollowDocumentOrder(t *testing.T) {
	fields := comicinfo.Fields()
	if len(fields) != 43 {
		t.Fatalf("expected 43 fields, got %d", len(fields))
	}
	if fields[0].Name != "Title" || fields[len(fields)-1].Name != "GTIN" {
		t.Fatalf("unexpected order: first %s last %s", fields[0].Name, fields[len(fields)-1].Name)
	}
	rating, ok := comicinfo.Lookup("agerating")
	if !ok {
		t.Fatal("expected AgeRating lookup to succeed")
	}
	if rating.Kind != comicinfo.KindEnum || len(rating.Choices) != 15 {
		t.Fatalf("unexpected AgeRating descriptor: %+v", rating)
	}
}

func TestSetParsesByKind(t *testing.T) {
	doc := &comicinfo.ComicInfo{}
	steps := []struct {
		name, value string
	}{
		{"title", "Issue One"},
		{"PageCount", "24"},
		{"CommunityRating", "3.5"},
		{"AgeRating", "Everyone 10+"},
		{"manga", "YesAndRightToLeft"},
	}
	for _, s := range steps {
		if err := comicinfo.Set(doc, s.name, s.value); err != nil {
			t.Fatalf("Set(%s): %v", s.name, err)
		}
	}
	if *doc.Title != "Issue One" || *doc.PageCount != 24 || *doc.CommunityRating != 3.5 {
		t.Fatalf("unexpected values: %+v", doc)
	}
	if *doc.AgeRating != comicinfo.AgeRatingEveryone10 || *doc.Manga != comicinfo.MangaYesAndRightToLeft {
		t.Fatalf("unexpected enums: %v %v", *doc.AgeRating, *doc.Manga)
	}

	got, ok, err := comicinfo.Get(doc, "AgeRating")
	if err != nil || !ok || got != "Everyone 10+" {
		t.Fatalf("Get AgeRating = %q %v %v", got, ok, err)
	}

	if err := comicinfo.Set(doc, "PageCount", ""); err != nil {
		t.Fatalf("clear PageCount: %v", err)
	}
	if doc.PageCount != nil {
		t.Fatal("expected PageCount cleared")
	}
	if _, ok, _ := comicinfo.Get(doc, "PageCount"); ok {
		t.Fatal("expected Get to report absent PageCount")
	}
}

func TestSetRejectsInvalidValues(t *testing.T) {
	doc := &comicinfo.ComicInfo{}
	cases := []struct {
		name, value, want string
	}{
		{"Nickname", "x", "unknown field"},
		{"Year", "nineteen", "invalid integer"},
		{"Count", "3000000000", "invalid integer"},
		{"CommunityRating", "five", "invalid number"},
		{"AgeRating", "Mature17", "unrecognized value"},
	}
	for _, tc := range cases {
		err := comicinfo.Set(doc, tc.name, tc.value)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("Set(%s, %q) = %v, want error containing %q", tc.name, tc.value, err, tc.want)
		}
	}
	if !doc.IsEmpty() {
		t.Fatalf("failed sets must not modify the document: %+v", doc)
	}
}

func TestPresentListsSetFieldsInOrder(t *testing.T) {
	doc := &comicinfo.ComicInfo{
		GTIN:          ptr("123"),
		Title:         ptr("T"),
		BlackAndWhite: ptr(comicinfo.YesNoYes),
	}
	got := comicinfo.Present(doc)
	want := [][2]string{{"Title", "T"}, {"BlackAndWhite", "Yes"}, {"GTIN", "123"}}
	if len(got) != len(want) {
		t.Fatalf("Present = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Present[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLint(t *testing.T) {
	doc := &comicinfo.ComicInfo{
		Month:           ptr(13),
		Day:             ptr(0),
		CommunityRating: ptr(7.5),
		PageCount:       ptr(-1),
		LanguageISO:     ptr("x1"),
		Web:             ptr("https://ok.example ftp://nope"),
	}
	issues := comicinfo.Lint(doc)
	fields := map[string]bool{}
	for _, issue := range issues {
		fields[issue.Field] = true
	}
	for _, want := range []string{"Month", "Day", "CommunityRating", "PageCount", "LanguageISO", "Web"} {
		if !fields[want] {
			t.Errorf("expected lint issue for %s, got %v", want, issues)
		}
	}

	clean := &comicinfo.ComicInfo{Month: ptr(1), Day: ptr(31), LanguageISO: ptr("pt-BR"), CommunityRating: ptr(5.0)}
	if issues := comicinfo.Lint(clean); len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
}
