package comicinfo

import (
	"fmt"
	"strings"

	"cbztag/internal/language"
)

// Issue is a suspicious but representable value.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (i Issue) String() string { return i.Field + ": " + i.Message }

// Lint reports values that readers commonly reject. The document is never
// modified and decoding never depends on these checks.
func Lint(info *ComicInfo) []Issue {
	if info == nil {
		return nil
	}
	var issues []Issue
	add := func(field, format string, args ...any) {
		issues = append(issues, Issue{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	for _, c := range []struct {
		name  string
		value *int
	}{
		{"Count", info.Count},
		{"Volume", info.Volume},
		{"AlternateCount", info.AlternateCount},
		{"PageCount", info.PageCount},
	} {
		if c.value != nil && *c.value < 0 {
			add(c.name, "negative value %d", *c.value)
		}
	}
	if info.Month != nil && (*info.Month < 1 || *info.Month > 12) {
		add("Month", "%d is not between 1 and 12", *info.Month)
	}
	if info.Day != nil && (*info.Day < 1 || *info.Day > 31) {
		add("Day", "%d is not between 1 and 31", *info.Day)
	}
	if info.CommunityRating != nil && (*info.CommunityRating < 0 || *info.CommunityRating > 5) {
		add("CommunityRating", "%g is not between 0 and 5", *info.CommunityRating)
	}
	if info.LanguageISO != nil {
		code := strings.TrimSpace(*info.LanguageISO)
		if code == "" {
			add("LanguageISO", "empty language code")
		} else if _, err := language.Parse(code); err != nil {
			add("LanguageISO", "%v", err)
		}
	}
	if info.Web != nil {
		for _, link := range strings.Fields(*info.Web) {
			if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
				add("Web", "%q is not an http(s) link", link)
			}
		}
	}
	return issues
}
