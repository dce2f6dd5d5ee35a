package comicinfo

import (
	"fmt"
)

// labelTable is the single authoritative mapping between an enum's values and
// the text written to ComicInfo.xml. Index order matches the Go constant order.
type labelTable[T ~int] struct {
	name    string
	labels  []string
	byLabel map[string]T
}

func newLabelTable[T ~int](name string, labels ...string) labelTable[T] {
	byLabel := make(map[string]T, len(labels))
	for i, label := range labels {
		byLabel[label] = T(i)
	}
	return labelTable[T]{name: name, labels: labels, byLabel: byLabel}
}

func (t labelTable[T]) label(v T) (string, error) {
	if int(v) < 0 || int(v) >= len(t.labels) {
		return "", fmt.Errorf("%s: value %d outside the fixed domain", t.name, int(v))
	}
	return t.labels[v], nil
}

func (t labelTable[T]) parse(text string) (T, error) {
	v, ok := t.byLabel[text]
	if !ok {
		return 0, fmt.Errorf("%s: unrecognized value %q", t.name, text)
	}
	return v, nil
}

func (t labelTable[T]) values() []T {
	out := make([]T, len(t.labels))
	for i := range t.labels {
		out[i] = T(i)
	}
	return out
}

// YesNo is the tri-state flag used by BlackAndWhite.
type YesNo int

const (
	YesNoUnknown YesNo = iota
	YesNoNo
	YesNoYes
)

var yesNoLabels = newLabelTable[YesNo]("YesNo", "Unknown", "No", "Yes")

// String returns the ComicInfo label, or a diagnostic for out-of-range values.
func (v YesNo) String() string {
	s, err := yesNoLabels.label(v)
	if err != nil {
		return fmt.Sprintf("YesNo(%d)", int(v))
	}
	return s
}

// MarshalText implements encoding.TextMarshaler.
func (v YesNo) MarshalText() ([]byte, error) {
	s, err := yesNoLabels.label(v)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Only exact labels are accepted.
func (v *YesNo) UnmarshalText(text []byte) error {
	parsed, err := yesNoLabels.parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// YesNoValues lists every YesNo value in declaration order.
func YesNoValues() []YesNo { return yesNoLabels.values() }

// Manga is the reading-direction flag.
type Manga int

const (
	MangaUnknown Manga = iota
	MangaNo
	MangaYes
	MangaYesAndRightToLeft
)

var mangaLabels = newLabelTable[Manga]("Manga", "Unknown", "No", "Yes", "YesAndRightToLeft")

func (v Manga) String() string {
	s, err := mangaLabels.label(v)
	if err != nil {
		return fmt.Sprintf("Manga(%d)", int(v))
	}
	return s
}

// MarshalText implements encoding.TextMarshaler.
func (v Manga) MarshalText() ([]byte, error) {
	s, err := mangaLabels.label(v)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Manga) UnmarshalText(text []byte) error {
	parsed, err := mangaLabels.parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MangaValues lists every Manga value in declaration order.
func MangaValues() []Manga { return mangaLabels.values() }

// AgeRating is the closed set of rating tiers. Several labels differ from the
// constant names ("Adults Only 18+" for AgeRatingAdultsOnly18).
type AgeRating int

const (
	AgeRatingUnknown AgeRating = iota
	AgeRatingAdultsOnly18
	AgeRatingEarlyChildhood
	AgeRatingEveryone
	AgeRatingEveryone10
	AgeRatingG
	AgeRatingKidsToAdults
	AgeRatingM
	AgeRatingMA15
	AgeRatingMature17
	AgeRatingPG
	AgeRatingR18
	AgeRatingRatingPending
	AgeRatingTeen
	AgeRatingX18
)

var ageRatingLabels = newLabelTable[AgeRating]("AgeRating",
	"Unknown",
	"Adults Only 18+",
	"Early Childhood",
	"Everyone",
	"Everyone 10+",
	"G",
	"Kids to Adults",
	"M",
	"MA15+",
	"Mature 17+",
	"PG",
	"R18+",
	"Rating Pending",
	"Teen",
	"X18+",
)

func (v AgeRating) String() string {
	s, err := ageRatingLabels.label(v)
	if err != nil {
		return fmt.Sprintf("AgeRating(%d)", int(v))
	}
	return s
}

// MarshalText implements encoding.TextMarshaler.
func (v AgeRating) MarshalText() ([]byte, error) {
	s, err := ageRatingLabels.label(v)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *AgeRating) UnmarshalText(text []byte) error {
	parsed, err := ageRatingLabels.parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// AgeRatingValues lists every AgeRating value in declaration order.
func AgeRatingValues() []AgeRating { return ageRatingLabels.values() }
