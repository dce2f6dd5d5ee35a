// Package comicinfo models the ComicInfo.xml metadata document stored inside
// comic book archives.
//
// ComicInfo keeps every field optional: a nil pointer means "not specified"
// and is never replaced by a default. The three enumerations (YesNo, Manga,
// AgeRating) share one label table each, so the text written by Encode and
// the text accepted by Decode cannot drift apart. Decode rejects any label
// outside a table instead of mapping it to Unknown.
//
// Encode and Decode round-trip: Decode(Encode(d)) equals d for every document
// built from the exported constants. The same field names and labels are used
// for the JSON form consumed by the HTTP boundary.
//
// This package performs no I/O and no logging; archive access lives in
// internal/cbz.
package comicinfo
