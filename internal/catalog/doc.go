// Package catalog persists an index of the comic archives under a library
// directory in SQLite.
//
// Each row describes one archive: the identifying ComicInfo fields, the page
// count, whether a metadata entry exists, and the file size and modification
// time observed at scan time. Rows are keyed by absolute path and rebuilt from
// the archive whenever the scanner sees a change, so the catalog is a cache
// and can be deleted at any time.
//
// Search ranks entries by TF-IDF weighted cosine similarity between the query
// and each entry's series, title, number, publisher, and file name.
package catalog
