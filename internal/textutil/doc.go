// Package textutil provides the text matching used by catalog search.
//
// Fingerprints are term-frequency vectors over folded tokens. Tokenization
// case-folds with golang.org/x/text/cases, splits on anything that is not a
// letter or digit, drops one-letter words, and keeps numbers of any length
// with leading zeros removed so "Vol. 003" and "vol 3" agree. Cosine
// similarity compares two fingerprints; a Corpus supplies IDF weights so
// common words like "the" count for less.
package textutil
