// Package cbz reads and rewrites ComicInfo metadata inside comic book zip
// archives.
//
// Reads scan the archive directory and decode the first entry named
// ComicInfo.xml in any letter case. Writes never modify an archive in place:
// WriteMetadata streams every entry into a sibling "<path>.tmp" file, copying
// untouched entries with their original compressed bytes, swaps in the new
// metadata entry (stored uncompressed) at its original position or appends
// one, and commits with a single rename. A failure before the rename leaves
// the original archive as it was.
//
// Image entries are recognized by extension only (jpg, jpeg, png, gif, webp,
// bmp, any case). The cover is the first image name in plain byte order, so
// "page10.png" sorts before "page2.png"; archives with unpadded page numbers
// get the wrong cover. Content types come from the extension and anything
// other than png, gif or webp is reported as image/jpeg, bmp included.
//
// The package does not log and does not lock. Two concurrent writes to the
// same path race on the rename and the last one wins.
package cbz
