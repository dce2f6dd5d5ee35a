// Package library walks a directory of comic archives and keeps the catalog in
// step with it.
//
// A scan holds an exclusive flock on <state_dir>/library.lock for its whole
// duration so two scans, from the CLI and the HTTP server say, never
// interleave catalog updates. Every scan gets a UUID run ID that is attached to
// the context and therefore to each log line. Archives whose size and
// modification time match the catalog row are skipped unless the scan is
// forced; rows for archives that disappeared from the walked tree are removed.
package library
