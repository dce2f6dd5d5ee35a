// Package api serves the archive operations and the library catalog over HTTP.
//
// # Routes
//
//	GET  /api/archive?path=         decoded ComicInfo as JSON
//	PUT  /api/archive?path=         replace ComicInfo from a JSON body (204)
//	GET  /api/archive/pages?path=   {"pageCount": n}
//	GET  /api/archive/cover?path=   cover image as a text/plain data URI
//	GET  /api/library?q=            catalog listing, or ranked search when q is set
//	GET  /health                    liveness
//	GET  /metrics                   Prometheus exposition
//
// Archive paths are relative to paths.library_dir. A path that resolves
// outside the library directory is rejected with 400 before any file is
// opened.
//
// # Errors
//
// Failures are written as {"error": "...", "kind": "..."}. The status follows
// the error kind: not_found maps to 404, parse to 422, bad_request to 400 and
// everything else to 500.
//
// # Authentication
//
// When api.token is set every /api route requires an
// "Authorization: Bearer <token>" header. /health and /metrics stay open.
//
// A successful PUT refreshes the archive's catalog row so /api/library sees
// the new metadata without a rescan.
package api
