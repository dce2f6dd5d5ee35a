// Package preflight provides readiness checks for the filesystem paths and
// listen address cbztag depends on.
//
// The CLI "cbztag config validate" command runs RunAll and prints one line per
// result; "cbztag serve" and "cbztag library scan" call the individual checks
// before they start so a missing library directory fails fast with a clear
// message instead of surfacing as a per-archive error.
package preflight
