// Package main hosts the cbztag CLI entrypoint and command graph.
//
// The Cobra-based command tree exposes the archive operations (show, set,
// pages, cover, info, lint), the library catalog (library scan, list, search),
// the HTTP server (serve) and configuration scaffolding. Configuration and
// logger construction are resolved once per invocation by commandContext so
// subcommands only deal with their own flags and output.
//
// Keep this package thin: behavior belongs in internal/cbz, internal/catalog
// and internal/library; commands here parse arguments and render results.
package main
