// Package config loads, normalizes, and validates cbztag configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and applies CBZTAG_* environment overrides on
// top of the file. The Config type centralizes every knob the CLI, the library
// scanner, and the HTTP server need, so state and library directories are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
