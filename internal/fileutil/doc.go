// Package fileutil holds the filesystem primitives behind archive rewrites:
// staging a replacement next to its target and committing it with a single
// rename, plus verified copies used for backups.
package fileutil
