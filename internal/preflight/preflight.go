package preflight

import (
	"cbztag/internal/config"
)

// Check names reported by RunAll.
const (
	StateDirCheckName   = "State directory"
	LibraryDirCheckName = "Library directory"
	BindCheckName       = "API bind"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes every preflight check for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess(StateDirCheckName, cfg.Paths.StateDir),
		CheckDirectoryAccess(LibraryDirCheckName, cfg.Paths.LibraryDir),
		CheckBindAddress(BindCheckName, cfg.API.Bind),
	}
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
