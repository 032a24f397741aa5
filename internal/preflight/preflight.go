package preflight

import (
	"context"
	"path/filepath"

	"shelver/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Database directory", filepath.Dir(cfg.Library.DatabasePath)),
	}
	if cfg.Library.SeedFile != "" {
		results = append(results, CheckFileReadable("Catalogue seed", cfg.Library.SeedFile))
	}
	for _, client := range cfg.DownloadClients {
		results = append(results, CheckDirectoryReadable("Watch directory ("+client.Name+")", client.WatchDir))
	}
	for _, mapping := range cfg.RemotePathMappings {
		results = append(results, CheckDirectoryReadable("Mapped path ("+mapping.RemotePath+")", mapping.LocalPath))
	}
	if cfg.Notifications.NtfyTopic != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, result := range results {
		if !result.Passed {
			out = append(out, result)
		}
	}
	return out
}
