package preflight

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"vidbits/internal/config"
	"vidbits/internal/deps"
	"vidbits/internal/media/video"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Run describes the files a single encode or decode touches. Video is the
// side of the run that holds frames and picks the container backend.
type Run struct {
	Input  string
	Output string
	Video  string
}

// RunAll executes all applicable preflight checks for one run.
func RunAll(ctx context.Context, cfg *config.Config, run Run) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	if err := ctx.Err(); err != nil {
		return []Result{{Name: "Preflight", Detail: err.Error()}}
	}

	if strings.TrimSpace(run.Input) != "" {
		results = append(results, CheckReadable("Input", run.Input))
	}
	if strings.TrimSpace(run.Output) != "" {
		results = append(results, CheckDirectoryAccess("Output directory", filepath.Dir(run.Output)))
	}

	if cfg.Logging.RunLogs && cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if cfg.Paths.CatalogPath != "" {
		results = append(results, CheckDirectoryAccess("Catalog directory", filepath.Dir(cfg.Paths.CatalogPath)))
	}

	needFFmpeg, err := usesFFmpeg(cfg, run)
	if err != nil {
		results = append(results, Result{Name: "Container", Detail: err.Error()})
		return results
	}
	for _, status := range CheckSystemDeps(cfg) {
		if !needFFmpeg && !status.Available {
			continue
		}
		results = append(results, fromStatus(status))
	}

	return results
}

func usesFFmpeg(cfg *config.Config, run Run) (bool, error) {
	if cfg.Video.Container == video.ContainerFFmpeg {
		return true, nil
	}
	if strings.TrimSpace(run.Video) == "" {
		return false, nil
	}
	backend, err := video.Backend(run.Video, video.Options{Container: cfg.Video.Container})
	if err != nil {
		return false, err
	}
	return backend == video.ContainerFFmpeg, nil
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

func fromStatus(status deps.Status) Result {
	if status.Available {
		return Result{Name: status.Name, Passed: true, Detail: status.Command}
	}
	return Result{Name: status.Name, Detail: fmt.Sprintf("%s (%s)", status.Detail, status.Description)}
}
