package config

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"logq/internal/event"
)

// ciProviders pairs a telltale environment variable with a provider name.
// Checked in order so detection is deterministic when several are set.
var ciProviders = []struct{ telltale, provider string }{
	{"GITHUB_ACTIONS", "github-actions"},
	{"GITLAB_CI", "gitlab-ci"},
	{"CIRCLECI", "circleci"},
	{"JENKINS_URL", "jenkins"},
	{"TRAVIS", "travis"},
	{"BUILDKITE", "buildkite"},
}

// ciContextVars are recorded verbatim when present, regardless of the
// capture_env config.
var ciContextVars = []string{
	"GITHUB_RUN_ID", "GITHUB_SHA", "GITHUB_REF",
	"CI_PIPELINE_ID", "CI_COMMIT_SHA",
	"BUILD_NUMBER",
}

// CaptureMetadata collects the execution context recorded alongside a run:
// host identity, git state of dir, configured environment variables, and
// CI context. Everything here is best effort; a missing git binary or a
// detached workspace just leaves fields empty.
func CaptureMetadata(ctx context.Context, cfg *Config, dir string, extraEnv []string) *event.Metadata {
	meta := &event.Metadata{
		SchemaVersion: event.MetadataSchemaVersion,
		Platform:      runtime.GOOS,
		Arch:          runtime.GOARCH,
	}
	if host, err := os.Hostname(); err == nil {
		meta.Hostname = host
	}

	meta.GitCommit = gitOutput(ctx, dir, "rev-parse", "--short", "HEAD")
	meta.GitBranch = gitOutput(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if meta.GitCommit != "" {
		dirty := gitOutput(ctx, dir, "status", "--porcelain") != ""
		meta.GitDirty = &dirty
	}

	var capture []string
	if cfg != nil {
		capture = append(capture, cfg.CaptureEnv...)
	}
	capture = append(capture, extraEnv...)
	for _, name := range capture {
		if v, ok := os.LookupEnv(name); ok {
			if meta.Environment == nil {
				meta.Environment = map[string]string{}
			}
			meta.Environment[name] = v
		}
	}

	for _, p := range ciProviders {
		if os.Getenv(p.telltale) == "" {
			continue
		}
		meta.CI = map[string]string{"provider": p.provider}
		for _, name := range ciContextVars {
			if v, ok := os.LookupEnv(name); ok {
				meta.CI[name] = v
			}
		}
		break
	}
	return meta
}

func gitOutput(ctx context.Context, dir string, args ...string) string {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
