package cli

import (
	"context"
	"errors"
	"log/slog"

	"logq/internal/config"
	"logq/internal/event"
	"logq/internal/parse"
	"logq/internal/store"
)

// openWorkspace locates the .lq workspace and opens its database.
// Callers must Close the returned store.
func openWorkspace(opts *RootOptions) (*config.Config, *store.Store, error) {
	cfg, err := config.Find("")
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "workspace", err)
	}
	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "open database", err)
	}
	return cfg, st, nil
}

// asCommandError classifies user-addressable lookup and input errors as
// exit code 2, leaving everything else at the generic failure code.
func asCommandError(err error) error {
	if err == nil {
		return nil
	}
	var (
		malformed *event.MalformedRefError
		noInv     *store.NoSuchInvocationError
		noEvent   *store.NoSuchEventError
		notInit   *config.NotInitializedError
	)
	if errors.As(err, &malformed) || errors.As(err, &noInv) ||
		errors.As(err, &noEvent) || errors.As(err, &notInit) {
		return WrapExitError(ExitCommandError, "lookup", err)
	}
	return err
}

// RunSummary is what run, import, and capture report after persisting.
type RunSummary struct {
	RunNumber  int64            `json:"run"`
	Source     string           `json:"source"`
	Kind       event.SourceKind `json:"kind"`
	Badge      event.Badge      `json:"badge"`
	Events     int              `json:"events"`
	Errors     int64            `json:"errors"`
	Warnings   int64            `json:"warnings"`
	Format     string           `json:"format"`
	ExitCode   *int64           `json:"exit_code"`
	TimedOut   bool             `json:"timed_out,omitempty"`
	StoreError string           `json:"store_error,omitempty"`
}

// ingestAndStore parses output under the format hint and persists the
// invocation with its events and metadata. Parser failures degrade inside
// parse.Content; a failure of even the fallback logs and stores an empty
// batch rather than dropping the run.
func ingestAndStore(ctx context.Context, st *store.Store, log *slog.Logger,
	inv event.Invocation, meta *event.Metadata, output, format string) (RunSummary, error) {

	diags, usedFormat, err := parse.Content(output, format)
	if err != nil {
		log.Warn("parse failed, storing run without events",
			"format", format, "error", err)
		diags = nil
		usedFormat = format
	}
	events := parse.BuildEvents(inv.ID, inv.Command, diags)
	errs, warns := parse.Counts(events)

	runNumber, err := st.WriteRun(ctx, inv, events, meta)
	if err != nil {
		return RunSummary{}, err
	}

	log.Debug("run stored",
		"run", runNumber, "source", inv.SourceName,
		"events", len(events), "errors", errs, "warnings", warns)

	return RunSummary{
		RunNumber: runNumber,
		Source:    inv.SourceName,
		Kind:      inv.SourceKind,
		Badge:     event.BadgeFor(errs, warns),
		Events:    len(events),
		Errors:    errs,
		Warnings:  warns,
		Format:    usedFormat,
		ExitCode:  inv.ExitCode,
		TimedOut:  inv.TimedOut,
	}, nil
}
