package event

import (
	"fmt"
	"strconv"
	"strings"
)

// Ref addresses one stored event as "run_number:event_index". Both halves
// are positive decimal integers; run numbers count all runs ever recorded
// in the store, event indexes are 1-based within a run.
type Ref struct {
	RunNumber  int64
	EventIndex int64
}

func (r Ref) String() string {
	return strconv.FormatInt(r.RunNumber, 10) + ":" + strconv.FormatInt(r.EventIndex, 10)
}

// MalformedRefError reports a reference string that does not parse.
// Resolution failures (a well-formed ref naming nothing) are a store
// concern, not a parse concern.
type MalformedRefError struct {
	Input  string
	Reason string
}

func (e *MalformedRefError) Error() string {
	return fmt.Sprintf("malformed ref %q: %s", e.Input, e.Reason)
}

// ParseRef parses "N:M" into a Ref. The grammar is strict: exactly one
// colon, both halves non-empty decimal integers >= 1, no whitespace, no
// signs. Anything else is a MalformedRefError.
func ParseRef(s string) (Ref, error) {
	left, right, ok := strings.Cut(s, ":")
	if !ok {
		return Ref{}, &MalformedRefError{Input: s, Reason: "expected run:event"}
	}
	run, err := parseRefPart(left)
	if err != nil {
		return Ref{}, &MalformedRefError{Input: s, Reason: "bad run number: " + err.Error()}
	}
	idx, err := parseRefPart(right)
	if err != nil {
		return Ref{}, &MalformedRefError{Input: s, Reason: "bad event index: " + err.Error()}
	}
	return Ref{RunNumber: run, EventIndex: idx}, nil
}

func parseRefPart(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, fmt.Errorf("leading zero")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("not a positive integer")
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("must be >= 1")
	}
	return n, nil
}

// RunSelector picks runs relative to the most recent one. "last" means the
// single latest run, "last:N" the latest N. An explicit number selects that
// run directly.
type RunSelector struct {
	// Last holds N for "last:N" style selectors; zero when Run is set.
	Last int
	// Run is an explicit run number; zero when Last is set.
	Run int64
}

// ParseRunSelector parses "last", "last:N", or a bare run number.
func ParseRunSelector(s string) (RunSelector, error) {
	if s == "last" {
		return RunSelector{Last: 1}, nil
	}
	if rest, ok := strings.CutPrefix(s, "last:"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			return RunSelector{}, &MalformedRefError{Input: s, Reason: "last:N needs a positive count"}
		}
		return RunSelector{Last: n}, nil
	}
	run, err := parseRefPart(s)
	if err != nil {
		return RunSelector{}, &MalformedRefError{Input: s, Reason: "bad run selector: " + err.Error()}
	}
	return RunSelector{Run: run}, nil
}
