package store

import "fmt"

// NoSuchInvocationError reports a run number that names no stored run.
type NoSuchInvocationError struct {
	RunNumber int64
}

func (e *NoSuchInvocationError) Error() string {
	return fmt.Sprintf("no such run: %d", e.RunNumber)
}

// NoSuchEventError reports a run that exists but has no event at the
// requested index.
type NoSuchEventError struct {
	RunNumber  int64
	EventIndex int64
}

func (e *NoSuchEventError) Error() string {
	return fmt.Sprintf("run %d has no event %d", e.RunNumber, e.EventIndex)
}
