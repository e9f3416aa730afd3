package event

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// SourceKind classifies how an invocation's output was captured.
type SourceKind string

const (
	// SourceRun is a registered command executed via `logq run`.
	SourceRun SourceKind = "run"

	// SourceExec is a literal ad-hoc command.
	SourceExec SourceKind = "exec"

	// SourceImport is an existing log file parsed after the fact.
	SourceImport SourceKind = "import"

	// SourceCapture is output read from stdin.
	SourceCapture SourceKind = "capture"
)

// ValidSourceKinds lists the accepted kinds in declaration order.
var ValidSourceKinds = []SourceKind{SourceRun, SourceExec, SourceImport, SourceCapture}

// IsValid reports whether k is one of the known source kinds.
func (k SourceKind) IsValid() bool {
	for _, v := range ValidSourceKinds {
		if k == v {
			return true
		}
	}
	return false
}

// Invocation is one captured command execution. Records are immutable once
// written; retention pruning removes whole partitions, never single rows.
type Invocation struct {
	// ID is a UUIDv7, so lexical order follows creation order.
	ID string

	// RunNumber is the user-facing run identifier. Dense and monotonically
	// increasing across the whole store; assigned by the store at write time.
	RunNumber int64

	SourceName string
	SourceKind SourceKind
	Command    string
	CWD        string

	// ExitCode is nil when the command timed out.
	ExitCode *int64
	TimedOut bool

	StartedAt time.Time
	Duration  time.Duration

	// Date is the partition date (YYYY-MM-DD), fixed at capture time.
	Date string
}

// NewInvocationID generates a time-ordered unique invocation ID.
func NewInvocationID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// PartitionKey identifies one storage/retention partition.
type PartitionKey struct {
	Date string
	Kind SourceKind
}

func (p PartitionKey) String() string {
	return "date=" + p.Date + "/source=" + string(p.Kind)
}

// Partition returns the invocation's partition key.
func (inv Invocation) Partition() PartitionKey {
	return PartitionKey{Date: inv.Date, Kind: inv.SourceKind}
}

// Event is one diagnostic inside an invocation.
type Event struct {
	InvocationID string

	// EventIndex is 1-based and dense within an invocation, in parser
	// emission order.
	EventIndex int64

	// Severity is stored verbatim from the parser. Only the values in
	// severity.go drive classification; anything else counts as neither
	// error nor warning.
	Severity string

	FilePath     string
	LineNumber   int64
	ColumnNumber int64

	Message  string
	ToolName string
	Category string
	Code     string

	Fingerprint string

	// Raw-log back-reference, stored verbatim from the parser.
	LogLineStart int64
	LogLineEnd   int64
}

// Location formats the event position as file:line:col, or "?" when the
// diagnostic has no source location.
func (e Event) Location() string {
	if e.FilePath == "" {
		return "?"
	}
	loc := e.FilePath
	if e.LineNumber > 0 {
		loc += ":" + strconv.FormatInt(e.LineNumber, 10)
		if e.ColumnNumber > 0 {
			loc += ":" + strconv.FormatInt(e.ColumnNumber, 10)
		}
	}
	return loc
}

// Metadata is the optional side-record for an invocation: execution context
// captured at run time. The core never branches on its contents; it is
// carried for display and export only.
type Metadata struct {
	InvocationID string

	// SchemaVersion tracks the shape of the known fields below.
	SchemaVersion int

	Hostname string
	Platform string
	Arch     string

	GitCommit string
	GitBranch string
	GitDirty  *bool

	// Environment and CI are free-form maps; the escape hatch for
	// provider-specific context.
	Environment map[string]string
	CI          map[string]string
}

// MetadataSchemaVersion is the current version of the known-field set.
const MetadataSchemaVersion = 1
