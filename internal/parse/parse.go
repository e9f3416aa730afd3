// Package parse turns raw command output into structured diagnostics.
//
// Parsers are format-specific and selected by hint; FormatAuto runs the
// heuristic line scanner. The package deliberately knows nothing about
// storage: it emits Diagnostic values and the event package owns their
// canonical form.
package parse

import (
	"fmt"
)

// Diagnostic is one parsed finding from a tool's output. Field presence
// varies by format; zero values mean "the tool did not say".
type Diagnostic struct {
	Severity     string
	FilePath     string
	LineNumber   int64
	ColumnNumber int64
	Message      string
	ToolName     string
	Category     string
	Code         string

	// Raw-log back-reference, 1-based line numbers into the captured
	// output. Zero when the parser cannot attribute lines.
	LogLineStart int64
	LogLineEnd   int64
}

// Parser converts raw log content into diagnostics.
type Parser interface {
	// Format returns the hint this parser answers to, e.g. "gotest_json".
	Format() string

	// Parse scans content and returns diagnostics in emission order.
	// Zero diagnostics with a nil error is a valid outcome.
	Parse(content string) ([]Diagnostic, error)
}

// FormatAuto selects the heuristic scanner.
const FormatAuto = "auto"

// ParseError reports a parser that failed outright. Callers treat it as
// recoverable and fall back to the heuristic scanner.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failed for format %q: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnsupportedFormatError reports a format hint with no registered parser.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("no parser for format %q", e.Format)
}

var registry = map[string]Parser{}

func register(p Parser) {
	registry[p.Format()] = p
}

func init() {
	register(&heuristicParser{})
	register(&genericLintParser{})
	register(&goTestJSONParser{})
	register(&eslintJSONParser{})
	register(&pytestTextParser{})
}

// Lookup returns the parser for a format hint.
func Lookup(format string) (Parser, error) {
	if p, ok := registry[format]; ok {
		return p, nil
	}
	return nil, &UnsupportedFormatError{Format: format}
}

// Formats lists all registered format hints.
func Formats() []string {
	out := make([]string, 0, len(registry))
	for f := range registry {
		out = append(out, f)
	}
	return out
}

// Content parses content under the given format hint. Unknown hints and
// parser failures degrade to the heuristic scanner instead of losing the
// run; the returned format names the parser that actually produced the
// diagnostics.
func Content(content, format string) ([]Diagnostic, string, error) {
	if format == "" {
		format = FormatAuto
	}
	p, err := Lookup(format)
	if err != nil {
		p = registry[FormatAuto]
		format = FormatAuto
	}
	diags, err := p.Parse(content)
	if err != nil {
		if format == FormatAuto {
			return nil, format, &ParseError{Format: format, Err: err}
		}
		diags, err = registry[FormatAuto].Parse(content)
		if err != nil {
			return nil, FormatAuto, &ParseError{Format: FormatAuto, Err: err}
		}
		return diags, FormatAuto, nil
	}
	return diags, format, nil
}
