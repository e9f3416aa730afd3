package parse

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

// heuristicParser is the FormatAuto fallback: a line scanner that flags
// lines containing the literal words "error" or "warning". It never fails;
// at worst it finds nothing.
type heuristicParser struct{}

func (*heuristicParser) Format() string { return FormatAuto }

var (
	errorWordRe   = regexp.MustCompile(`(?i)\berrors?\b`)
	warningWordRe = regexp.MustCompile(`(?i)\bwarnings?\b`)

	// gcc-style location prefix: file:line[:col]
	locationRe = regexp.MustCompile(`^([^\s:]+):(\d+)(?::(\d+))?[: ]`)
)

func (*heuristicParser) Parse(content string) ([]Diagnostic, error) {
	var diags []Diagnostic
	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := int64(0)
	for sc.Scan() {
		lineNo++
		line := sc.Text()

		var severity string
		switch {
		case errorWordRe.MatchString(line):
			severity = "error"
		case warningWordRe.MatchString(line):
			severity = "warning"
		default:
			continue
		}

		d := Diagnostic{
			Severity:     severity,
			Message:      strings.TrimSpace(line),
			Category:     "heuristic",
			LogLineStart: lineNo,
			LogLineEnd:   lineNo,
		}
		if m := locationRe.FindStringSubmatch(line); m != nil {
			d.FilePath = m[1]
			d.LineNumber, _ = strconv.ParseInt(m[2], 10, 64)
			if m[3] != "" {
				d.ColumnNumber, _ = strconv.ParseInt(m[3], 10, 64)
			}
		}
		diags = append(diags, d)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return diags, nil
}

// genericLintParser handles the common "file:line:col: severity: message"
// shape emitted by gcc, clang, ruff, go vet and friends. Lines that do not
// match the shape are ignored.
type genericLintParser struct{}

func (*genericLintParser) Format() string { return "generic_lint" }

var lintLineRe = regexp.MustCompile(
	`^([^\s:]+):(\d+)(?::(\d+))?:\s*(error|warning|note|info)\s*:?\s*(.*)$`)

func (*genericLintParser) Parse(content string) ([]Diagnostic, error) {
	var diags []Diagnostic
	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := int64(0)
	for sc.Scan() {
		lineNo++
		m := lintLineRe.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		d := Diagnostic{
			Severity:     m[4],
			FilePath:     m[1],
			Message:      strings.TrimSpace(m[5]),
			Category:     "lint",
			LogLineStart: lineNo,
			LogLineEnd:   lineNo,
		}
		d.LineNumber, _ = strconv.ParseInt(m[2], 10, 64)
		if m[3] != "" {
			d.ColumnNumber, _ = strconv.ParseInt(m[3], 10, 64)
		}
		diags = append(diags, d)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return diags, nil
}
