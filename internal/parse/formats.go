package parse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// goTestJSONParser reads `go test -json` (test2json) streams. Each line is
// one JSON event; only terminal "fail" actions for named tests become
// diagnostics, so a passing suite parses to nothing.
type goTestJSONParser struct{}

func (*goTestJSONParser) Format() string { return "gotest_json" }

type goTestEvent struct {
	Action  string `json:"Action"`
	Package string `json:"Package"`
	Test    string `json:"Test"`
	Output  string `json:"Output"`
}

func (*goTestJSONParser) Parse(content string) ([]Diagnostic, error) {
	var diags []Diagnostic
	outputs := map[string][]string{}

	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := int64(0)
	sawEvent := false
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var ev goTestEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			if sawEvent {
				continue
			}
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		sawEvent = true
		key := ev.Package + "/" + ev.Test
		switch ev.Action {
		case "output":
			if ev.Test != "" {
				outputs[key] = append(outputs[key], strings.TrimRight(ev.Output, "\n"))
			}
		case "fail":
			if ev.Test == "" {
				continue
			}
			msg := ev.Test + " failed"
			if lines := outputs[key]; len(lines) > 0 {
				msg = strings.TrimSpace(strings.Join(lines, " "))
			}
			diags = append(diags, Diagnostic{
				Severity:     "error",
				Message:      msg,
				ToolName:     "go test",
				Category:     "test_failure",
				Code:         ev.Test,
				FilePath:     ev.Package,
				LogLineStart: lineNo,
				LogLineEnd:   lineNo,
			})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !sawEvent {
		return nil, fmt.Errorf("no test2json events found")
	}
	return diags, nil
}

// eslintJSONParser reads eslint's JSON formatter output: an array of file
// results, each with a messages list. ESLint severity 2 is an error,
// 1 a warning.
type eslintJSONParser struct{}

func (*eslintJSONParser) Format() string { return "eslint_json" }

type eslintResult struct {
	FilePath string          `json:"filePath"`
	Messages []eslintMessage `json:"messages"`
}

type eslintMessage struct {
	RuleID   string `json:"ruleId"`
	Severity int    `json:"severity"`
	Message  string `json:"message"`
	Line     int64  `json:"line"`
	Column   int64  `json:"column"`
}

func (*eslintJSONParser) Parse(content string) ([]Diagnostic, error) {
	var results []eslintResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &results); err != nil {
		return nil, fmt.Errorf("eslint json: %w", err)
	}
	var diags []Diagnostic
	for _, r := range results {
		for _, m := range r.Messages {
			severity := "warning"
			if m.Severity >= 2 {
				severity = "error"
			}
			diags = append(diags, Diagnostic{
				Severity:     severity,
				FilePath:     r.FilePath,
				LineNumber:   m.Line,
				ColumnNumber: m.Column,
				Message:      m.Message,
				ToolName:     "eslint",
				Category:     "lint",
				Code:         m.RuleID,
			})
		}
	}
	return diags, nil
}

// pytestTextParser reads pytest's plain text output. It keys off the short
// test summary lines ("FAILED path::test - reason", "ERROR path") that
// pytest prints at the end of a run.
type pytestTextParser struct{}

func (*pytestTextParser) Format() string { return "pytest_text" }

var pytestSummaryRe = regexp.MustCompile(`^(FAILED|ERROR)\s+(\S+?)(?:::(\S+))?(?:\s+-\s+(.*))?$`)

func (*pytestTextParser) Parse(content string) ([]Diagnostic, error) {
	var diags []Diagnostic
	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := int64(0)
	for sc.Scan() {
		lineNo++
		m := pytestSummaryRe.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		msg := m[4]
		if msg == "" {
			msg = strings.ToLower(m[1]) + ": " + m[2]
			if m[3] != "" {
				msg += "::" + m[3]
			}
		}
		diags = append(diags, Diagnostic{
			Severity:     "error",
			FilePath:     m[2],
			Message:      msg,
			ToolName:     "pytest",
			Category:     "test_failure",
			Code:         m[3],
			LogLineStart: lineNo,
			LogLineEnd:   lineNo,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return diags, nil
}
