package parse

import (
	"sort"
	"strings"
)

// commandFormatHints maps command substrings to format hints. Longer
// patterns win so "cargo test" beats "cargo".
var commandFormatHints = map[string]string{
	// Python tools
	"pytest":           "pytest_text",
	"python -m pytest": "pytest_text",
	"mypy":             "mypy_text",
	"ruff":             "generic_lint",
	"flake8":           "flake8_text",
	"pylint":           "pylint_text",

	// Rust tools
	"cargo test":   "cargo_test_json",
	"cargo build":  "cargo_build",
	"cargo clippy": "clippy_json",

	// JavaScript / TypeScript
	"npm test":  "mocha_chai_text",
	"yarn test": "mocha_chai_text",
	"jest":      "mocha_chai_text",
	"mocha":     "mocha_chai_text",
	"eslint":    "eslint_json",

	// Go
	"go test": "gotest_json",
	"go vet":  "generic_lint",

	// Build systems
	"make":   "make_error",
	"cmake":  "cmake_build",
	"bazel":  "bazel_build",
	"gradle": "gradle_build",
	"mvn":    "maven_build",

	// Other linters
	"shellcheck": "shellcheck_json",
	"yamllint":   "yamllint_json",
	"terraform":  "terraform_text",

	// Ruby
	"rspec":   "rspec_text",
	"rubocop": "rubocop_json",
}

var hintPatterns = func() []string {
	ps := make([]string, 0, len(commandFormatHints))
	for p := range commandFormatHints {
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool {
		if len(ps[i]) != len(ps[j]) {
			return len(ps[i]) > len(ps[j])
		}
		return ps[i] < ps[j]
	})
	return ps
}()

// DetectFormat guesses a format hint from the command string. Matching is
// case-insensitive substring, longest pattern first. Unknown commands get
// FormatAuto.
func DetectFormat(command string) string {
	lower := strings.ToLower(command)
	for _, pattern := range hintPatterns {
		if strings.Contains(lower, pattern) {
			return commandFormatHints[pattern]
		}
	}
	return FormatAuto
}
