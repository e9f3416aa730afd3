package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execLogq runs the full CLI against args with a fresh root command so
// flag state never leaks between invocations.
func execLogq(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// initWorkspace creates a fresh workspace in a temp dir and chdirs into it.
func initWorkspace(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	out, err := execLogq(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "initialized")
}

// writeLog writes a log fixture into the current directory.
func writeLog(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(".", name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const failingLog = `compiling main.c
src/main.c:42:7: error: undefined reference to foo
src/util.c:10:2: warning: unused variable x
linker error: cannot find output
done
`

const recoveredLog = `compiling main.c
src/util.c:10:2: warning: unused variable x
done
`

func TestWorkflowImportStatusErrorsShow(t *testing.T) {
	initWorkspace(t)
	logPath := writeLog(t, "build.log", failingLog)

	out, err := execLogq(t, "import", "--source", "build", logPath)
	require.NoError(t, err)
	assert.Contains(t, out, "[FAIL] run 1 (import/build): 3 events, 2 errors, 1 warnings")

	out, err = execLogq(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "build")
	assert.Contains(t, out, "FAIL")

	out, err = execLogq(t, "errors")
	require.NoError(t, err)
	assert.Contains(t, out, "1:1")
	assert.Contains(t, out, "1:2")
	assert.Contains(t, out, "src/main.c:42:7")
	assert.NotContains(t, out, "unused variable") // warnings stay out

	out, err = execLogq(t, "warnings")
	require.NoError(t, err)
	assert.Contains(t, out, "unused variable x")

	out, err = execLogq(t, "show", "1:1")
	require.NoError(t, err)
	assert.Contains(t, out, "ref:         1:1")
	assert.Contains(t, out, "severity:    error")
	assert.Contains(t, out, "undefined reference to foo")
}

func TestWorkflowDiff(t *testing.T) {
	initWorkspace(t)
	failing := writeLog(t, "a.log", failingLog)
	recovered := writeLog(t, "b.log", recoveredLog)

	_, err := execLogq(t, "import", "--source", "build", failing)
	require.NoError(t, err)
	out, err := execLogq(t, "import", "--source", "build", recovered)
	require.NoError(t, err)
	assert.Contains(t, out, "[WARN] run 2")

	out, err = execLogq(t, "diff", "1", "last")
	require.NoError(t, err)
	assert.Contains(t, out, "diff run 1 -> run 2")
	assert.Contains(t, out, "fixed (2):")
	assert.Contains(t, out, "new (0):")
	assert.Contains(t, out, "unchanged (0):")
	assert.Contains(t, out, "category deltas")
}

func TestHistoryOrderingAndLimit(t *testing.T) {
	initWorkspace(t)
	logPath := writeLog(t, "build.log", recoveredLog)

	for i := 0; i < 3; i++ {
		_, err := execLogq(t, "import", "--source", "build", logPath)
		require.NoError(t, err)
	}

	out, err := execLogq(t, "history", "-n", "2")
	require.NoError(t, err)
	lines := bytes.Count([]byte(out), []byte("\n"))
	assert.Equal(t, 3, lines, "header plus two runs")
	// Newest first.
	assert.Regexp(t, `(?s)3\s.*2\s`, out)
	assert.NotContains(t, out, "\n1 ")
}

func TestImportJSONOutput(t *testing.T) {
	initWorkspace(t)
	logPath := writeLog(t, "build.log", failingLog)

	out, err := execLogq(t, "--format", "json", "import", "--source", "build", logPath)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, int64(1), resp.Data.RunNumber)
	assert.Equal(t, int64(2), resp.Data.Errors)
	assert.Equal(t, int64(1), resp.Data.Warnings)
}

func TestStatusEmptyWorkspace(t *testing.T) {
	initWorkspace(t)

	out, err := execLogq(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "no runs recorded")
}

func TestNotInitialized(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := execLogq(t, "status")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "logq init")
}

func TestInitTwiceFails(t *testing.T) {
	initWorkspace(t)

	_, err := execLogq(t, "init")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "already exists")
}

func TestShowMalformedRef(t *testing.T) {
	initWorkspace(t)

	_, err := execLogq(t, "show", "1:abc")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "1:abc")
}

func TestShowMissingEvent(t *testing.T) {
	initWorkspace(t)
	logPath := writeLog(t, "build.log", failingLog)
	_, err := execLogq(t, "import", "--source", "build", logPath)
	require.NoError(t, err)

	_, err = execLogq(t, "show", "1:99")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execLogq(t, "show", "42:1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidOutputFormat(t *testing.T) {
	initWorkspace(t)

	_, err := execLogq(t, "--format", "xml", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestCommandsAddAndList(t *testing.T) {
	initWorkspace(t)

	out, err := execLogq(t, "commands", "add", "tests", "go test ./...",
		"--description", "unit tests")
	require.NoError(t, err)
	assert.Contains(t, out, `registered "tests"`)

	out, err = execLogq(t, "commands", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "tests")
	assert.Contains(t, out, "go test ./...")
	assert.Contains(t, out, "gotest_json") // detected, not stored
	assert.Contains(t, out, "unit tests")

	_, err = execLogq(t, "commands", "add", "tests", "make test")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "already registered")
}

func TestPruneDryRunKeepsData(t *testing.T) {
	initWorkspace(t)
	logPath := writeLog(t, "build.log", failingLog)
	_, err := execLogq(t, "import", "--source", "build", logPath)
	require.NoError(t, err)

	// Everything is recent, so nothing qualifies.
	out, err := execLogq(t, "prune", "--older-than", "30", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to prune")

	out, err = execLogq(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "build")
}
