//go:build !windows

package execx

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestRunCapturesOutputAndExitCode(t *testing.T) {
	res, err := Run(context.Background(), "echo out; echo err 1>&2", Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode == nil || *res.ExitCode != 0 {
		t.Fatalf("exit code = %v, want 0", res.ExitCode)
	}
	if !strings.Contains(res.Output, "out") || !strings.Contains(res.Output, "err") {
		t.Fatalf("output missing streams: %q", res.Output)
	}
	if res.TimedOut {
		t.Fatal("unexpected timeout")
	}
}

func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	res, err := Run(context.Background(), "exit 3", Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode == nil || *res.ExitCode != 3 {
		t.Fatalf("exit code = %v, want 3", res.ExitCode)
	}
}

func TestRunTimeout(t *testing.T) {
	res, err := Run(context.Background(), "sleep 5", Options{Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.TimedOut {
		t.Fatal("expected timeout")
	}
	if res.ExitCode != nil {
		t.Fatalf("timed out run must have nil exit code, got %d", *res.ExitCode)
	}
}

func TestRunStreamTee(t *testing.T) {
	var live bytes.Buffer
	res, err := Run(context.Background(), "echo hello", Options{Stream: &live})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if live.String() != res.Output {
		t.Fatalf("stream %q != captured %q", live.String(), res.Output)
	}
}

func TestRunDirAndEnv(t *testing.T) {
	dir := t.TempDir()
	res, err := Run(context.Background(), "pwd; echo $LOGQ_TEST_VAR", Options{
		Dir: dir,
		Env: []string{"LOGQ_TEST_VAR=probe"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(res.Output, dir) {
		t.Fatalf("output %q missing dir %q", res.Output, dir)
	}
	if !strings.Contains(res.Output, "probe") {
		t.Fatalf("output %q missing env value", res.Output)
	}
}
