package process_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/crosscribe/process"
)

func TestRunEcho(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "echo",
		Args:   []string{"hello", "world"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", result.ExitCode)
	}
	out := strings.TrimSpace(string(result.Stdout))
	if out != "hello world" {
		t.Fatalf("expected 'hello world', got %q", out)
	}
}

func TestRunExitCode(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "exit 42"},
	})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if result.ExitCode != 42 {
		t.Fatalf("expected exit code 42, got %d", result.ExitCode)
	}
}

func TestRunStderrTailInError(t *testing.T) {
	_, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo banner >&2; echo 'No such file or directory' >&2; exit 1"},
	})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "No such file or directory") {
		t.Fatalf("expected stderr tail in error, got %v", err)
	}
}

func TestStderrTail(t *testing.T) {
	r := &process.Result{Stderr: []byte("one\ntwo\nthree\nfour\n")}
	if got := r.StderrTail(2); got != "three\nfour" {
		t.Fatalf("expected last two lines, got %q", got)
	}
	if got := r.StderrTail(10); got != "one\ntwo\nthree\nfour" {
		t.Fatalf("expected all lines, got %q", got)
	}
	empty := &process.Result{}
	if got := empty.StderrTail(2); got != "" {
		t.Fatalf("expected empty tail, got %q", got)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := process.Run(ctx, process.Command{
		Binary:      "sleep",
		Args:        []string{"10"},
		GracePeriod: 100 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected error when context expires")
	}
	if !strings.Contains(err.Error(), "killed by context") {
		t.Fatalf("expected context kill error, got %v", err)
	}
}

func TestRunMissingBinary(t *testing.T) {
	if _, err := process.Run(context.Background(), process.Command{}); err == nil {
		t.Fatal("expected error for empty binary")
	}
}
