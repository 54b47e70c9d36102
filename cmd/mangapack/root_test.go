package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/BadgerOps/mangapack/internal/failure"
	"github.com/BadgerOps/mangapack/internal/host"
)

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func allowThisPlatform(t *testing.T) {
	t.Helper()
	t.Setenv(host.SupportedEnv, runtime.GOOS)
}

func TestHelpSkipsPlatformGate(t *testing.T) {
	t.Setenv(host.SupportedEnv, "plan9")

	for _, args := range [][]string{{"--help"}, {"process", "--help"}, {"-h"}} {
		out, err := execute(t, args...)
		if err != nil {
			t.Fatalf("%v returned error: %v", args, err)
		}
		if !strings.Contains(out, "Usage:") {
			t.Errorf("%v output missing usage:\n%s", args, out)
		}
	}
}

func TestUnsupportedPlatformFailsBeforeFilesystem(t *testing.T) {
	t.Setenv(host.SupportedEnv, "plan9")

	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "never-created")

	_, err := execute(t, "process", src, out)
	if !failure.IsKind(err, failure.KindInput) {
		t.Fatalf("error = %v, want input error", err)
	}
	if !strings.Contains(err.Error(), "unsupported operating system") {
		t.Errorf("error = %v, want platform message", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("output directory was created despite the platform gate")
	}
}

func TestShouldSkipConfig(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"help", true},
		{"version", true},
		{"completion", true},
		{"process", false},
		{"show", false},
	}
	for _, tt := range tests {
		if got := shouldSkipConfig(tt.name); got != tt.want {
			t.Errorf("shouldSkipConfig(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestConfigLogDefaultsApply(t *testing.T) {
	allowThisPlatform(t)

	path := filepath.Join(t.TempDir(), "mangapack.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: debug\n  format: json\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "config", "show", "--config", path); err != nil {
		t.Fatalf("config show: %v", err)
	}
	if logLevel != "debug" || logFormat != "json" {
		t.Errorf("log settings = %s/%s, want debug/json from config", logLevel, logFormat)
	}

	if _, err := execute(t, "config", "show", "--config", path, "--log-level", "error"); err != nil {
		t.Fatalf("config show: %v", err)
	}
	if logLevel != "error" {
		t.Errorf("log level = %s, want flag value error", logLevel)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	allowThisPlatform(t)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("log:\n  format: xml\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := execute(t, "config", "show", "--config", path)
	if !failure.IsKind(err, failure.KindConfig) {
		t.Fatalf("error = %v, want config error", err)
	}
	if exitCode(err) != 2 {
		t.Errorf("exitCode = %d, want 2", exitCode(err))
	}
}
