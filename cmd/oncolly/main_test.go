package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

// fakeProgram stands in for the TUI loop so CLI tests stay headless.
type fakeProgram struct {
	runErr error
}

func (f fakeProgram) Run() (tea.Model, error) {
	return nil, f.runErr
}

// isolateUserDirs points path resolution at per-test directories.
func isolateUserDirs(t *testing.T) (configHome, dataHome string) {
	t.Helper()
	configHome = t.TempDir()
	dataHome = t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("XDG_DATA_HOME", dataHome)
	t.Setenv("ONCOLLY_CONFIG", "")
	return configHome, dataHome
}

// TestPathsCommand prints the resolved per-user locations.
func TestPathsCommand(t *testing.T) {
	if os.Getenv("HOME") == "" {
		t.Skip("requires a home directory")
	}
	configHome, dataHome := isolateUserDirs(t)

	var out strings.Builder
	err := execute(context.Background(), []string{"paths"}, &out, io.Discard)
	if err != nil {
		t.Fatalf("execute(paths) error = %v", err)
	}
	for _, want := range []string{"config:", "data_dir:", "session:", "base_url:", configHome, dataHome} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("paths output missing %q:\n%s", want, out.String())
		}
	}
}

// TestLogoutClearsSession removes a persisted session file.
func TestLogoutClearsSession(t *testing.T) {
	if os.Getenv("HOME") == "" {
		t.Skip("requires a home directory")
	}
	_, dataHome := isolateUserDirs(t)

	sessionPath := filepath.Join(dataHome, "oncolly-dev", "session.toml")
	if err := os.MkdirAll(filepath.Dir(sessionPath), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	content := "token = \"tok\"\nuser_id = \"u-1\"\nrole = \"patient\"\n"
	if err := os.WriteFile(sessionPath, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	var out strings.Builder
	if err := execute(context.Background(), []string{"logout"}, &out, io.Discard); err != nil {
		t.Fatalf("execute(logout) error = %v", err)
	}
	if !strings.Contains(out.String(), "signed out") {
		t.Fatalf("unexpected logout output %q", out.String())
	}
	if _, err := os.Stat(sessionPath); !os.IsNotExist(err) {
		t.Fatalf("session file still present, stat err = %v", err)
	}
}

// TestRootStartsProgram runs the bare command against a stubbed TUI loop.
func TestRootStartsProgram(t *testing.T) {
	if os.Getenv("HOME") == "" {
		t.Skip("requires a home directory")
	}
	isolateUserDirs(t)

	origFactory := programFactory
	t.Cleanup(func() { programFactory = origFactory })
	started := false
	programFactory = func(_ tea.Model) program {
		started = true
		return fakeProgram{}
	}

	if err := execute(context.Background(), nil, io.Discard, io.Discard); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if !started {
		t.Fatal("expected the program loop to start")
	}
}

// TestBaseURLOverrideValidated rejects a non-absolute override.
func TestBaseURLOverrideValidated(t *testing.T) {
	if os.Getenv("HOME") == "" {
		t.Skip("requires a home directory")
	}
	isolateUserDirs(t)

	err := execute(context.Background(), []string{"paths", "--base-url", "not-a-url"}, io.Discard, io.Discard)
	if err == nil {
		t.Fatal("expected base url validation error")
	}
}
