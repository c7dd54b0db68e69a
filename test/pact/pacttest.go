//go:build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "task-api"
	ConsumerName = "taskdesk"

	StateUserExists   = "user pat@example.com exists with password secret"
	StateProjectsBase = "projects baseline"
	StateTaskExists   = "task t-1 exists"
	StateTaskMissing  = "no task with id missing"
)

const (
	Email    = "pat@example.com"
	Password = "secret"
	Token    = "pact-token"

	ExistingTaskID = "t-1"
	MissingTaskID  = "missing"
)

// PactDir returns the directory generated pact files are written to.
func PactDir(t testing.TB) string {
	t.Helper()
	return mkdir(t, filepath.Join(projectRoot(t), "pacts"))
}

// LogDir returns the pact-go log directory.
func LogDir(t testing.TB) string {
	t.Helper()
	return mkdir(t, filepath.Join(projectRoot(t), "bin", "pact-logs"))
}

func mkdir(t testing.TB, dir string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create %s: %v", dir, err)
	}
	return dir
}

func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
