// Package testutil provides shared test helpers used across integration,
// e2e, and unit test packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// RepoRoot returns the absolute path to the repository root by walking
// up from the current working directory. It fails the test if the
// working directory cannot be determined.
func RepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(dir, "..", ".."))
}

// Fixture returns the path of a file under tests/integration/testdata.
func Fixture(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(RepoRoot(t), "tests", "integration", "testdata", name)
}

// CopyFixture copies a testdata file into dir and returns the new path.
func CopyFixture(t *testing.T, name string, dir string) string {
	t.Helper()
	data, err := os.ReadFile(Fixture(t, name))
	require.NoError(t, err)
	target := filepath.Join(dir, filepath.Base(name))
	require.NoError(t, os.WriteFile(target, data, 0o644))
	return target
}
