package production_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/comalice/chartkit/internal/core"
	"github.com/comalice/chartkit/internal/extensibility"
	"github.com/comalice/chartkit/internal/production"
)

func load(t testing.TB, name string) *core.Definition {
	t.Helper()
	def, err := production.LoadDefinition(filepath.Join("testdata", name), extensibility.NewRegistry())
	require.NoError(t, err)
	return def
}

// copyFixture copies a testdata document into dir and returns its path.
func copyFixture(t testing.TB, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
