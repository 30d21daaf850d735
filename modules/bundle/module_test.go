package bundle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/transformgrid/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	n := filepath.Join(dir, "n.txt")
	require.NoError(t, os.WriteFile(a, []byte("A\n"), 0o644))
	require.NoError(t, os.WriteFile(n, []byte("N\n"), 0o644))
	req := &registry.Request{Files: []string{a}, Needs: []string{n}, OutputDir: t.TempDir()}

	files, err := Run(context.Background(), &Input{Name: "all.txt"}, req)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(req.OutputDir, "all.txt")}, files)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, "==> a.txt <==\nA\n==> n.txt <==\nN\n", string(data))
}

func TestRegister(t *testing.T) {
	r := registry.New()
	(&Module{}).Register(r)
	assert.NoError(t, r.ValidateRegistry(context.Background()))
}
