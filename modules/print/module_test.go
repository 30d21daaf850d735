package print

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/transformgrid/internal/ctxlog"
	"github.com/specialistvlad/transformgrid/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(f, []byte("hello"), 0o644))

	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	files, err := Run(ctx, &Input{}, &registry.Request{Subject: "sources", Files: []string{f}, OutputDir: dir})
	require.NoError(t, err)
	assert.Equal(t, []string{f}, files)
	assert.Contains(t, buf.String(), `msg="📄 sources" file=a.txt bytes=5`)
}

func TestRun_MissingFile(t *testing.T) {
	_, err := Run(context.Background(), &Input{Label: "x"}, &registry.Request{Files: []string{"/does/not/exist"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inspecting exist")
}
