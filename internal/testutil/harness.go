package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/specialistvlad/transformgrid/internal/app"
	"github.com/specialistvlad/transformgrid/internal/hcl_adapter"
	"github.com/specialistvlad/transformgrid/internal/registry"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	// Dir is the root the test files were written to.
	Dir string
	// OutputDir is where the steps wrote their outputs.
	OutputDir string
}

// Options tweaks the app configuration used by the harness.
type Options struct {
	Lenient bool
	// Workers defaults to 4.
	Workers int
}

// RunIntegrationTest provides a standardized harness for running integration
// tests using a default background context and default options.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, Options{}, modules...)
}

// RunIntegrationTestWithContext writes files into a temporary directory,
// loads every .hcl file among them as the plan and runs the app. With no
// modules the app's core modules are used.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, opts Options, modules ...registry.Module) *HarnessResult {
	t.Helper()

	// File names are relative, e.g. "src/a.txt" or "plan.hcl".
	tmpDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	if opts.Workers == 0 {
		opts.Workers = 4
	}
	outDir := filepath.Join(tmpDir, "out")
	cfg, err := app.NewConfig(app.Config{
		PlanPath:    tmpDir,
		OutputDir:   outDir,
		LogLevel:    "debug",
		LogFormat:   "text",
		WorkerCount: opts.Workers,
		Lenient:     opts.Lenient,
	})
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}
	res := &HarnessResult{Dir: tmpDir, OutputDir: outDir}

	testApp, err := app.NewApp(logBuffer, cfg, hcl_adapter.NewLoader(), modules...)
	if err != nil {
		res.Err = fmt.Errorf("application startup failed | %w", err)
	} else {
		res.App = testApp
		res.Err = testApp.Run(ctx)
	}
	res.LogOutput = logBuffer.String()

	if os.Getenv("TRANSFORMGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), res.LogOutput)
	}
	return res
}
