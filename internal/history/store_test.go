package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RecordAndRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := Open(ctx, path)
	require.NoError(t, err)

	start := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	first, err := s.Record(ctx, Run{
		Started:  start,
		Finished: start.Add(time.Second),
		Chains: []ChainRecord{
			{Name: "release", Files: []string{"/out/a.gz", "/out/b.gz"}},
			{Name: "docs", Err: "transform 'doc' failed: boom"},
		},
	})
	require.NoError(t, err)
	second, err := s.Record(ctx, Run{Started: start.Add(time.Hour), Finished: start.Add(time.Hour), Err: "1 chain(s) failed: docs"})
	require.NoError(t, err)
	assert.Greater(t, second, first)
	require.NoError(t, s.Close())

	// Reopening keeps the history.
	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	runs, err := s.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, "1 chain(s) failed: docs", runs[0].Err)
	assert.Empty(t, runs[0].Chains)

	assert.Equal(t, first, runs[1].ID)
	assert.True(t, start.Equal(runs[1].Started))
	assert.Equal(t, []ChainRecord{
		{Name: "docs", Err: "transform 'doc' failed: boom"},
		{Name: "release", Files: []string{"/out/a.gz", "/out/b.gz"}},
	}, runs[1].Chains)
}

func TestStore_RunsLimit(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 3; i++ {
		_, err := s.Record(ctx, Run{Started: time.Now(), Finished: time.Now()})
		require.NoError(t, err)
	}
	runs, err := s.Runs(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
