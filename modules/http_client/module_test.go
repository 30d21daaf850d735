package http_client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/specialistvlad/transformgrid/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	var mu sync.Mutex
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		received[r.Method+" "+r.URL.Path+" "+r.Header.Get("X-Token")] = string(body)
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(f, []byte("hello"), 0o644))

	files, err := Run(context.Background(), &Input{
		URL:     srv.URL + "/upload/",
		Headers: map[string]string{"X-Token": "secret"},
	}, &registry.Request{Files: []string{f}, OutputDir: dir})
	require.NoError(t, err)
	assert.Equal(t, []string{f}, files)
	assert.Equal(t, map[string]string{"PUT /upload/a.txt secret": "hello"}, received)
}

func TestRun_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(f, []byte("hello"), 0o644))

	testCases := []struct {
		name   string
		input  *Input
		errMsg string
	}{
		{"bad status", &Input{URL: srv.URL, Method: http.MethodPost}, "unexpected status 403 Forbidden"},
		{"bad timeout", &Input{URL: srv.URL, Timeout: "soon"}, "invalid timeout"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Run(context.Background(), tc.input, &registry.Request{Files: []string{f}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}
