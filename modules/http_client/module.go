package http_client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/specialistvlad/transformgrid/internal/ctxlog"
	"github.com/specialistvlad/transformgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the publish action.
type Input struct {
	// URL is the base URL; each file is sent to URL/<file name>.
	URL string `hcl:"url"`
	// Method defaults to PUT.
	Method string `hcl:"method,optional"`
	// Timeout bounds each request, e.g. "30s". Defaults to 30s.
	Timeout string            `hcl:"timeout,optional"`
	Headers map[string]string `hcl:"headers,optional"`
}

func newClient(input *Input) (*http.Client, error) {
	timeout := 30 * time.Second
	if input.Timeout != "" {
		var err error
		if timeout, err = time.ParseDuration(input.Timeout); err != nil {
			return nil, fmt.Errorf("invalid timeout: %w", err)
		}
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}, nil
}

// Run uploads every input file and passes the files through unchanged.
// Any response outside 2xx fails the step.
func Run(ctx context.Context, input *Input, req *registry.Request) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	client, err := newClient(input)
	if err != nil {
		return nil, err
	}
	defer client.CloseIdleConnections()

	method := input.Method
	if method == "" {
		method = http.MethodPut
	}
	base := strings.TrimSuffix(input.URL, "/")

	for _, f := range req.Files {
		target := base + "/" + filepath.Base(f)
		status, err := upload(ctx, client, method, target, f, input.Headers)
		if err != nil {
			return nil, fmt.Errorf("publishing %s: %w", filepath.Base(f), err)
		}
		logger.Debug("File published.", "url", target, "status", status)
	}
	return req.Files, nil
}

func upload(ctx context.Context, client *http.Client, method, url, path string, headers map[string]string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, f)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.ContentLength = info.Size()
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("%s %s: unexpected status %s", method, url, resp.Status)
	}
	return resp.StatusCode, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("publish", &registry.RegisteredAction{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		Fn:        Run,
	})
}
