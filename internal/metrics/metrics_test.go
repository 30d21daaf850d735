package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/specialistvlad/transformgrid/internal/buildop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passthrough struct{ calls int }

func (p *passthrough) Run(ctx context.Context, _ buildop.Descriptor, op buildop.Func) error {
	p.calls++
	return op(ctx, noResult{})
}

type noResult struct{}

func (noResult) SetResult(any) {}

func TestWrap(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	inner := &passthrough{}
	ex := m.Wrap(inner)

	boom := errors.New("boom")
	desc := buildop.Descriptor{DisplayName: "Transform a with b", Category: buildop.CategoryTransform}

	require.NoError(t, ex.Run(context.Background(), desc, func(context.Context, buildop.Context) error { return nil }))
	err := ex.Run(context.Background(), desc, func(context.Context, buildop.Context) error { return boom })
	assert.Same(t, boom, err)
	require.NoError(t, ex.Run(context.Background(), buildop.Descriptor{DisplayName: "other"}, func(context.Context, buildop.Context) error { return nil }))

	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("TRANSFORM", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("TRANSFORM", OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("UNCATEGORIZED", OutcomeSuccess)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Duration))
}

func TestRecordNode(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordNode("task.Node", "done")
	m.RecordNode("task.Node", "done")
	m.RecordNode("transform.InitialNode", "done")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Nodes.WithLabelValues("task.Node", "done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Nodes.WithLabelValues("transform.InitialNode", "done")))
}

func TestHandler(t *testing.T) {
	reg := NewRegistry()
	m := New(reg)
	m.RecordNode("task.Node", "failed")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `transformgrid_nodes_total{kind="task.Node",state="failed"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
