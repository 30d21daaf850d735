package plan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/transformgrid/internal/config"
	"github.com/specialistvlad/transformgrid/internal/executor"
	"github.com/specialistvlad/transformgrid/internal/lazy"
	"github.com/specialistvlad/transformgrid/internal/node"
	"github.com/specialistvlad/transformgrid/internal/registry"
	"github.com/specialistvlad/transformgrid/internal/step"
	"github.com/specialistvlad/transformgrid/internal/transform"
	"github.com/specialistvlad/transformgrid/modules/bundle"
	"github.com/specialistvlad/transformgrid/modules/stamp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func body(t *testing.T, src string) hcl.Body {
	t.Helper()
	f, diags := hclparse.NewParser().ParseHCL([]byte(src), "args.hcl")
	require.False(t, diags.HasErrors(), diags.Error())
	return f.Body
}

func testRegistry() *registry.Registry {
	r := registry.New()
	(&stamp.Module{}).Register(r)
	(&bundle.Module{}).Register(r)
	return r
}

// fixture is a plan with a producing task, two chains over the same
// artifacts and a third chain that needs the first one.
type fixture struct {
	dir   string
	model *config.Model
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("A\n"), 0o644))

	m := config.NewModel()
	m.Tasks["gen"] = &config.Task{Name: "gen", Command: []string{"true"}, Dir: dir}
	m.Tasks["tool"] = &config.Task{Name: "tool", Command: []string{"true"}, Dir: dir}
	m.Artifacts["src"] = &config.ArtifactSet{Name: "src", Files: []string{src}, DependsOn: []string{"gen"}}
	m.Transforms["first"] = &config.Transform{Action: "stamp", Name: "first", DependsOn: []string{"tool"}, Arguments: body(t, `header = "1"`)}
	m.Transforms["second"] = &config.Transform{Action: "stamp", Name: "second", Arguments: body(t, `header = "2"`)}
	m.Transforms["pack"] = &config.Transform{Action: "bundle", Name: "pack", Needs: []string{"release"}, Arguments: body(t, `name = "all.txt"`)}
	m.Chains = []*config.Chain{
		{Name: "release", Artifacts: "src", Steps: []string{"first", "second"}},
		{Name: "docs", Artifacts: "src", Steps: []string{"second"}},
		{Name: "bundle", Artifacts: "src", Steps: []string{"pack"}},
	}
	return &fixture{dir: dir, model: m}
}

func (f *fixture) build(t *testing.T) (*Plan, error) {
	t.Helper()
	return Build(context.Background(), f.model, Options{
		Registry:  testRegistry(),
		OutputDir: filepath.Join(f.dir, "out"),
	})
}

func ids(nodes []node.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID()
	}
	return out
}

func TestBuild_Graph(t *testing.T) {
	f := newFixture(t)
	p, err := f.build(t)
	require.NoError(t, err)

	gen, tool := p.Tasks["gen"], p.Tasks["tool"]
	release, ok := p.Chain("release")
	require.True(t, ok)
	bundleChain, _ := p.Chain("bundle")

	assert.Equal(t, 2+2+1+1, p.Graph.Len())
	assert.Equal(t, uint64(1), gen.Sequence())
	assert.Equal(t, uint64(2), tool.Sequence())

	first, second := release.Nodes[0], release.Nodes[1]
	assert.IsType(t, &transform.InitialNode{}, first)
	assert.IsType(t, &transform.ChainedNode{}, second)
	assert.Same(t, first, second.(*transform.ChainedNode).Previous())

	deps, err := p.Graph.Dependencies(first.ID())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{gen.ID(), tool.ID()}, ids(deps))

	deps, err = p.Graph.Dependencies(second.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID()}, ids(deps))

	deps, err = p.Graph.Dependencies(bundleChain.Final().ID())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{gen.ID(), second.ID()}, ids(deps))

	st, ok := second.Step().(*step.Step)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(f.dir, "out", "release", "1-second"), st.OutputDir())
}

func TestBuild_Errors(t *testing.T) {
	t.Run("unknown action", func(t *testing.T) {
		f := newFixture(t)
		f.model.Transforms["second"].Action = "teleport"
		_, err := f.build(t)
		assert.ErrorIs(t, err, ErrUnknownAction)
		assert.ErrorContains(t, err, "registered: bundle, stamp")
	})

	t.Run("unknown task", func(t *testing.T) {
		f := newFixture(t)
		f.model.Transforms["first"].DependsOn = []string{"ghost"}
		_, err := f.build(t)
		assert.ErrorIs(t, err, ErrUnknownTask)
	})

	t.Run("unknown chain", func(t *testing.T) {
		f := newFixture(t)
		f.model.Transforms["pack"].Needs = []string{"ghost"}
		_, err := f.build(t)
		assert.ErrorIs(t, err, ErrUnknownChain)
	})

	t.Run("chain needing itself", func(t *testing.T) {
		f := newFixture(t)
		f.model.Transforms["pack"].Needs = []string{"bundle"}
		_, err := f.build(t)
		assert.ErrorContains(t, err, "pack depends on itself")
	})

	t.Run("chains needing each other", func(t *testing.T) {
		f := newFixture(t)
		f.model.Transforms["second"].Needs = []string{"bundle"}
		_, err := f.build(t)
		assert.ErrorContains(t, err, "cycle detected")
	})
}

func TestPlan_Execute(t *testing.T) {
	f := newFixture(t)
	p, err := f.build(t)
	require.NoError(t, err)

	require.NoError(t, executor.New(p.Graph, 4).Execute(context.Background()))

	release, _ := p.Chain("release")
	subject, err := release.Result().Get()
	require.NoError(t, err)
	require.Len(t, subject.Files(), 1)
	data, err := os.ReadFile(subject.Files()[0])
	require.NoError(t, err)
	assert.Equal(t, "2\n1\nA\n", string(data))

	bundleChain, _ := p.Chain("bundle")
	subject, err = bundleChain.Result().Get()
	require.NoError(t, err)
	data, err = os.ReadFile(subject.Files()[0])
	require.NoError(t, err)
	assert.Equal(t, "==> a.txt <==\nA\n==> a.txt <==\n2\n1\nA\n", string(data))
}

func TestPlan_ExecuteWithFailures(t *testing.T) {
	t.Run("missing artifact fails every chain over it", func(t *testing.T) {
		f := newFixture(t)
		f.model.Artifacts["src"].Files = append(f.model.Artifacts["src"].Files, filepath.Join(f.dir, "missing.txt"))
		p, err := f.build(t)
		require.NoError(t, err)

		require.NoError(t, executor.New(p.Graph, 2).Execute(context.Background()), "transform failures are not node failures")

		release, _ := p.Chain("release")
		var resolveErr *transform.ResolveError
		require.ErrorAs(t, release.Result().Err(), &resolveErr)
		assert.Same(t, release.Nodes[0].TransformedSubject().Err(), release.Result().Err())

		bundleChain, _ := p.Chain("bundle")
		assert.Error(t, bundleChain.Result().Err())
	})

	t.Run("needed chain failure reaches the needing step", func(t *testing.T) {
		f := newFixture(t)
		f.model.Transforms["second"].Arguments = body(t, `nope = 1`)
		p, err := f.build(t)
		require.NoError(t, err)

		require.NoError(t, executor.New(p.Graph, 2).Execute(context.Background()))

		release, _ := p.Chain("release")
		assert.ErrorContains(t, release.Result().Err(), "invalid arguments for transform 'second'")
		bundleChain, _ := p.Chain("bundle")
		assert.ErrorContains(t, bundleChain.Result().Err(), "chain 'release'")
	})

	t.Run("task failure skips dependents", func(t *testing.T) {
		f := newFixture(t)
		f.model.Tasks["gen"].Command = []string{"false"}
		p, err := f.build(t)
		require.NoError(t, err)

		ex := executor.New(p.Graph, 2)
		err = ex.Execute(context.Background())
		assert.ErrorContains(t, err, "task 'gen' failed")

		for _, o := range ex.Outcomes() {
			if o.Node.ID() == p.Tasks["tool"].ID() {
				assert.Equal(t, executor.Done, o.State)
			} else if o.Node.ID() != p.Tasks["gen"].ID() {
				assert.Equal(t, executor.Skipped, o.State, o.Node.String())
			}
		}
		release, _ := p.Chain("release")
		assert.ErrorIs(t, release.Result().Err(), lazy.ErrNotCalculated)
	})
}
