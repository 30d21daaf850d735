package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validModel() *Model {
	m := NewModel()
	m.Tasks["gen"] = &Task{Name: "gen", Command: []string{"true"}}
	m.Artifacts["src"] = &ArtifactSet{Name: "src", Files: []string{"/a"}, DependsOn: []string{"gen"}}
	m.Transforms["zip"] = &Transform{Action: "gzip", Name: "zip"}
	m.Transforms["sums"] = &Transform{Action: "checksum", Name: "sums", Needs: []string{"release"}}
	m.Chains = []*Chain{
		{Name: "release", Artifacts: "src", Steps: []string{"zip"}},
		{Name: "audit", Artifacts: "src", Steps: []string{"sums"}},
	}
	return m
}

func TestValidate(t *testing.T) {
	t.Run("valid model", func(t *testing.T) {
		assert.NoError(t, validModel().Validate())
	})

	tests := []struct {
		name   string
		mutate func(m *Model)
		want   string
	}{
		{"unknown task", func(m *Model) { m.Artifacts["src"].DependsOn = []string{"nope"} }, "artifacts 'src' depends on unknown task 'nope'"},
		{"empty command", func(m *Model) { m.Tasks["gen"].Command = nil }, "task 'gen' has an empty command"},
		{"unknown needs", func(m *Model) { m.Transforms["zip"].Needs = []string{"ghost"} }, "transform 'zip' needs unknown chain 'ghost'"},
		{"unknown artifacts", func(m *Model) { m.Chains[0].Artifacts = "ghost" }, "chain 'release' uses unknown artifacts 'ghost'"},
		{"unknown transform", func(m *Model) { m.Chains[0].Steps = []string{"ghost"} }, "chain 'release' uses unknown transform 'ghost'"},
		{"no steps", func(m *Model) { m.Chains[0].Steps = nil }, "chain 'release' has no steps"},
		{"duplicate chain", func(m *Model) { m.Chains = append(m.Chains, &Chain{Name: "audit", Artifacts: "src", Steps: []string{"zip"}}) }, "chain 'audit' is declared more than once"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validModel()
			tt.mutate(m)
			assert.ErrorContains(t, m.Validate(), tt.want)
		})
	}
}

func TestChainLookup(t *testing.T) {
	m := validModel()
	c, ok := m.Chain("audit")
	assert.True(t, ok)
	assert.Equal(t, "src", c.Artifacts)
	_, ok = m.Chain("ghost")
	assert.False(t, ok)
}
