package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/liveparams/internal/presentation/graph"
	"github.com/aretw0/liveparams/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func snapshot() *domain.Snapshot {
	return &domain.Snapshot{
		DocName: "Enclosure",
		Parameters: []domain.Parameter{
			{Name: "Width", Expression: "40 mm", Unit: "mm"},
			{Name: "Wall", Expression: "2 mm", Unit: "mm", IsFavorite: true},
			{Name: "Inner", Expression: "Width - 2 * Wall", Unit: "mm"},
			{Name: "end", Expression: "d7 + 1 mm", Unit: "mm"},
		},
	}
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		overlay  *graph.Overlay
		contains []string
		excludes []string
	}{
		{
			name: "Shapes",
			contains: []string{
				"graph LR\n",
				`p_Width["Width <br/> 40 mm"]`,
				`p_Wall(["Wall <br/> 2 mm"])`,
			},
		},
		{
			name: "Dependencies",
			contains: []string{
				"p_Width --> p_Inner",
				"p_Wall --> p_Inner",
			},
		},
		{
			name: "Model Parameter References",
			contains: []string{
				`p_d7{{"d7"}}`,
				"p_d7 -.-> p_end",
			},
		},
		{
			name:     "Overlay",
			overlay:  &graph.Overlay{Changed: []string{"Wall", "Wall", "Ghost"}, Selected: "Inner"},
			contains: []string{"class p_Wall changed;", "class p_Inner selected;"},
			excludes: []string{"p_Ghost"},
		},
		{
			name:     "No Overlay",
			excludes: []string{"classDef"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(snapshot(), tt.overlay)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestGenerateMermaid_ChangedOnce(t *testing.T) {
	got := graph.GenerateMermaid(snapshot(), &graph.Overlay{Changed: []string{"Wall", "Wall"}})
	assert.Equal(t, 1, strings.Count(got, "class p_Wall changed;"))
}

func TestGenerateMermaid_BadExpressionHasNoEdges(t *testing.T) {
	snap := &domain.Snapshot{Parameters: []domain.Parameter{{Name: "Broken", Expression: "((", Unit: "mm"}}}
	got := graph.GenerateMermaid(snap, nil)
	assert.Contains(t, got, `p_Broken["Broken <br/> (("]`)
	assert.NotContains(t, got, "-->")
}
