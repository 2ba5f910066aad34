package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/funnel/internal/presentation/graph"
	"github.com/aretw0/funnel/internal/testutils"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name        string
		doc         *domain.Document
		contains    []string
		notContains []string
	}{
		{
			name: "Step Shapes",
			doc:  testutils.SampleDocument(),
			contains: []string{
				"welcome((\"welcome: Find your plan\"))",
				"q1[/\"q1: How much experience do you have?\"/]",
				"lead[[\"lead: Almost there\"]]",
			},
		},
		{
			name: "Sequential And Branch Edges",
			doc:  testutils.SampleDocument(),
			contains: []string{
				"welcome --> q1",
				"q1 -- \"Expert\" --> q3",
				"q1 --> q2",
				"q2 --> q3",
				"q3 --> lead",
			},
			notContains: []string{"lead -->"},
		},
		{
			name: "Every Option Branches",
			doc: &domain.Document{Steps: []domain.Step{
				&domain.Question{ID: "q", Prompt: "Pick", Input: domain.AnswerInput{Type: domain.InputButtons}, Options: []domain.Option{
					{ID: "a", Text: "A", NextStepID: "end"},
					{ID: "b", Text: "Say \"B\"", NextStepID: "end"},
				}},
				&domain.Message{ID: "skipped"},
				&domain.Message{ID: "end", Title: "Bye"},
			}},
			contains:    []string{"q -- \"A\" --> end", "q -- \"Say 'B'\" --> end", "skipped[\"skipped\"]"},
			notContains: []string{"q --> skipped"},
		},
		{
			name: "Missing Target",
			doc: &domain.Document{Steps: []domain.Step{
				&domain.Question{ID: "q", Options: []domain.Option{{ID: "a", Text: "A", NextStepID: "ghost-step"}}},
			}},
			contains: []string{"ghost_step[\"ghost-step (missing)\"]", "class ghost_step missing;"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.doc, nil)
			assert.True(t, strings.HasPrefix(got, "graph TD\n"))
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.notContains {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	nav := domain.NavigationState{
		CurrentStepID: "q3",
		History:       []string{"welcome", "q1", "q3"},
	}

	got := graph.GenerateMermaid(testutils.SampleDocument(), graph.OverlayFrom(nav))

	assert.Contains(t, got, "class welcome visited;")
	assert.Contains(t, got, "class q1 visited;")
	assert.Contains(t, got, "class q3 current;")
	assert.NotContains(t, got, "class q2 visited;")
}

func TestGenerateMermaid_LongLabel(t *testing.T) {
	doc := &domain.Document{Steps: []domain.Step{
		&domain.Message{ID: "m", Title: strings.Repeat("x", 60)},
	}}
	got := graph.GenerateMermaid(doc, nil)
	assert.Contains(t, got, "m[\"m: "+strings.Repeat("x", 39)+"…\"]")
}
