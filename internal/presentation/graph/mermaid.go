package graph

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aretw0/funnel/pkg/domain"
)

// GraphOverlay contains run state to visualize on the graph.
type GraphOverlay struct {
	VisitedSteps []string
	CurrentStep  string
}

// OverlayFrom builds an overlay from a navigation state.
func OverlayFrom(nav domain.NavigationState) *GraphOverlay {
	return &GraphOverlay{
		VisitedSteps: nav.History,
		CurrentStep:  nav.CurrentStepID,
	}
}

// GenerateMermaid produces a Mermaid flowchart of a funnel document.
// It applies semantic styling:
// - Welcome: ((Circle))
// - Question: [/Parallelogram/]
// - LeadCapture: [[Subroutine]]
// - Message and unknown steps: [Rectangle]
//
// Sequential advance is a solid edge. Option branches are labelled with the option text,
// and a branch to a missing step points at a dashed placeholder.
func GenerateMermaid(doc *domain.Document, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	missing := make(map[string]bool)
	for i, step := range doc.Steps {
		safeID := sanitizeMermaidID(step.StepID())

		opener, closer := "[", "]"
		switch step.(type) {
		case *domain.Welcome:
			opener, closer = "((", "))"
		case *domain.Question:
			opener, closer = "[/", "/]"
		case *domain.LeadCapture:
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(label(step)), closer)

		var next string
		if i+1 < len(doc.Steps) {
			next = doc.Steps[i+1].StepID()
		}

		q, isQuestion := step.(*domain.Question)
		if !isQuestion {
			if next != "" {
				fmt.Fprintf(&sb, "    %s --> %s\n", safeID, sanitizeMermaidID(next))
			}
			continue
		}

		sequential := len(q.Options) == 0
		for _, opt := range q.Options {
			target := opt.NextStepID
			if target == "" {
				sequential = true
				continue
			}
			if doc.IndexOf(target) < 0 {
				missing[target] = true
			}
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, escapeLabel(opt.Text), sanitizeMermaidID(target))
		}
		if sequential && next != "" {
			fmt.Fprintf(&sb, "    %s --> %s\n", safeID, sanitizeMermaidID(next))
		}
	}

	if len(missing) > 0 {
		sb.WriteString("\n    %% Missing branch targets\n")
		sb.WriteString("    classDef missing fill:#ffebee,stroke:#c62828,stroke-dasharray:5 5,color:#000;\n")
		for _, id := range slices.Sorted(maps.Keys(missing)) {
			safeID := sanitizeMermaidID(id)
			fmt.Fprintf(&sb, "    %s[\"%s (missing)\"]\n", safeID, escapeLabel(id))
			fmt.Fprintf(&sb, "    class %s missing;\n", safeID)
		}
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedSteps {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentStep != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentStep))
		}
	}

	return sb.String()
}

func label(step domain.Step) string {
	headline := domain.Headline(step)
	if headline == "" {
		return step.StepID()
	}
	const max = 40
	if r := []rune(headline); len(r) > max {
		headline = string(r[:max-1]) + "…"
	}
	return step.StepID() + ": " + headline
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
