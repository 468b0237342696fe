package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/liveparams/internal/units"
	"github.com/aretw0/liveparams/pkg/domain"
)

// Overlay marks parameters to highlight on the graph.
type Overlay struct {
	Changed  []string
	Selected string
}

// GenerateMermaid produces a Mermaid flowchart of the parameters of a snapshot
// and the references between their expressions. Arrows point from a parameter
// to the parameters that use it.
// - Favorite: ([Stadium])
// - Default: [Rectangle]
// - Referenced but not a user parameter (model parameter): {{Hexagon}}, dotted arrow
func GenerateMermaid(snap *domain.Snapshot, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	users := make(map[string]bool, len(snap.Parameters))
	for _, p := range snap.Parameters {
		users[p.Name] = true
	}

	external := make(map[string]bool)
	for _, p := range snap.Parameters {
		safeID := sanitizeMermaidID(p.Name)

		opener, closer := "[", "]"
		if p.IsFavorite {
			opener, closer = "([", "])"
		}
		label := fmt.Sprintf("%s <br/> %s", p.Name, strings.ReplaceAll(p.Expression, "\"", "'"))
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		refs, err := units.References(p.Expression)
		if err != nil {
			continue
		}
		for _, ref := range refs {
			arrow := "-->"
			if !users[ref] {
				arrow = "-.->"
				if !external[ref] {
					external[ref] = true
					fmt.Fprintf(&sb, "    %s{{\"%s\"}}\n", sanitizeMermaidID(ref), ref)
				}
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(ref), arrow, safeID)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef changed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.Changed {
			safeID := sanitizeMermaidID(name)
			if !seen[safeID] && users[name] {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s changed;\n", safeID)
			}
		}
		if overlay.Selected != "" && users[overlay.Selected] {
			fmt.Fprintf(&sb, "    class %s selected;\n", sanitizeMermaidID(overlay.Selected))
		}
	}

	return sb.String()
}

// sanitizeMermaidID prefixes names so parameters like "end" never clash with Mermaid keywords.
func sanitizeMermaidID(name string) string {
	s := strings.ReplaceAll(name, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return "p_" + s
}
