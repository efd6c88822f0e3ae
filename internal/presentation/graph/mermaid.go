// Package graph renders the pipeline stage chain as Mermaid flowchart
// syntax for documentation and host UIs.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/capsid/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of the stage chain.
// It applies semantic styling:
// - Validate/Package endpoints: ((Circle))
// - Tool stages: [[Subroutine]]
// - Parameter-gated stages connect with dashed arrows (the run may skip them)
// - Non-fatal stages get the "tolerant" class: their failure degrades to a warning
func GenerateMermaid(stages []domain.Stage) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	sb.WriteString("    validate((\"Validate Inputs\"))\n")
	prev := "validate"

	var tolerant []string
	for _, st := range stages {
		safeID := sanitizeMermaidID(st.Name)
		sb.WriteString(fmt.Sprintf("    %s[[\"%s\"]]\n", safeID, st.Name))

		arrow := "-->"
		if st.Applies != nil {
			arrow = "-.->"
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", prev, arrow, safeID))

		if !st.Fatal {
			tolerant = append(tolerant, safeID)
		}
		prev = safeID
	}

	sb.WriteString("    package((\"Package Results\"))\n")
	sb.WriteString(fmt.Sprintf("    %s --> package\n", prev))

	if len(tolerant) > 0 {
		sb.WriteString("\n    %% Fatality Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef tolerant fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		for _, id := range tolerant {
			sb.WriteString(fmt.Sprintf("    class %s tolerant;\n", id))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(name string) string {
	s := name
	for _, ch := range []string{" ", ".", "-", "/", "\\", "(", ")"} {
		s = strings.ReplaceAll(s, ch, "_")
	}
	return s
}
