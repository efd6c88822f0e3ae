package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/capsid/pkg/domain"
	"github.com/aretw0/capsid/pkg/schema"
)

// BuildReport renders a finished task as a markdown summary. Hosts pass the
// result through NewRenderer for terminal display.
func BuildReport(rec domain.HistoryRecord) string {
	var sb strings.Builder

	sb.WriteString("# Run Summary\n\n")
	if rec.Message != "" {
		fmt.Fprintf(&sb, "**%s**\n\n", rec.Message)
	}

	sb.WriteString("| | |\n|---|---|\n")
	if rec.ID != "" {
		fmt.Fprintf(&sb, "| Task | `%s` |\n", rec.ID)
	}
	fmt.Fprintf(&sb, "| Kind | %s |\n", rec.Kind)
	fmt.Fprintf(&sb, "| Status | %s |\n", rec.Status)
	if !rec.StartedAt.IsZero() && !rec.FinishedAt.IsZero() {
		fmt.Fprintf(&sb, "| Duration | %s |\n", rec.FinishedAt.Sub(rec.StartedAt).Round(time.Second))
	}
	if rec.LogBytes > 0 {
		fmt.Fprintf(&sb, "| Log size | %d bytes |\n", rec.LogBytes)
	}
	if rec.ArtifactPath != "" {
		fmt.Fprintf(&sb, "| Results | `%s` |\n", rec.ArtifactPath)
	}

	return sb.String()
}

// BuildStagesDoc renders the stage chain, the parameter reference and the
// available maintenance actions as one markdown document.
func BuildStagesDoc(stages []domain.Stage, params []schema.Parameter, actions []string) string {
	var sb strings.Builder

	sb.WriteString("# Capsid Pipeline\n\n")
	for i, st := range stages {
		marker := "non-fatal"
		if st.Fatal {
			marker = "fatal"
		}
		fmt.Fprintf(&sb, "%d. **%s** (%s)\n", i+1, st.Name, marker)
	}

	sb.WriteString("\n## Parameters\n")
	category := ""
	for _, p := range params {
		// Buttons carry no value; they surface under actions instead.
		if p.Type == "button" {
			continue
		}
		if p.Category != category {
			category = p.Category
			fmt.Fprintf(&sb, "\n### %s\n\n", category)
		}
		fmt.Fprintf(&sb, "- `%s` (%s): %s", p.Name, p.Type, p.Description)
		if p.Default != nil {
			fmt.Fprintf(&sb, " (default: `%v`)", p.Default)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n## Maintenance Actions\n\n")
	for _, a := range actions {
		fmt.Fprintf(&sb, "- `%s`\n", a)
	}

	return sb.String()
}
