package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Moonsong-Labs/crucible/internal/conflict"
	"github.com/Moonsong-Labs/crucible/internal/report"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	commitStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5E7EB"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	cleanStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	summaryStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#7C3AED")).Padding(0, 1)
)

// complexityColors maps complexity levels to display colors
var complexityColors = map[conflict.Complexity]lipgloss.Color{
	conflict.ComplexitySimple:   lipgloss.Color("#10B981"),
	conflict.ComplexityModerate: lipgloss.Color("#F59E0B"),
	conflict.ComplexityComplex:  lipgloss.Color("#EF4444"),
	conflict.ComplexityUnknown:  lipgloss.Color("#6B7280"),
}

// renderSummary renders the conflicting commits of r in a bordered box.
func renderSummary(r *report.Report) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Conflict summary"))
	b.WriteString("\n")

	if len(r.Entries) == 0 {
		b.WriteString(cleanStyle.Render("All commits apply cleanly"))
	}

	for i, entry := range r.Entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(commitStyle.Render(entry.Commit))
		if len(entry.Files) == 0 {
			b.WriteString("\n  " + mutedStyle.Render("no conflicted files reported"))
		}
		for _, f := range entry.Files {
			complexity := lipgloss.NewStyle().Foreground(complexityColors[f.Complexity])
			fmt.Fprintf(&b, "\n  %s %s %s",
				pathStyle.Render(f.Path),
				mutedStyle.Render(string(f.ConflictType)),
				complexity.Render(fmt.Sprintf("%s (%d markers)", f.Complexity, f.ConflictMarkers)))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render(r.Totals.String()))
	return summaryStyle.Render(b.String())
}
