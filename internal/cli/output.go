package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/valter-silva-au/cc-workspace/internal/core"
	"github.com/valter-silva-au/cc-workspace/pkg/models"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	badgeStyle   = lipgloss.NewStyle().Bold(true)
)

// Glyphs used in listings.
const (
	glyphOK   = "✓"
	glyphFail = "✗"
	glyphWarn = "!"
	glyphSkip = "·"
)

func okGlyph(ok bool) string {
	if ok {
		return okStyle.Render(glyphOK)
	}
	return failStyle.Render(glyphFail)
}

// statusBadge renders a session status.
func statusBadge(s models.SessionStatus) string {
	style := badgeStyle
	switch s {
	case models.SessionActive:
		style = style.Foreground(lipgloss.Color("42"))
	case models.SessionClosing:
		style = style.Foreground(lipgloss.Color("214"))
	case models.SessionClosed:
		style = style.Foreground(lipgloss.Color("245"))
	}
	return style.Render("[" + string(s) + "]")
}

// typeBadge renders a detected project type.
func typeBadge(projectType string) string {
	color := lipgloss.Color("39")
	if projectType == core.ProjectUnknown {
		color = lipgloss.Color("245")
	}
	return badgeStyle.Foreground(color).Render(projectType)
}

func printHeading(w io.Writer, text string) {
	fmt.Fprintln(w, headingStyle.Render(text))
}

func printWarning(w io.Writer, text string) {
	fmt.Fprintf(w, "%s %s\n", warnStyle.Render(glyphWarn), text)
}
