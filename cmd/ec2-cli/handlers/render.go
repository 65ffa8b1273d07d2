package handlers

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Colors matching the progress palette.
var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorYellow = lipgloss.Color("#eab308")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorDim    = lipgloss.Color("#6b7280")
	colorWhite  = lipgloss.Color("#f9fafb")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGreen)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed)
)

// stateStyle colors an instance or agent state.
func stateStyle(s string) lipgloss.Style {
	switch s {
	case "running", "Online":
		return lipgloss.NewStyle().Foreground(colorGreen)
	case "pending", "stopping", "shutting-down", "ConnectionLost":
		return warningStyle
	case "terminated", "stopped", "Inactive", "not found":
		return errorStyle
	default:
		return dimStyle
	}
}

// renderTable lays rows out in left-aligned columns under a bold header.
// Cell widths are measured before styling so ANSI codes do not skew them.
func renderTable(headers []string, rows [][]string, styleCell func(col int, v string) string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); i < len(widths) && w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for i, h := range headers {
		b.WriteString(headerStyle.Render(pad(h, widths[i])))
		if i < len(headers)-1 {
			b.WriteString("  ")
		}
	}
	b.WriteString("\n")

	for _, row := range rows {
		for i, cell := range row {
			padded := pad(cell, widths[i])
			if styleCell != nil {
				padded = styleCell(i, cell) + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			}
			b.WriteString(padded)
			if i < len(row)-1 {
				b.WriteString("  ")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func pad(s string, width int) string {
	return fmt.Sprintf("%-*s", width, s)
}
