package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	colorPrimary   = lipgloss.Color("12")  // bright blue
	colorDim       = lipgloss.Color("240") // gray
	colorHighlight = lipgloss.Color("11")  // bright yellow
	colorBorder    = lipgloss.Color("238") // dark gray

	// Input area
	styleInput = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	// List items
	styleListSelected = lipgloss.NewStyle().
				Foreground(colorHighlight).
				Bold(true)

	// Panels
	stylePanelBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorBorder)

	styleActiveBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary)

	styleDim = lipgloss.NewStyle().Foreground(colorDim)

	styleStar = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true)

	// Status bar
	styleStatusBar = lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(0, 1)

	styleNote = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Padding(0, 1)
)

// sourceColors tags each export format in the result list.
var sourceColors = map[string]lipgloss.Color{
	"claude":         lipgloss.Color("208"), // orange
	"chatgpt":        lipgloss.Color("10"),  // bright green
	"deepseek":       lipgloss.Color("12"),  // bright blue
	"app_export":     lipgloss.Color("13"),  // magenta
	"simple":         lipgloss.Color("252"),
	"wrapped_simple": lipgloss.Color("252"),
}

func sourceStyle(source string) lipgloss.Style {
	st := lipgloss.NewStyle().Width(7)
	if c, ok := sourceColors[source]; ok {
		st = st.Foreground(c)
	}
	return st
}

// shortSource fits a format name into the 7-column source slot.
func shortSource(source string) string {
	switch source {
	case "app_export":
		return "aca"
	case "wrapped_simple":
		return "simple"
	case "deepseek":
		return "dseek"
	}
	return source
}
