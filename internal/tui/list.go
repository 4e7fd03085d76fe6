package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/ai-chat-archive/internal/render"
	"github.com/Zuo-Peng/ai-chat-archive/internal/search"
)

// fit truncates s to w columns and flattens it to one line.
func fit(s string, w int) string {
	s = strings.Join(strings.Fields(s), " ")
	if w <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) > w {
		return runewidth.Truncate(s, w, "")
	}
	return s
}

// formatRow renders one result as two lines:
//
//	> * source MM-DD title (pairs)
//	    #pair snippet
func formatRow(r search.Result, width int, selected bool) [2]string {
	cursor := "  "
	if selected {
		cursor = styleListSelected.Render("> ")
	}
	star := " "
	if r.Starred {
		star = styleStar.Render("*")
	}

	date := render.FormatTime(r.UpdateTime)
	if len(date) >= 10 {
		date = date[5:10] // MM-DD
	}
	count := ""
	if r.PairCount > 0 {
		count = fmt.Sprintf(" (%d)", r.PairCount)
	}
	// cursor, star and separators take 5 columns, the source slot 7
	titleW := width - 5 - 7 - runewidth.StringWidth(date) - len(count)
	head := fmt.Sprintf("%s%s %s %s %s%s", cursor, star,
		sourceStyle(r.Source).Render(shortSource(r.Source)), date, fit(r.Title, titleW), count)

	snippet := strings.NewReplacer(">>>", "", "<<<", "").Replace(r.Snippet)
	body := fit(fmt.Sprintf("#%d %s", r.PairIndex, snippet), width-4)
	return [2]string{head, "    " + styleDim.Render(body)}
}

// renderList draws the visible slice of rows, padded to the panel height.
func (m model) renderList(width, height int) string {
	if len(m.rows) == 0 {
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No results")
	}

	out := make([]string, 0, height)
	for i := m.top; i < len(m.rows) && len(out)+rowsPerItem <= height; i++ {
		row := formatRow(m.rows[i], width, i == m.sel)
		out = append(out, row[0], row[1])
	}
	for len(out) < height {
		out = append(out, "")
	}
	return strings.Join(out, "\n")
}
