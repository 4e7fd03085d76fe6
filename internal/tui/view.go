package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (m model) View() string {
	if m.done || !m.box.ready() {
		return ""
	}
	h := m.box.panelHeight()

	input := m.filter.View()
	if m.rename != nil {
		input = m.rename.View()
	}

	list := stylePanelBorder.
		Width(m.box.listWidth()).
		Height(h).
		Render(m.renderList(m.box.listWidth(), h))

	m.view.Width = m.box.previewWidth()
	m.view.Height = h
	preview := styleActiveBorder.
		Width(m.box.previewWidth()).
		Height(h).
		Render(m.view.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		input,
		lipgloss.JoinHorizontal(lipgloss.Top, list, preview),
		m.statusBar(),
	)
}

func (m model) statusBar() string {
	line := fmt.Sprintf("%d results | %s", len(m.rows), helpLine(m.edit != nil))
	if m.note != "" {
		return styleNote.Render(m.note) + styleStatusBar.Render(line)
	}
	return styleStatusBar.Render(line)
}
