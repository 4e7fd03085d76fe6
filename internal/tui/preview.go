package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/ai-chat-archive/internal/render"
	"github.com/Zuo-Peng/ai-chat-archive/internal/search"
)

// previewRenderedMsg is a finished render, tagged with the preview key it
// was requested for so late arrivals can be dropped.
type previewRenderedMsg struct {
	key     string
	content string
	hitLine int
	err     error
}

func loadPreviewCmd(s search.Searcher, r search.Result, key string, opts render.Options) tea.Cmd {
	return func() tea.Msg {
		msg := previewRenderedMsg{key: key, hitLine: -1}
		conv, err := s.Conversation(r.ConversationID)
		switch {
		case err != nil:
			msg.err = err
		case conv == nil:
			msg.err = fmt.Errorf("conversation not found: %s", r.ConversationID)
		default:
			msg.content, msg.hitLine = render.Conversation(conv, opts)
		}
		return msg
	}
}

func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
