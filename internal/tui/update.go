package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/ai-chat-archive/internal/parse"
	"github.com/Zuo-Peng/ai-chat-archive/internal/render"
	"github.com/Zuo-Peng/ai-chat-archive/internal/search"
)

const debounceDelay = 200 * time.Millisecond

// resultsMsg carries a finished query. keepID/keepPair name the row to
// reselect, so an edit does not throw the cursor back to the top.
type resultsMsg struct {
	query    string
	results  []search.Result
	err      error
	keepID   string
	keepPair int
}

type debounceMsg struct {
	query string
}

// editedMsg reports a persisted edit of one conversation.
type editedMsg struct {
	id   string
	pair int
	note string
	conv *parse.Conversation
	err  error
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.box = layout{width: msg.Width, height: msg.Height}
		m.view = newViewport(m.box.previewWidth(), m.box.panelHeight())
		m.shown = ""
		return m, m.loadPreview()

	case tea.KeyMsg:
		if m.rename != nil {
			return m.renameKey(msg)
		}
		return m.browseKey(msg)

	case tea.MouseMsg:
		return m.mouse(msg)

	case debounceMsg:
		if msg.query != m.query {
			return m, nil
		}
		return m, m.fetch(msg.query)

	case resultsMsg:
		return m.onResults(msg)

	case previewRenderedMsg:
		return m.onPreview(msg), nil

	case editedMsg:
		return m.onEdited(msg)
	}
	return m, nil
}

func (m model) browseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	r, ok := m.current()
	if !key.Matches(msg, keys.DeletePair) {
		m.armedDelete = ""
	}

	switch {
	case key.Matches(msg, keys.Quit):
		m.done = true
		return m, tea.Quit

	case key.Matches(msg, keys.Copy):
		if !ok {
			return m, nil
		}
		m.picked = &r
		m.done = true
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		return m.moveTo(m.sel - 1)

	case key.Matches(msg, keys.Down):
		return m.moveTo(m.sel + 1)

	case key.Matches(msg, keys.PreviewUp):
		m.view.LineUp(m.box.panelHeight() / 2)
		return m, nil

	case key.Matches(msg, keys.PreviewDn):
		m.view.LineDown(m.box.panelHeight() / 2)
		return m, nil

	case key.Matches(msg, keys.PageUp):
		m.view.LineUp(m.box.panelHeight())
		return m, nil

	case key.Matches(msg, keys.PageDown):
		m.view.LineDown(m.box.panelHeight())
		return m, nil

	case key.Matches(msg, keys.Thinking):
		m.hideThink = !m.hideThink
		return m, m.loadPreview()

	case key.Matches(msg, keys.StarConv):
		if !ok {
			return m, nil
		}
		return m.apply(r, "toggled star on conversation", func(e Editor) (*parse.Conversation, error) {
			return e.ToggleStar(r.ConversationID)
		})

	case key.Matches(msg, keys.StarPair):
		if !ok {
			return m, nil
		}
		return m.apply(r, fmt.Sprintf("toggled star on pair #%d", r.PairIndex), func(e Editor) (*parse.Conversation, error) {
			return e.TogglePairStar(r.ConversationID, r.PairIndex)
		})

	case key.Matches(msg, keys.DeletePair):
		if !ok {
			return m, nil
		}
		if m.armedDelete != m.previewKey(r) {
			m.armedDelete = m.previewKey(r)
			m.note = fmt.Sprintf("press %s again to delete pair #%d", keys.DeletePair.Help().Key, r.PairIndex)
			return m, nil
		}
		m.armedDelete = ""
		return m.apply(r, fmt.Sprintf("deleted pair #%d", r.PairIndex), func(e Editor) (*parse.Conversation, error) {
			return e.DeletePair(r.ConversationID, r.PairIndex)
		})

	case key.Matches(msg, keys.Rename):
		if !ok {
			return m, nil
		}
		if m.edit == nil {
			m.note = "read only"
			return m, nil
		}
		ti := newTextInput("New title", r.Title)
		ti.Prompt = "title> "
		ti.CursorEnd()
		m.rename = &ti
		m.note = "Enter save | Esc cancel"
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if v := m.filter.Value(); v != m.query {
		m.query = v
		return m, tea.Batch(cmd, debounce(v))
	}
	return m, cmd
}

func (m model) renameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.rename = nil
		m.note = "rename cancelled"
		return m, nil
	case tea.KeyEnter:
		title := m.rename.Value()
		m.rename = nil
		r, ok := m.current()
		if !ok {
			return m, nil
		}
		return m.apply(r, "renamed", func(e Editor) (*parse.Conversation, error) {
			return e.Rename(r.ConversationID, title)
		})
	}
	ti, cmd := m.rename.Update(msg)
	m.rename = &ti
	return m, cmd
}

// apply runs an edit off the UI loop; the result arrives as editedMsg.
func (m model) apply(r search.Result, note string, fn func(Editor) (*parse.Conversation, error)) (tea.Model, tea.Cmd) {
	if m.edit == nil {
		m.note = "read only"
		return m, nil
	}
	ed := m.edit
	return m, func() tea.Msg {
		conv, err := fn(ed)
		return editedMsg{id: r.ConversationID, pair: r.PairIndex, note: note, conv: conv, err: err}
	}
}

func (m model) onEdited(msg editedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.note = "Error: " + msg.err.Error()
		return m, nil
	}
	m.note = msg.note
	m.src.Reload()
	m.shown = ""
	pair := msg.pair
	if msg.conv != nil && pair > len(msg.conv.Pairs) {
		pair = len(msg.conv.Pairs)
	}
	return m, m.fetchKeeping(m.query, msg.id, pair)
}

func (m model) moveTo(i int) (tea.Model, tea.Cmd) {
	if i < 0 || i >= len(m.rows) || i == m.sel {
		return m, nil
	}
	m.sel = i
	m.top = m.box.scrollTo(m.sel, m.top)
	return m, m.loadPreview()
}

func (m model) mouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.box.ready() || len(m.rows) == 0 {
		return m, nil
	}
	where, offset := m.box.at(msg.X, msg.Y)
	wheel := msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown

	switch where {
	case regionList:
		switch {
		case msg.Button == tea.MouseButtonWheelUp:
			m.top = max(0, m.top-1)
		case msg.Button == tea.MouseButtonWheelDown:
			m.top = min(max(0, len(m.rows)-m.box.visibleItems()), m.top+1)
		case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
			return m.moveTo(m.top + offset)
		}
	case regionPreview:
		if wheel {
			var cmd tea.Cmd
			m.view, cmd = m.view.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m model) onResults(msg resultsMsg) (tea.Model, tea.Cmd) {
	if msg.query != m.query {
		return m, nil
	}
	m.rows, m.sel, m.top = nil, 0, 0
	if msg.err != nil {
		m.view.SetContent("Error: " + msg.err.Error())
		m.shown = ""
		return m, nil
	}
	m.rows = msg.results
	if msg.keepID != "" {
		m.sel = keepIndex(m.rows, msg.keepID, msg.keepPair)
		m.top = m.box.scrollTo(m.sel, 0)
	}
	if len(m.rows) == 0 {
		m.view.SetContent("")
		m.shown = ""
		return m, nil
	}
	return m, m.loadPreview()
}

// keepIndex finds the row for id, preferring the same pair.
func keepIndex(rows []search.Result, id string, pair int) int {
	found := -1
	for i, r := range rows {
		if r.ConversationID != id {
			continue
		}
		if r.PairIndex == pair {
			return i
		}
		if found < 0 {
			found = i
		}
	}
	return max(0, found)
}

func (m model) onPreview(msg previewRenderedMsg) model {
	r, ok := m.current()
	if !ok || msg.key != m.previewKey(r) || msg.key == m.shown {
		return m
	}
	m.shown = msg.key
	if msg.err != nil {
		m.view.SetContent("Preview error: " + msg.err.Error())
		return m
	}
	m.view.SetContent(msg.content)
	if m.mode == modeSearch && msg.hitLine > 0 {
		m.view.SetYOffset(msg.hitLine)
	} else {
		m.view.GotoTop()
	}
	return m
}

func (m model) fetch(query string) tea.Cmd {
	return m.fetchKeeping(query, "", 0)
}

// fetchKeeping lists everything in list mode with an empty filter and
// searches otherwise.
func (m model) fetchKeeping(query, keepID string, keepPair int) tea.Cmd {
	s, opts, mode := m.src, m.opts, m.mode
	opts.Query = query
	return func() tea.Msg {
		out := resultsMsg{query: query, keepID: keepID, keepPair: keepPair}
		switch {
		case query == "" && mode == modeList:
			out.results, out.err = s.ListAll(opts)
		case query != "":
			out.results, out.err = s.Search(opts)
		}
		return out
	}
}

func debounce(query string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceMsg{query: query}
	})
}

func (m model) loadPreview() tea.Cmd {
	r, ok := m.current()
	if !ok || m.previewKey(r) == m.shown {
		return nil
	}
	return loadPreviewCmd(m.src, r, m.previewKey(r), render.Options{
		HitPair: r.PairIndex,
		Context: -1,
		Width:   m.box.previewWidth(),
		Query:   m.query,
		NoThink: m.hideThink,
	})
}
