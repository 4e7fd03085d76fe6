package tui

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/ai-chat-archive/internal/parse"
	"github.com/Zuo-Peng/ai-chat-archive/internal/render"
	"github.com/Zuo-Peng/ai-chat-archive/internal/search"
)

// Editor is the write side of the browser. Each call persists the change
// and returns the updated conversation.
type Editor interface {
	Rename(id, title string) (*parse.Conversation, error)
	ToggleStar(id string) (*parse.Conversation, error)
	TogglePairStar(id string, pairIndex int) (*parse.Conversation, error)
	DeletePair(id string, pairIndex int) (*parse.Conversation, error)
}

// Config selects what the browser shows. A nil Editor makes it read only.
type Config struct {
	Searcher search.Searcher
	Editor   Editor
	Options  search.Options
	Query    string
	List     bool
}

type browseMode int

const (
	modeSearch browseMode = iota
	modeList
)

type model struct {
	src  search.Searcher
	edit Editor
	opts search.Options
	mode browseMode

	query  string
	filter textinput.Model
	rename *textinput.Model // non-nil while a title is being edited

	rows []search.Result
	sel  int
	top  int // first visible row

	view      viewport.Model
	shown     string // preview key currently in view
	hideThink bool

	armedDelete string // preview key of the pair awaiting a second delete press
	note        string

	box    layout
	picked *search.Result
	done   bool
}

func newModel(cfg Config) model {
	m := model{
		src:   cfg.Searcher,
		edit:  cfg.Editor,
		opts:  cfg.Options,
		query: cfg.Query,
		view:  viewport.New(0, 0),
	}
	if cfg.List {
		m.mode = modeList
		m.filter = newTextInput("Filter...", cfg.Query)
	} else {
		m.filter = newTextInput("Search...", cfg.Query)
	}
	return m
}

func newTextInput(placeholder, value string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256
	ti.SetValue(value)
	ti.Focus()
	return ti
}

// Run opens the browser and blocks until it exits. Enter leaves the
// browser and copies the selected pair.
func Run(cfg Config) error {
	final, err := tea.NewProgram(newModel(cfg), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	if m := final.(model); m.picked != nil {
		return copyPair(m.src, *m.picked)
	}
	return nil
}

// copyPair puts the pair on the clipboard, or prints it when there is none.
func copyPair(s search.Searcher, r search.Result) error {
	conv, err := s.Conversation(r.ConversationID)
	if err != nil {
		return fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return fmt.Errorf("conversation not found: %s", r.ConversationID)
	}
	if r.PairIndex < 1 || r.PairIndex > len(conv.Pairs) {
		return fmt.Errorf("conversation %s has no pair %d", r.ConversationID, r.PairIndex)
	}

	text := render.PairText(conv.Pairs[r.PairIndex-1])
	if err := clipboard.WriteAll(text); err != nil {
		fmt.Print(text)
		return nil
	}
	fmt.Printf("Copied pair #%d of %q to clipboard\n", r.PairIndex, conv.Title)
	return nil
}

func (m model) Init() tea.Cmd {
	if m.mode == modeList || m.query != "" {
		return tea.Batch(textinput.Blink, m.fetch(m.query))
	}
	return textinput.Blink
}

func (m model) current() (search.Result, bool) {
	if m.sel < 0 || m.sel >= len(m.rows) {
		return search.Result{}, false
	}
	return m.rows[m.sel], true
}

func (m model) previewKey(r search.Result) string {
	return fmt.Sprintf("%s:%d:%t", r.ConversationID, r.PairIndex, m.hideThink)
}
