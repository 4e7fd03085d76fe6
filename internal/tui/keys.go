package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Up, Down             key.Binding
	PreviewUp, PreviewDn key.Binding
	PageUp, PageDown     key.Binding
	Copy, Quit           key.Binding
	StarConv, StarPair   key.Binding
	Rename, DeletePair   key.Binding
	Thinking             key.Binding
}

func binding(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

var keys = keyMap{
	Up:         binding("up/C-k", "up", "up", "ctrl+k"),
	Down:       binding("dn/C-j", "down", "down", "ctrl+j"),
	PreviewUp:  binding("C-u", "preview up", "ctrl+u"),
	PreviewDn:  binding("C-d", "preview down", "ctrl+d"),
	PageUp:     binding("pgup", "preview pgup", "pgup"),
	PageDown:   binding("pgdn", "preview pgdn", "pgdown"),
	Copy:       binding("Enter", "copy pair", "enter"),
	Quit:       binding("Esc", "quit", "esc", "ctrl+c"),
	StarConv:   binding("C-s", "star chat", "ctrl+s"),
	StarPair:   binding("C-b", "star pair", "ctrl+b"),
	Rename:     binding("C-r", "rename", "ctrl+r"),
	DeletePair: binding("C-x", "delete pair", "ctrl+x"),
	Thinking:   binding("C-t", "thinking", "ctrl+t"),
}

// helpLine lists the bindings shown in the status bar.
func helpLine(editable bool) string {
	shown := []key.Binding{keys.Copy, keys.Thinking}
	if editable {
		shown = append(shown, keys.StarConv, keys.StarPair, keys.Rename, keys.DeletePair)
	}
	shown = append(shown, keys.Quit)

	parts := make([]string, len(shown))
	for i, b := range shown {
		parts[i] = b.Help().Key + " " + b.Help().Desc
	}
	return strings.Join(parts, " | ")
}
