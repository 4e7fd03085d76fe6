// Package archive applies user edits to stored conversations.
package archive

import (
	"errors"
	"fmt"

	"github.com/Zuo-Peng/ai-chat-archive/internal/logger"
	"github.com/Zuo-Peng/ai-chat-archive/internal/parse"
)

var (
	ErrNotFound     = errors.New("conversation not found")
	ErrPairNotFound = errors.New("pair not found")
	ErrLastPair     = errors.New("cannot delete the only pair of a conversation")
)

// Store is the part of the storage backend an edit needs.
type Store interface {
	LoadAll() ([]parse.Conversation, error)
	SaveAll([]parse.Conversation) error
}

type Editor struct {
	store Store
}

func NewEditor(s Store) *Editor {
	return &Editor{store: s}
}

// Edit loads the archive, applies fn to conversation id and saves the whole
// set back. Nothing is written when fn fails.
func (e *Editor) Edit(id string, fn func(*parse.Conversation) error) (*parse.Conversation, error) {
	convs, err := e.store.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	idx := -1
	for i := range convs {
		if convs[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := fn(&convs[idx]); err != nil {
		return nil, err
	}
	if err := e.store.SaveAll(convs); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	out := convs[idx]
	logger.WithField("conversation", id).Debug().Msg("edited")
	return &out, nil
}

func (e *Editor) Rename(id, title string) (*parse.Conversation, error) {
	return e.Edit(id, func(c *parse.Conversation) error {
		c.SetTitle(title)
		return nil
	})
}

func (e *Editor) ToggleStar(id string) (*parse.Conversation, error) {
	return e.Edit(id, func(c *parse.Conversation) error {
		c.Starred = !c.Starred
		return nil
	})
}

// TogglePairStar flips the starred flag of the pair at a 1-based index.
func (e *Editor) TogglePairStar(id string, pairIndex int) (*parse.Conversation, error) {
	return e.Edit(id, func(c *parse.Conversation) error {
		p, err := pairAt(c, pairIndex)
		if err != nil {
			return err
		}
		p.Starred = !p.Starred
		return nil
	})
}

// DeletePair removes the pair at a 1-based index. The remaining pairs are
// renumbered, so indices shown before the call are stale afterwards.
func (e *Editor) DeletePair(id string, pairIndex int) (*parse.Conversation, error) {
	return e.Edit(id, func(c *parse.Conversation) error {
		p, err := pairAt(c, pairIndex)
		if err != nil {
			return err
		}
		if len(c.Pairs) == 1 {
			return ErrLastPair
		}
		c.DeletePair(p.ID)
		return nil
	})
}

func pairAt(c *parse.Conversation, pairIndex int) (*parse.Pair, error) {
	if pairIndex < 1 || pairIndex > len(c.Pairs) {
		return nil, fmt.Errorf("%w: #%d in %s", ErrPairNotFound, pairIndex, c.ID)
	}
	return &c.Pairs[pairIndex-1], nil
}
