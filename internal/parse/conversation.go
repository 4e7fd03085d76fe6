package parse

import (
	"fmt"
	"sort"
	"strings"
)

// ParseConversation detects the format of raw and normalizes it into a
// Conversation with contiguous pair indices and a reconciled time range.
func ParseConversation(raw RawConversation, opts Options) (*Conversation, error) {
	s, err := detectShape(raw)
	if err != nil {
		return nil, err
	}
	p, err := s.parse(raw, opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Format(), err)
	}
	return assemble(raw, s.Format(), p, opts)
}

func assemble(raw RawConversation, format SourceFormat, p *parsed, opts Options) (*Conversation, error) {
	conv := &Conversation{
		ID:       strings.TrimSpace(p.id),
		Title:    strings.TrimSpace(p.title),
		Source:   format,
		Starred:  p.starred,
		FolderID: p.folderID,
	}
	if p.source != "" {
		conv.Source = p.source
	}
	if conv.ID == "" {
		conv.ID = synthID(raw)
	}

	if p.paired {
		conv.Pairs = fillPairIDs(conv.ID, p.pairs)
	} else {
		conv.Pairs = AssemblePairs(fillMessageIDs(conv.ID, p.messages))
	}
	if len(conv.Pairs) == 0 {
		return nil, ErrEmptyConversation
	}
	for i := range conv.Pairs {
		if conv.Pairs[i].Answers == nil {
			conv.Pairs[i].Answers = []Message{}
		}
		if conv.Pairs[i].ID == "" {
			conv.Pairs[i].ID = conv.Pairs[i].Question.ID
		}
	}
	Reindex(conv.Pairs)

	// Missing source times do not take part; the message range decides.
	first, last, _ := MessageBounds(conv.Pairs)
	switch {
	case p.hasCreate:
		conv.CreateTime = p.create
	default:
		conv.CreateTime = first
	}
	switch {
	case p.hasUpdate:
		conv.UpdateTime = p.update
	default:
		conv.UpdateTime = last
	}
	conv.reconcileTimes()

	if conv.Title == "" {
		conv.Title = deriveTitle(conv.Pairs)
	}
	return conv, nil
}

// fillMessageIDs gives every id-less message a stable synthesized id.
func fillMessageIDs(convID string, msgs []Message) []Message {
	for i := range msgs {
		if msgs[i].ID == "" {
			msgs[i].ID = messageID(convID, i)
		}
	}
	return msgs
}

func fillPairIDs(convID string, pairs []Pair) []Pair {
	n := 0
	next := func(m *Message) {
		if m.ID == "" {
			m.ID = messageID(convID, n)
		}
		n++
	}
	for i := range pairs {
		next(&pairs[i].Question)
		for j := range pairs[i].Answers {
			next(&pairs[i].Answers[j])
		}
	}
	return pairs
}

// SortByUpdateDesc orders conversations newest first, id ascending on ties.
func SortByUpdateDesc(convs []Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		if convs[i].UpdateTime != convs[j].UpdateTime {
			return convs[i].UpdateTime > convs[j].UpdateTime
		}
		return convs[i].ID < convs[j].ID
	})
}
