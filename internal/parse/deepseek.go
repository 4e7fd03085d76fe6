package parse

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type deepSeekConversation struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	InsertedAt json.RawMessage `json:"inserted_at"`
	UpdatedAt  json.RawMessage `json:"updated_at"`
	Mapping    json.RawMessage `json:"mapping"`
}

type deepSeekNode struct {
	ID         string             `json:"id"`
	Message    *deepSeekMessage   `json:"message"`
	Fragments  []deepSeekFragment `json:"fragments"`
	InsertedAt json.RawMessage    `json:"inserted_at"`
}

type deepSeekMessage struct {
	Model      string             `json:"model"`
	InsertedAt json.RawMessage    `json:"inserted_at"`
	Fragments  []deepSeekFragment `json:"fragments"`
}

type deepSeekFragment struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

const (
	fragmentRequest  = "REQUEST"
	fragmentThink    = "THINK"
	fragmentResponse = "RESPONSE"
)

// deepSeekTurn is one mapping node flattened into its tagged parts.
type deepSeekTurn struct {
	id       string
	ts       float64
	model    string
	request  string
	think    string
	response string
}

// DeepSeek mappings are a bag of turns rather than a tree: every node that
// carries fragments is collected and ordered by insertion time.
func (deepSeekShape) parse(raw RawConversation, opts Options) (*parsed, error) {
	var conv deepSeekConversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConversation, err)
	}
	members, err := decodeOrderedObject(conv.Mapping)
	if err != nil {
		return nil, fmt.Errorf("%w: mapping: %v", ErrMalformedConversation, err)
	}

	p := &parsed{id: conv.ID, title: conv.Title}
	p.setCreate(ParseTimestamp(conv.InsertedAt))
	p.setUpdate(ParseTimestamp(conv.UpdatedAt))

	var turns []deepSeekTurn
	for _, m := range members {
		var node deepSeekNode
		if err := json.Unmarshal(m.Value, &node); err != nil {
			return nil, fmt.Errorf("%w: node %q: %v", ErrMalformedConversation, m.Key, err)
		}
		frags := node.Fragments
		insertedAt := node.InsertedAt
		var model string
		if node.Message != nil {
			if node.Message.Fragments != nil {
				frags = node.Message.Fragments
			}
			if present(node.Message.InsertedAt) {
				insertedAt = node.Message.InsertedAt
			}
			model = node.Message.Model
		}
		if frags == nil {
			continue
		}
		turn := deepSeekTurn{
			id:    firstNonEmpty(node.ID, m.Key),
			ts:    opts.timestampOr(insertedAt),
			model: model,
		}
		turn.request, turn.think, turn.response = joinFragments(frags)
		turns = append(turns, turn)
	}

	sort.SliceStable(turns, func(i, j int) bool { return turns[i].ts < turns[j].ts })

	var b pairBuilder
	for _, t := range turns {
		answerID := t.id
		if t.request != "" {
			b.question(Message{ID: t.id, Content: t.request, Timestamp: t.ts})
			answerID = t.id + "-response"
		}
		if t.response == "" && t.think == "" {
			continue
		}
		b.answer(Message{
			ID:        answerID,
			Content:   t.response,
			Thinking:  t.think,
			Model:     t.model,
			Timestamp: t.ts,
		})
	}
	b.result(p)
	return p, nil
}

// joinFragments concatenates same-tag fragments in source order. SEARCH and
// unknown tags are ignored.
func joinFragments(frags []deepSeekFragment) (request, think, response string) {
	var req, thk, resp []string
	for _, f := range frags {
		switch strings.ToUpper(f.Type) {
		case fragmentRequest:
			req = append(req, f.Content)
		case fragmentThink:
			thk = append(thk, f.Content)
		case fragmentResponse:
			resp = append(resp, f.Content)
		}
	}
	join := func(parts []string) string {
		return strings.TrimSpace(strings.Join(parts, "\n"))
	}
	return join(req), join(thk), join(resp)
}
