package parse

import (
	"encoding/json"
	"fmt"
	"strings"
)

// simpleConversation covers the loose "list of role/content messages" shape
// that many tools export.
type simpleConversation struct {
	ID             string          `json:"id"`
	UUID           string          `json:"uuid"`
	ConversationID string          `json:"conversation_id"`
	Title          string          `json:"title"`
	Name           string          `json:"name"`
	CreateTime     json.RawMessage `json:"create_time"`
	CreatedAt      json.RawMessage `json:"created_at"`
	CreateTimeAlt  json.RawMessage `json:"createTime"`
	UpdateTime     json.RawMessage `json:"update_time"`
	UpdatedAt      json.RawMessage `json:"updated_at"`
	UpdateTimeAlt  json.RawMessage `json:"updateTime"`
	Model          string          `json:"model"`
	Messages       []simpleMessage `json:"messages"`
}

type simpleMessage struct {
	ID         string          `json:"id"`
	Role       string          `json:"role"`
	Sender     string          `json:"sender"`
	Author     string          `json:"author"`
	Content    json.RawMessage `json:"content"`
	Text       string          `json:"text"`
	Timestamp  json.RawMessage `json:"timestamp"`
	CreateTime json.RawMessage `json:"create_time"`
	CreatedAt  json.RawMessage `json:"created_at"`
	CreateAlt  json.RawMessage `json:"createTime"`
	Model      string          `json:"model"`
	Thinking   string          `json:"thinking"`
}

func (simpleShape) parse(raw RawConversation, opts Options) (*parsed, error) {
	var conv simpleConversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConversation, err)
	}
	return conv.toParsed(opts), nil
}

func (c simpleConversation) toParsed(opts Options) *parsed {
	p := &parsed{
		id:    firstNonEmpty(c.ID, c.UUID, c.ConversationID),
		title: firstNonEmpty(c.Title, c.Name),
	}
	p.setCreate(firstTimestamp(c.CreateTime, c.CreatedAt, c.CreateTimeAlt))
	p.setUpdate(firstTimestamp(c.UpdateTime, c.UpdatedAt, c.UpdateTimeAlt))

	for _, sm := range c.Messages {
		role := normalizeRole(strings.ToLower(firstNonEmpty(sm.Role, sm.Sender, sm.Author)))
		if role == "" {
			continue
		}
		body := extractContent(sm.Content)
		if body.Text == "" {
			body.Text = strings.TrimSpace(sm.Text)
		}
		if body.Text == "" {
			continue
		}
		ts, ok := firstTimestamp(sm.Timestamp, sm.CreateTime, sm.CreatedAt, sm.CreateAlt)
		if !ok {
			ts = opts.nowEpoch()
		}
		msg := Message{
			ID:        sm.ID,
			Role:      role,
			Content:   body.Text,
			Timestamp: ts,
		}
		if role == RoleAssistant {
			msg.Model = firstNonEmpty(sm.Model, c.Model)
			msg.Thinking = firstNonEmpty(strings.TrimSpace(sm.Thinking), body.Thinking)
		}
		p.messages = append(p.messages, msg)
	}
	return p
}

// wrappedSimpleConversation nests a simple conversation one level down.
// Fields on the outer object fill whatever the inner one lacks.
type wrappedSimpleConversation struct {
	simpleConversation
	Conversation simpleConversation `json:"conversation"`
}

func (wrappedSimpleShape) parse(raw RawConversation, opts Options) (*parsed, error) {
	var w wrappedSimpleConversation
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConversation, err)
	}
	inner := w.Conversation.toParsed(opts)
	outer := w.simpleConversation.toParsed(opts)
	if inner.id == "" {
		inner.id = outer.id
	}
	if inner.title == "" {
		inner.title = outer.title
	}
	if !inner.hasCreate {
		inner.setCreate(outer.create, outer.hasCreate)
	}
	if !inner.hasUpdate {
		inner.setUpdate(outer.update, outer.hasUpdate)
	}
	return inner, nil
}
