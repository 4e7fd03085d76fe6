package parse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/scylladb/go-set/strset"
)

type chatGPTConversation struct {
	ID             string                 `json:"id"`
	ConversationID string                 `json:"conversation_id"`
	Title          string                 `json:"title"`
	CreateTime     json.RawMessage        `json:"create_time"`
	UpdateTime     json.RawMessage        `json:"update_time"`
	CurrentNode    string                 `json:"current_node"`
	Mapping        map[string]chatGPTNode `json:"mapping"`
}

type chatGPTNode struct {
	ID      string          `json:"id"`
	Message *chatGPTMessage `json:"message"`
	Parent  *string         `json:"parent"`
}

type chatGPTMessage struct {
	ID     string `json:"id"`
	Author struct {
		Role string `json:"role"`
	} `json:"author"`
	Content    chatGPTContent  `json:"content"`
	CreateTime json.RawMessage `json:"create_time"`
	Metadata   struct {
		ModelSlug           string            `json:"model_slug"`
		IsUserSystemMessage bool              `json:"is_user_system_message"`
		Attachments         []json.RawMessage `json:"attachments"`
	} `json:"metadata"`
}

type chatGPTContent struct {
	ContentType string            `json:"content_type"`
	Parts       []json.RawMessage `json:"parts"`
	Text        string            `json:"text"`
	Thoughts    []struct {
		Summary string `json:"summary"`
		Content string `json:"content"`
	} `json:"thoughts"`
}

// walkActiveBranch follows parent pointers from the current node up to the
// root and returns the nodes root first. Sibling branches left behind by
// edits and regenerations are never reached. A revisited id is a cycle.
func walkActiveBranch(mapping map[string]chatGPTNode, current string) ([]chatGPTNode, error) {
	if _, ok := mapping[current]; !ok {
		return nil, fmt.Errorf("%w: current_node %q not in mapping", ErrMalformedConversation, current)
	}
	visited := strset.New()
	var branch []chatGPTNode
	id := current
	for {
		node, ok := mapping[id]
		if !ok {
			// dangling parent: the chain is rooted here
			break
		}
		if visited.Has(id) {
			return nil, fmt.Errorf("%w: node %q revisited", ErrCyclicGraph, id)
		}
		visited.Add(id)
		branch = append(branch, node)
		if node.Parent == nil || *node.Parent == "" {
			break
		}
		id = *node.Parent
	}
	for i, j := 0, len(branch)-1; i < j; i, j = i+1, j-1 {
		branch[i], branch[j] = branch[j], branch[i]
	}
	return branch, nil
}

func (chatGPTShape) parse(raw RawConversation, opts Options) (*parsed, error) {
	var conv chatGPTConversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConversation, err)
	}
	branch, err := walkActiveBranch(conv.Mapping, conv.CurrentNode)
	if err != nil {
		return nil, err
	}

	p := &parsed{
		id:    firstNonEmpty(conv.ConversationID, conv.ID),
		title: conv.Title,
	}
	p.setCreate(ParseTimestamp(conv.CreateTime))
	p.setUpdate(ParseTimestamp(conv.UpdateTime))

	// reasoning nodes precede the answer they belong to
	var pendingThinking []string
	for _, node := range branch {
		m := node.Message
		if m == nil {
			continue
		}
		role := m.Author.Role
		if role == "system" && !m.Metadata.IsUserSystemMessage {
			continue
		}
		if thinking := chatGPTThinking(m.Content); thinking != "" {
			pendingThinking = append(pendingThinking, thinking)
			continue
		}
		text, hasMedia := chatGPTText(m.Content)
		if text == "" {
			continue
		}

		msg := Message{
			ID:        firstNonEmpty(m.ID, node.ID),
			Content:   text,
			Timestamp: opts.timestampOr(m.CreateTime),
		}
		if role == "system" {
			// user-authored system messages (custom instructions) read as questions
			role = "user"
		}
		switch normalizeRole(role) {
		case RoleUser:
			msg.Role = RoleUser
			msg.HasAttachments = hasMedia || len(m.Metadata.Attachments) > 0
			pendingThinking = nil
		case RoleAssistant:
			msg.Role = RoleAssistant
			msg.Model = m.Metadata.ModelSlug
			msg.Thinking = strings.Join(pendingThinking, "\n\n")
			pendingThinking = nil
		default:
			continue
		}
		p.messages = append(p.messages, msg)
	}
	return p, nil
}

// chatGPTText joins the string parts of a message. hasMedia reports parts
// that were not text (uploaded images and files).
func chatGPTText(c chatGPTContent) (text string, hasMedia bool) {
	var parts []string
	for _, rp := range c.Parts {
		var s string
		if err := json.Unmarshal(rp, &s); err == nil {
			if s != "" {
				parts = append(parts, s)
			}
			continue
		}
		if isObject(rp) {
			hasMedia = true
		}
	}
	if len(parts) == 0 {
		switch c.ContentType {
		case "code", "execution_output", "tether_quote", "tether_browsing_display":
			if c.Text != "" {
				parts = append(parts, c.Text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n")), hasMedia
}

func chatGPTThinking(c chatGPTContent) string {
	if c.ContentType != "thoughts" {
		return ""
	}
	var parts []string
	for _, t := range c.Thoughts {
		if s := strings.TrimSpace(firstNonEmpty(t.Content, t.Summary)); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}
