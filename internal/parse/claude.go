package parse

import (
	"encoding/json"
	"fmt"
	"strings"
)

type claudeConversation struct {
	UUID         string          `json:"uuid"`
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Title        string          `json:"title"`
	Model        string          `json:"model"`
	CreatedAt    json.RawMessage `json:"created_at"`
	UpdatedAt    json.RawMessage `json:"updated_at"`
	ChatMessages []claudeMessage `json:"chat_messages"`
}

type claudeMessage struct {
	UUID        string             `json:"uuid"`
	ID          string             `json:"id"`
	Sender      string             `json:"sender"`
	Role        string             `json:"role"`
	Text        string             `json:"text"`
	Content     json.RawMessage    `json:"content"`
	Model       string             `json:"model"`
	CreatedAt   json.RawMessage    `json:"created_at"`
	Attachments []claudeAttachment `json:"attachments"`
	Files       []claudeFile       `json:"files"`
}

type claudeAttachment struct {
	FileName         string `json:"file_name"`
	ExtractedContent string `json:"extracted_content"`
}

type claudeFile struct {
	FileName string `json:"file_name"`
}

type claudeBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Thinking string `json:"thinking"`
}

func (claudeShape) parse(raw RawConversation, opts Options) (*parsed, error) {
	var conv claudeConversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConversation, err)
	}

	p := &parsed{
		id:    firstNonEmpty(conv.UUID, conv.ID),
		title: firstNonEmpty(conv.Name, conv.Title),
	}
	p.setCreate(ParseTimestamp(conv.CreatedAt))
	p.setUpdate(ParseTimestamp(conv.UpdatedAt))

	var b pairBuilder
	for _, cm := range conv.ChatMessages {
		role := normalizeRole(firstNonEmpty(cm.Sender, cm.Role))
		if role == "" {
			continue
		}
		id := firstNonEmpty(cm.UUID, cm.ID)
		body := readClaudeContent(cm.Content, id)
		if body.text == "" {
			body.text = strings.TrimSpace(cm.Text)
		}
		// attachments render only into questions, but they keep an
		// assistant turn alive too
		attached := len(cm.Attachments) > 0 || len(cm.Files) > 0
		if body.text == "" && body.toolUses == 0 && !attached {
			continue
		}

		msg := Message{
			ID:        id,
			Timestamp: opts.timestampOr(cm.CreatedAt),
		}
		if role == RoleUser {
			attachments := attachmentSection(cm)
			msg.Content = joinSections(body.text, attachments)
			msg.HasAttachments = attachments != ""
			b.question(msg)
			continue
		}
		msg.Content = body.text
		msg.Thinking = body.thinking
		msg.Artifacts = body.artifacts
		msg.Model = firstNonEmpty(cm.Model, conv.Model)
		b.answer(msg)
	}
	b.result(p)
	return p, nil
}

type claudeBody struct {
	text      string
	thinking  string
	artifacts []Artifact
	toolUses  int
}

// readClaudeContent splits a Claude content value into text, thinking and
// artifacts. tool_use blocks never contribute text.
func readClaudeContent(raw json.RawMessage, msgID string) claudeBody {
	var out claudeBody
	if !isArray(raw) {
		out.text = extractContent(raw).Text
		return out
	}
	var blocks []json.RawMessage
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return out
	}
	var textParts, thinkParts []string
	for _, rb := range blocks {
		var blk claudeBlock
		if err := json.Unmarshal(rb, &blk); err != nil {
			continue
		}
		switch blk.Type {
		case "text":
			if blk.Text != "" {
				textParts = append(textParts, blk.Text)
			}
		case "thinking":
			if t := firstNonEmpty(blk.Thinking, blk.Text); t != "" {
				thinkParts = append(thinkParts, t)
			}
		case "tool_use":
			out.toolUses++
			var tu toolUseBlock
			if err := json.Unmarshal(rb, &tu); err != nil {
				continue
			}
			if a, ok := extractArtifact(tu, msgID, len(out.artifacts)); ok {
				out.artifacts = append(out.artifacts, a)
			}
		}
	}
	out.text = strings.TrimSpace(strings.Join(textParts, "\n"))
	out.thinking = strings.TrimSpace(strings.Join(thinkParts, "\n"))
	return out
}

// attachmentSection renders file attachments as inline markers followed by
// any text the exporter extracted from them.
func attachmentSection(cm claudeMessage) string {
	var parts []string
	for _, a := range cm.Attachments {
		s := fmt.Sprintf("[Attachment: %s]", firstNonEmpty(a.FileName, "unnamed"))
		if c := strings.TrimSpace(a.ExtractedContent); c != "" {
			s += "\n" + c
		}
		parts = append(parts, s)
	}
	for _, f := range cm.Files {
		parts = append(parts, fmt.Sprintf("[Attachment: %s]", firstNonEmpty(f.FileName, "unnamed")))
	}
	return strings.Join(parts, "\n\n")
}

func joinSections(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}
