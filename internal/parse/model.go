package parse

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// RawConversation is one conversation object exactly as it appeared in an import file.
type RawConversation = json.RawMessage

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// SourceFormat tags which export shape a conversation was parsed from.
type SourceFormat string

const (
	FormatAppExport     SourceFormat = "app_export"
	FormatClaude        SourceFormat = "claude"
	FormatDeepSeek      SourceFormat = "deepseek"
	FormatChatGPT       SourceFormat = "chatgpt"
	FormatSimple        SourceFormat = "simple"
	FormatWrappedSimple SourceFormat = "wrapped_simple"
)

// Formats lists every SourceFormat in detection order.
var Formats = []SourceFormat{
	FormatAppExport,
	FormatClaude,
	FormatDeepSeek,
	FormatChatGPT,
	FormatSimple,
	FormatWrappedSimple,
}

type Artifact struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Message is a single authored turn. Model, Thinking and Artifacts are only
// set on assistant messages, HasAttachments only on user messages.
type Message struct {
	ID             string     `json:"id"`
	Role           Role       `json:"role"`
	Content        string     `json:"content"`
	Timestamp      float64    `json:"timestamp"`
	Model          string     `json:"model,omitempty"`
	Thinking       string     `json:"thinking,omitempty"`
	Artifacts      []Artifact `json:"artifacts,omitempty"`
	HasAttachments bool       `json:"hasAttachments,omitempty"`
}

// Pair is one question and the answers that followed it.
type Pair struct {
	ID       string    `json:"id"`
	Question Message   `json:"question"`
	Answers  []Message `json:"answers"`
	Index    int       `json:"index"`
	Starred  bool      `json:"starred"`
}

type Conversation struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	CreateTime float64      `json:"createTime"`
	UpdateTime float64      `json:"updateTime"`
	Pairs      []Pair       `json:"pairs"`
	Starred    bool         `json:"starred"`
	Source     SourceFormat `json:"source"`
	FolderID   string       `json:"folderId,omitempty"`
}

// Reindex assigns 1-based contiguous indices in slice order.
func Reindex(pairs []Pair) {
	for i := range pairs {
		pairs[i].Index = i + 1
	}
}

// MessageBounds returns the earliest and latest message timestamp across all pairs.
// ok is false when the pairs hold no messages.
func MessageBounds(pairs []Pair) (first, last float64, ok bool) {
	see := func(ts float64) {
		if !ok {
			first, last, ok = ts, ts, true
			return
		}
		if ts < first {
			first = ts
		}
		if ts > last {
			last = ts
		}
	}
	for _, p := range pairs {
		see(p.Question.Timestamp)
		for _, a := range p.Answers {
			see(a.Timestamp)
		}
	}
	return first, last, ok
}

// reconcileTimes widens createTime/updateTime to cover every message and
// guarantees createTime <= updateTime.
func (c *Conversation) reconcileTimes() {
	if first, last, ok := MessageBounds(c.Pairs); ok {
		if first < c.CreateTime {
			c.CreateTime = first
		}
		if last > c.UpdateTime {
			c.UpdateTime = last
		}
	}
	if c.UpdateTime < c.CreateTime {
		c.UpdateTime = c.CreateTime
	}
}

// DeletePair removes the pair with the given id, renumbers the rest and
// re-reconciles the time range. It reports whether a pair was removed.
func (c *Conversation) DeletePair(id string) bool {
	for i, p := range c.Pairs {
		if p.ID != id {
			continue
		}
		c.Pairs = append(c.Pairs[:i], c.Pairs[i+1:]...)
		Reindex(c.Pairs)
		c.reconcileTimes()
		return true
	}
	return false
}

// SetTitle replaces the title; a blank title falls back to the derived one.
func (c *Conversation) SetTitle(title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = deriveTitle(c.Pairs)
	}
	c.Title = title
}

const maxTitleRunes = 50

func deriveTitle(pairs []Pair) string {
	for _, p := range pairs {
		s := strings.TrimSpace(p.Question.Content)
		if s == "" {
			continue
		}
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = strings.TrimSpace(s[:i])
		}
		if utf8.RuneCountInString(s) > maxTitleRunes {
			s = string([]rune(s)[:maxTitleRunes])
		}
		return s
	}
	return "Untitled"
}
