package parse

import (
	"encoding/json"
	"fmt"
	"sort"
)

// App exports are this tool's own canonical records. Timestamps are read
// leniently so hand-edited files with ISO strings still load.
type appExportRecord struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	CreateTime json.RawMessage `json:"createTime"`
	UpdateTime json.RawMessage `json:"updateTime"`
	Pairs      []appExportPair `json:"pairs"`
	Starred    bool            `json:"starred"`
	Source     SourceFormat    `json:"source"`
	FolderID   string          `json:"folderId"`
}

type appExportPair struct {
	ID       string             `json:"id"`
	Question appExportMessage   `json:"question"`
	Answers  []appExportMessage `json:"answers"`
	Index    int                `json:"index"`
	Starred  bool               `json:"starred"`
}

type appExportMessage struct {
	ID             string          `json:"id"`
	Role           string          `json:"role"`
	Content        string          `json:"content"`
	Timestamp      json.RawMessage `json:"timestamp"`
	Model          string          `json:"model"`
	Thinking       string          `json:"thinking"`
	Artifacts      []Artifact      `json:"artifacts"`
	HasAttachments bool            `json:"hasAttachments"`
}

func (appExportShape) parse(raw RawConversation, opts Options) (*parsed, error) {
	var rec appExportRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConversation, err)
	}

	p := &parsed{
		id:       rec.ID,
		title:    rec.Title,
		starred:  rec.Starred,
		folderID: rec.FolderID,
		paired:   true,
	}
	if isKnownFormat(rec.Source) {
		p.source = rec.Source
	}
	p.setCreate(ParseTimestamp(rec.CreateTime))
	p.setUpdate(ParseTimestamp(rec.UpdateTime))

	// keep the exported order, then renumber
	sort.SliceStable(rec.Pairs, func(i, j int) bool {
		return rec.Pairs[i].Index < rec.Pairs[j].Index
	})
	for _, rp := range rec.Pairs {
		q := rp.Question.toMessage(opts)
		if q.Role != RoleUser {
			return nil, fmt.Errorf("%w: pair %q question has role %q", ErrMalformedConversation, rp.ID, rp.Question.Role)
		}
		pair := Pair{
			ID:       rp.ID,
			Question: q,
			Answers:  make([]Message, 0, len(rp.Answers)),
			Starred:  rp.Starred,
		}
		for _, ra := range rp.Answers {
			a := ra.toMessage(opts)
			a.Role = RoleAssistant
			a.HasAttachments = false
			pair.Answers = append(pair.Answers, a)
		}
		p.pairs = append(p.pairs, pair)
	}
	return p, nil
}

func (m appExportMessage) toMessage(opts Options) Message {
	msg := Message{
		ID:             m.ID,
		Role:           normalizeRole(m.Role),
		Content:        m.Content,
		Timestamp:      opts.timestampOr(m.Timestamp),
		Model:          m.Model,
		Thinking:       m.Thinking,
		Artifacts:      m.Artifacts,
		HasAttachments: m.HasAttachments,
	}
	if msg.Role == RoleUser {
		msg.Model, msg.Thinking, msg.Artifacts = "", "", nil
	}
	return msg
}

func isKnownFormat(f SourceFormat) bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// normalizeRole maps the role spellings used across exports. Unknown and
// system roles map to "".
func normalizeRole(r string) Role {
	switch r {
	case "user", "human":
		return RoleUser
	case "assistant", "ai", "bot", "model", "tool":
		return RoleAssistant
	}
	return ""
}
