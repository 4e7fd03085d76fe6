package parse

import (
	"encoding/json"
	"fmt"
)

// shape is a detected export format. Each format is its own type, and the
// detector can only return values that know how to parse themselves, so a
// format without a parser does not compile.
type shape interface {
	Format() SourceFormat
	parse(raw RawConversation, opts Options) (*parsed, error)
}

// parsed is what a format parser hands to the conversation assembler.
type parsed struct {
	id    string
	title string

	create, update       float64
	hasCreate, hasUpdate bool

	// messages is a flat chronological list, grouped by AssemblePairs.
	messages []Message
	// pairs is set instead of messages by formats that pair during traversal.
	pairs  []Pair
	paired bool

	// carried verbatim by app exports
	source   SourceFormat
	starred  bool
	folderID string
}

func (p *parsed) setCreate(ts float64, ok bool) {
	p.create, p.hasCreate = ts, ok
}

func (p *parsed) setUpdate(ts float64, ok bool) {
	p.update, p.hasUpdate = ts, ok
}

type (
	appExportShape     struct{}
	claudeShape        struct{}
	deepSeekShape      struct{}
	chatGPTShape       struct{}
	simpleShape        struct{}
	wrappedSimpleShape struct{}
)

func (appExportShape) Format() SourceFormat     { return FormatAppExport }
func (claudeShape) Format() SourceFormat        { return FormatClaude }
func (deepSeekShape) Format() SourceFormat      { return FormatDeepSeek }
func (chatGPTShape) Format() SourceFormat       { return FormatChatGPT }
func (simpleShape) Format() SourceFormat        { return FormatSimple }
func (wrappedSimpleShape) Format() SourceFormat { return FormatWrappedSimple }

// probe holds just the top-level fields the detector looks at.
type probe struct {
	Pairs        json.RawMessage `json:"pairs"`
	ChatMessages json.RawMessage `json:"chat_messages"`
	Mapping      json.RawMessage `json:"mapping"`
	InsertedAt   json.RawMessage `json:"inserted_at"`
	UpdatedAt    json.RawMessage `json:"updated_at"`
	CurrentNode  json.RawMessage `json:"current_node"`
	Messages     json.RawMessage `json:"messages"`
	Conversation json.RawMessage `json:"conversation"`
}

// Detect classifies a raw conversation. Checks run most specific first
// because the shapes overlap.
func Detect(raw RawConversation) (SourceFormat, error) {
	s, err := detectShape(raw)
	if err != nil {
		return "", err
	}
	return s.Format(), nil
}

func detectShape(raw RawConversation) (shape, error) {
	if !isObject(raw) {
		return nil, fmt.Errorf("%w: not a JSON object", ErrUnrecognizedFormat)
	}
	var p probe
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedFormat, err)
	}

	switch {
	case hasCanonicalPairs(p.Pairs):
		return appExportShape{}, nil
	case isArray(p.ChatMessages):
		return claudeShape{}, nil
	case isObject(p.Mapping) && (present(p.InsertedAt) || present(p.UpdatedAt)):
		return deepSeekShape{}, nil
	case isObject(p.Mapping) && present(p.CurrentNode):
		return chatGPTShape{}, nil
	case isArray(p.Messages):
		return simpleShape{}, nil
	case hasNestedMessages(p.Conversation):
		return wrappedSimpleShape{}, nil
	}
	return nil, ErrUnrecognizedFormat
}

func hasCanonicalPairs(raw json.RawMessage) bool {
	if !isArray(raw) {
		return false
	}
	var pairs []struct {
		Question json.RawMessage `json:"question"`
	}
	if err := json.Unmarshal(raw, &pairs); err != nil || len(pairs) == 0 {
		return false
	}
	for _, p := range pairs {
		if !isObject(p.Question) {
			return false
		}
	}
	return true
}

func hasNestedMessages(raw json.RawMessage) bool {
	if !isObject(raw) {
		return false
	}
	var inner struct {
		Messages json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(raw, &inner); err != nil {
		return false
	}
	return isArray(inner.Messages)
}
