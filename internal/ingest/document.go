package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Zuo-Peng/ai-chat-archive/internal/parse"
)

// ErrMalformedDocument means a whole file could not be read as JSON or HTML.
var ErrMalformedDocument = errors.New("malformed document")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SplitDocument returns the conversation objects held by one file. JSON files
// may be a top-level array, a {"conversations": [...]} wrapper or a single
// conversation. HTML files carry their data in a `var jsonData = ...` script
// and fall back to a text scrape of role-marked elements.
func SplitDocument(data []byte) ([]parse.RawConversation, error) {
	data = bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrMalformedDocument)
	}

	switch data[0] {
	case '[', '{':
		items, err := splitJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		return items, nil
	case '<':
		return splitHTML(data)
	}
	return nil, fmt.Errorf("%w: neither JSON nor HTML", ErrMalformedDocument)
}

func splitJSON(data []byte) ([]parse.RawConversation, error) {
	if !json.Valid(data) {
		return nil, errors.New("invalid JSON")
	}

	if data[0] == '[' {
		var items []parse.RawConversation
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var wrapper struct {
		Conversations []parse.RawConversation `json:"conversations"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil && wrapper.Conversations != nil {
		return wrapper.Conversations, nil
	}
	return []parse.RawConversation{data}, nil
}

func splitHTML(data []byte) ([]parse.RawConversation, error) {
	if payload, ok := findJSONData(data); ok {
		if items, err := splitJSON(payload); err == nil {
			return items, nil
		}
	}
	conv, err := scrapeDOM(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return []parse.RawConversation{conv}, nil
}
