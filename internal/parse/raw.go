package parse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

func firstByte(raw json.RawMessage) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}

func isArray(raw json.RawMessage) bool  { return firstByte(raw) == '[' }
func isObject(raw json.RawMessage) bool { return firstByte(raw) == '{' }

// present reports whether raw holds a value other than null.
func present(raw json.RawMessage) bool {
	b := firstByte(raw)
	return b != 0 && b != 'n'
}

func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

type keyedRaw struct {
	Key   string
	Value json.RawMessage
}

// decodeOrderedObject decodes a JSON object into its members in source order.
func decodeOrderedObject(raw json.RawMessage) ([]keyedRaw, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}
	var out []keyedRaw
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, fmt.Errorf("decode %q: %w", key, err)
		}
		out = append(out, keyedRaw{Key: key, Value: val})
	}
	return out, nil
}

type textBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Thinking string `json:"thinking"`
}

type extractedContent struct {
	Text     string
	Thinking string
}

// extractContent reads a content value that is either a plain string or an
// array of typed blocks.
func extractContent(raw json.RawMessage) extractedContent {
	// try string first
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return extractedContent{Text: strings.TrimSpace(s)}
	}

	// try array of content blocks
	var blocks []json.RawMessage
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var textParts []string
		var thinkParts []string
		for _, rb := range blocks {
			var str string
			if json.Unmarshal(rb, &str) == nil {
				if str != "" {
					textParts = append(textParts, str)
				}
				continue
			}
			var b textBlock
			if json.Unmarshal(rb, &b) != nil {
				continue
			}
			switch b.Type {
			case "thinking":
				if t := firstNonEmpty(b.Thinking, b.Text); t != "" {
					thinkParts = append(thinkParts, t)
				}
			case "text", "input_text", "output_text", "":
				if b.Text != "" {
					textParts = append(textParts, b.Text)
				}
			}
		}
		return extractedContent{
			Text:     strings.TrimSpace(strings.Join(textParts, "\n")),
			Thinking: strings.TrimSpace(strings.Join(thinkParts, "\n")),
		}
	}

	return extractedContent{}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
