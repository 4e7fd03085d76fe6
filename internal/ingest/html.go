package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/Zuo-Peng/ai-chat-archive/internal/parse"
)

var jsonDataRe = regexp.MustCompile(`(?:var|let|const)\s+jsonData\s*=\s*`)

// findJSONData locates `var jsonData = <value>` and returns the value by
// scanning to its matching bracket. Brackets inside string literals are skipped.
func findJSONData(doc []byte) ([]byte, bool) {
	loc := jsonDataRe.FindIndex(doc)
	if loc == nil {
		return nil, false
	}
	rest := doc[loc[1]:]
	if len(rest) == 0 || (rest[0] != '[' && rest[0] != '{') {
		return nil, false
	}
	end, ok := matchBracket(rest)
	if !ok {
		return nil, false
	}
	return rest[:end], true
}

// matchBracket returns the length of the balanced value starting at b[0].
func matchBracket(b []byte) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i, c := range b {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

var (
	userMarkers      = []string{"user", "human"}
	assistantMarkers = []string{"assistant", "bot", "ai", "model", "response", "gpt", "claude"}
)

type scrapedMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type scrapedConversation struct {
	Title    string           `json:"title,omitempty"`
	Messages []scrapedMessage `json:"messages"`
}

// scrapeDOM recovers a plain message list from an HTML page whose message
// elements carry a role in their class names. The result is Simple-format JSON.
func scrapeDOM(doc []byte) (parse.RawConversation, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, err
	}

	var conv scrapedConversation
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.Data == "title" && conv.Title == "" {
				conv.Title = strings.TrimSpace(textOf(n))
				return
			}
			if n.Data == "script" || n.Data == "style" {
				return
			}
			if role := classRole(n); role != "" {
				if text := textOf(n); text != "" {
					conv.Messages = append(conv.Messages, scrapedMessage{Role: role, Content: text})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if len(conv.Messages) == 0 {
		return nil, errors.New("no jsonData script and no role-marked elements")
	}
	return json.Marshal(conv)
}

// classRole reads a role from class tokens such as "user", "message-assistant"
// or "chat_bot".
func classRole(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, token := range strings.Fields(strings.ToLower(a.Val)) {
			parts := strings.FieldsFunc(token, func(r rune) bool { return r == '-' || r == '_' })
			for _, p := range parts {
				if contains(userMarkers, p) {
					return "user"
				}
				if contains(assistantMarkers, p) {
					return "assistant"
				}
			}
		}
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "pre": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// textOf flattens an element to text, one line per block element.
func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			b.WriteByte('\n')
		}
	}
	walk(n)

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
