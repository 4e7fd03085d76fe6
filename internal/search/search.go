package search

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Zuo-Peng/ai-chat-archive/internal/parse"
	"github.com/Zuo-Peng/ai-chat-archive/internal/store"
)

// Result is one hit, pointing at a pair inside a conversation.
type Result struct {
	ConversationID string
	PairIndex      int
	Title          string
	Source         string
	UpdateTime     float64
	Snippet        string
	Role           string
	Kind           string
	Rank           float64
	Starred        bool // conversation is starred
	PairCount      int
}

type Options struct {
	Query  string
	Source string // "" = all, or a parse.SourceFormat
	Role   string // "" = all, "user", "assistant"
	Since  string // "" = no filter, e.g. "2024-01-01"
	Limit  int
}

// Searcher answers queries over the stored conversations.
type Searcher interface {
	Search(opts Options) ([]Result, error)
	// ListAll returns one result per conversation, newest first.
	ListAll(opts Options) ([]Result, error)
	Conversation(id string) (*parse.Conversation, error)
	// Reload drops anything cached from the store, after an edit.
	Reload()
}

// New picks full-text search for the SQLite backend and an in-memory scan
// for any other store.
func New(s store.Store) Searcher {
	if db, ok := s.(*store.SQLite); ok {
		return &sqlSearcher{db: db}
	}
	return &memorySearcher{store: s}
}

func (o Options) sinceEpoch() (float64, error) {
	if o.Since == "" {
		return 0, nil
	}
	ts, ok := parse.ParseTimeString(o.Since)
	if !ok {
		return 0, fmt.Errorf("invalid --since %q (want YYYY-MM-DD)", o.Since)
	}
	return ts, nil
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	runes := []rune(text)
	qRunes := []rune(query)
	runePos := indexFold(runes, qRunes)
	if runePos < 0 || len(qRunes) == 0 {
		if len(runes) > contextChars*2 {
			return string(runes[:contextChars*2]) + "..."
		}
		return text
	}
	start := runePos - contextChars
	if start < 0 {
		start = 0
	}
	end := runePos + len(qRunes) + contextChars
	if end > len(runes) {
		end = len(runes)
	}
	prefix := ""
	suffix := ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+len(qRunes)]) + "<<<" +
		string(runes[runePos+len(qRunes):end])
	return prefix + snippet + suffix
}

// indexFold is a case-insensitive rune index that stays aligned with the
// original text even when lowercasing changes byte lengths.
func indexFold(text, query []rune) int {
	if len(query) == 0 {
		return -1
	}
outer:
	for i := 0; i+len(query) <= len(text); i++ {
		for j, q := range query {
			if unicode.ToLower(text[i+j]) != unicode.ToLower(q) {
				continue outer
			}
		}
		return i
	}
	return -1
}

// dedupe keeps the best-ranked result per conversation.
func dedupe(results []Result, limit int) []Result {
	seen := make(map[string]bool)
	var deduped []Result
	for _, r := range results {
		if seen[r.ConversationID] {
			continue
		}
		seen[r.ConversationID] = true
		deduped = append(deduped, r)
		if len(deduped) >= limit {
			break
		}
	}
	return deduped
}

func normalizeLimit(opts *Options) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
