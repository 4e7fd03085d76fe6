package search

import (
	"strings"

	"github.com/Zuo-Peng/ai-chat-archive/internal/parse"
	"github.com/Zuo-Peng/ai-chat-archive/internal/store"
)

// memorySearcher scans a loaded snapshot. It serves stores without a
// full-text index.
type memorySearcher struct {
	store  store.Store
	loaded []parse.Conversation
	ready  bool
}

func (m *memorySearcher) all() ([]parse.Conversation, error) {
	if m.ready {
		return m.loaded, nil
	}
	convs, err := m.store.LoadAll()
	if err != nil {
		return nil, err
	}
	parse.SortByUpdateDesc(convs)
	m.loaded, m.ready = convs, true
	return convs, nil
}

func (m *memorySearcher) Conversation(id string) (*parse.Conversation, error) {
	return m.store.Get(id)
}

func (m *memorySearcher) Reload() {
	m.loaded, m.ready = nil, false
}

func (m *memorySearcher) filtered(opts Options) ([]parse.Conversation, error) {
	convs, err := m.all()
	if err != nil {
		return nil, err
	}
	since, err := opts.sinceEpoch()
	if err != nil {
		return nil, err
	}
	var out []parse.Conversation
	for _, c := range convs {
		if opts.Source != "" && string(c.Source) != opts.Source {
			continue
		}
		if opts.Since != "" && c.UpdateTime < since {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memorySearcher) Search(opts Options) ([]Result, error) {
	normalizeLimit(&opts)
	convs, err := m.filtered(opts)
	if err != nil {
		return nil, err
	}
	q := []rune(strings.TrimSpace(opts.Query))

	var results []Result
	for _, c := range convs {
	pairs:
		for _, p := range c.Pairs {
			for _, hit := range pairTexts(p) {
				if opts.Role != "" && string(hit.role) != opts.Role {
					continue
				}
				if indexFold([]rune(hit.text), q) < 0 {
					continue
				}
				results = append(results, Result{
					ConversationID: c.ID,
					PairIndex:      p.Index,
					Title:          c.Title,
					Source:         string(c.Source),
					UpdateTime:     c.UpdateTime,
					Snippet:        makeSnippet(hit.text, string(q), 30),
					Role:           string(hit.role),
					Kind:           hit.kind,
					Starred:        c.Starred,
					PairCount:      len(c.Pairs),
				})
				break pairs
			}
		}
	}
	return dedupe(results, opts.Limit), nil
}

func (m *memorySearcher) ListAll(opts Options) ([]Result, error) {
	normalizeLimit(&opts)
	convs, err := m.filtered(opts)
	if err != nil {
		return nil, err
	}
	var results []Result
	for _, c := range convs {
		r := Result{
			ConversationID: c.ID,
			PairIndex:      1,
			Title:          c.Title,
			Source:         string(c.Source),
			UpdateTime:     c.UpdateTime,
			Role:           string(parse.RoleUser),
			Kind:           store.KindText,
			Starred:        c.Starred,
			PairCount:      len(c.Pairs),
		}
		if len(c.Pairs) > 0 {
			r.Snippet = firstLine(c.Pairs[0].Question.Content)
		}
		results = append(results, r)
		if len(results) >= opts.Limit {
			break
		}
	}
	return results, nil
}

type pairText struct {
	role parse.Role
	kind string
	text string
}

// pairTexts lists the searchable texts of a pair in the order SQLite indexes them.
func pairTexts(p parse.Pair) []pairText {
	out := []pairText{{parse.RoleUser, store.KindText, p.Question.Content}}
	for _, a := range p.Answers {
		if a.Thinking != "" {
			out = append(out, pairText{parse.RoleAssistant, store.KindThinking, a.Thinking})
		}
		out = append(out, pairText{parse.RoleAssistant, store.KindText, a.Content})
		for _, art := range a.Artifacts {
			out = append(out, pairText{parse.RoleAssistant, store.KindArtifact, art.Content})
		}
	}
	return out
}
