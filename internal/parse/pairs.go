package parse

// AssemblePairs groups a chronological message list into pairs. A user
// message opens a pair; assistant messages append to the open pair.
// Assistant messages that arrive before the first user message have no
// pair to join and are dropped.
func AssemblePairs(msgs []Message) []Pair {
	var pairs []Pair
	for _, m := range msgs {
		switch m.Role {
		case RoleUser:
			pairs = append(pairs, Pair{
				ID:       m.ID,
				Question: m,
				Answers:  []Message{},
				Index:    len(pairs) + 1,
			})
		case RoleAssistant:
			if len(pairs) == 0 {
				continue
			}
			last := &pairs[len(pairs)-1]
			last.Answers = append(last.Answers, m)
		}
	}
	return pairs
}

// pairBuilder is used by formats that pair during their own traversal; it
// applies the same rules as AssemblePairs.
type pairBuilder struct {
	pairs []Pair
}

func (b *pairBuilder) question(m Message) {
	m.Role = RoleUser
	b.pairs = append(b.pairs, Pair{
		ID:       m.ID,
		Question: m,
		Answers:  []Message{},
		Index:    len(b.pairs) + 1,
	})
}

// answer appends to the open pair and reports false when there is none.
func (b *pairBuilder) answer(m Message) bool {
	if len(b.pairs) == 0 {
		return false
	}
	m.Role = RoleAssistant
	last := &b.pairs[len(b.pairs)-1]
	last.Answers = append(last.Answers, m)
	return true
}

func (b *pairBuilder) result(p *parsed) {
	p.pairs = b.pairs
	p.paired = true
}
