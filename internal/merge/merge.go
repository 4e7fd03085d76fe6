package merge

import (
	"fmt"
	"strings"

	"github.com/scylladb/go-set/strset"

	"github.com/Zuo-Peng/ai-chat-archive/internal/parse"
)

type Policy string

const (
	KeepOld      Policy = "keep-old"
	OverwriteAll Policy = "overwrite-all"
	PerItem      Policy = "per-item"
)

var Policies = []Policy{KeepOld, OverwriteAll, PerItem}

func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Policies {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown merge policy %q (want keep-old, overwrite-all or per-item)", s)
}

// DuplicateRecord is an imported conversation whose id already exists.
type DuplicateRecord struct {
	ID  string
	Old parse.Conversation
	New parse.Conversation
}

type Partition struct {
	Duplicates []DuplicateRecord
	New        []parse.Conversation
}

// Resolution is what a policy decided: ToKeep are imports with no collision
// to add, ToOverwrite are new versions that replace stored ones.
type Resolution struct {
	ToKeep      []parse.Conversation
	ToOverwrite []parse.Conversation
}

// Summary counts what a commit changed.
type Summary struct {
	Added       int
	Overwritten int
	KeptOld     int
	Total       int
}

func (s Summary) String() string {
	return fmt.Sprintf("added=%d overwritten=%d kept-old=%d total=%d",
		s.Added, s.Overwritten, s.KeptOld, s.Total)
}

// DedupeBatch drops earlier occurrences of ids repeated within one batch,
// keeping the last one in its original position, and returns a warning per drop.
func DedupeBatch(batch []parse.Conversation) ([]parse.Conversation, []string) {
	last := make(map[string]int, len(batch))
	for i, c := range batch {
		last[c.ID] = i
	}
	if len(last) == len(batch) {
		return batch, nil
	}

	var warnings []string
	out := make([]parse.Conversation, 0, len(last))
	for i, c := range batch {
		if last[c.ID] != i {
			warnings = append(warnings, fmt.Sprintf("conversation %q (%s) appears more than once in this import; keeping the last copy", c.Title, c.ID))
			continue
		}
		out = append(out, c)
	}
	return out, warnings
}

// DetectDuplicates splits batch by whether each id already exists.
func DetectDuplicates(batch, existing []parse.Conversation) Partition {
	byID := make(map[string]parse.Conversation, len(existing))
	for _, c := range existing {
		byID[c.ID] = c
	}

	var p Partition
	for _, c := range batch {
		if old, ok := byID[c.ID]; ok {
			p.Duplicates = append(p.Duplicates, DuplicateRecord{ID: c.ID, Old: old, New: c})
			continue
		}
		p.New = append(p.New, c)
	}
	return p
}

// Resolve applies policy to a partition. overwriteIDs is only consulted
// for PerItem; ids that are not duplicates are ignored.
func Resolve(p Partition, policy Policy, overwriteIDs []string) (Resolution, error) {
	res := Resolution{ToKeep: p.New}

	var overwrite func(id string) bool
	switch policy {
	case KeepOld:
		return res, nil
	case OverwriteAll:
		overwrite = func(string) bool { return true }
	case PerItem:
		chosen := strset.New(overwriteIDs...)
		overwrite = func(id string) bool { return chosen.Has(id) }
	default:
		return Resolution{}, fmt.Errorf("unknown merge policy %q", policy)
	}

	for _, d := range p.Duplicates {
		if overwrite(d.ID) {
			res.ToOverwrite = append(res.ToOverwrite, d.New)
		}
	}
	return res, nil
}

// Apply returns the merged set newest first. existing is not modified.
func Apply(existing []parse.Conversation, res Resolution) []parse.Conversation {
	replace := make(map[string]parse.Conversation, len(res.ToOverwrite))
	for _, c := range res.ToOverwrite {
		replace[c.ID] = c
	}

	out := make([]parse.Conversation, 0, len(existing)+len(res.ToKeep))
	for _, c := range existing {
		if n, ok := replace[c.ID]; ok {
			c = n
		}
		out = append(out, c)
	}
	out = append(out, res.ToKeep...)
	parse.SortByUpdateDesc(out)
	return out
}

// Store is the part of the storage collaborator a merge needs.
type Store interface {
	LoadAll() ([]parse.Conversation, error)
	SaveAll(convs []parse.Conversation) error
}

// Commit reads the stored set once, resolves batch against it and writes the
// merged set once. Nothing is written when any step fails.
func Commit(s Store, batch []parse.Conversation, policy Policy, overwriteIDs []string) (Summary, error) {
	existing, err := s.LoadAll()
	if err != nil {
		return Summary{}, fmt.Errorf("load existing: %w", err)
	}

	part := DetectDuplicates(batch, existing)
	res, err := Resolve(part, policy, overwriteIDs)
	if err != nil {
		return Summary{}, err
	}
	merged := Apply(existing, res)
	if err := s.SaveAll(merged); err != nil {
		return Summary{}, fmt.Errorf("save merged set: %w", err)
	}

	return Summary{
		Added:       len(res.ToKeep),
		Overwritten: len(res.ToOverwrite),
		KeptOld:     len(part.Duplicates) - len(res.ToOverwrite),
		Total:       len(merged),
	}, nil
}
