package merge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/ai-chat-archive/internal/parse"
)

type memStore struct {
	convs   []parse.Conversation
	loads   int
	saves   int
	saveErr error
}

func (m *memStore) LoadAll() ([]parse.Conversation, error) {
	m.loads++
	return append([]parse.Conversation(nil), m.convs...), nil
}

func (m *memStore) SaveAll(convs []parse.Conversation) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.convs = convs
	return nil
}

func conv(id string, update float64) parse.Conversation {
	return parse.Conversation{ID: id, Title: id, UpdateTime: update}
}

func byID(convs []parse.Conversation) map[string]parse.Conversation {
	out := map[string]parse.Conversation{}
	for _, c := range convs {
		out[c.ID] = c
	}
	return out
}

func TestDetectDuplicates(t *testing.T) {
	existing := []parse.Conversation{conv("c1", 100)}
	batch := []parse.Conversation{conv("c1", 200), conv("c2", 50)}

	p := DetectDuplicates(batch, existing)
	require.Len(t, p.Duplicates, 1)
	assert.Equal(t, "c1", p.Duplicates[0].ID)
	assert.Equal(t, float64(100), p.Duplicates[0].Old.UpdateTime)
	assert.Equal(t, float64(200), p.Duplicates[0].New.UpdateTime)
	require.Len(t, p.New, 1)
	assert.Equal(t, "c2", p.New[0].ID)
}

func TestCommit_Policies(t *testing.T) {
	batch := []parse.Conversation{conv("c1", 200), conv("c2", 50)}

	tests := []struct {
		name      string
		policy    Policy
		ids       []string
		wantC1    float64
		wantStats Summary
	}{
		{"overwrite-all", OverwriteAll, nil, 200, Summary{Added: 1, Overwritten: 1, Total: 2}},
		{"keep-old", KeepOld, nil, 100, Summary{Added: 1, KeptOld: 1, Total: 2}},
		{"per-item chosen", PerItem, []string{"c1", "not-a-dup"}, 200, Summary{Added: 1, Overwritten: 1, Total: 2}},
		{"per-item none", PerItem, nil, 100, Summary{Added: 1, KeptOld: 1, Total: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &memStore{convs: []parse.Conversation{conv("c1", 100)}}
			sum, err := Commit(s, batch, tt.policy, tt.ids)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStats, sum)
			assert.Equal(t, 1, s.loads)
			assert.Equal(t, 1, s.saves)

			got := byID(s.convs)
			require.Len(t, got, 2)
			assert.Equal(t, tt.wantC1, got["c1"].UpdateTime)
			assert.Contains(t, got, "c2")
		})
	}
}

func TestCommit_SaveFailureLeavesStoreUntouched(t *testing.T) {
	before := []parse.Conversation{conv("c1", 100)}
	s := &memStore{convs: before, saveErr: errors.New("disk full")}

	_, err := Commit(s, []parse.Conversation{conv("c1", 200), conv("c2", 1)}, OverwriteAll, nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, before, s.convs)
}

func TestApply_SortsNewestFirstWithoutTouchingInput(t *testing.T) {
	existing := []parse.Conversation{conv("a", 1), conv("b", 5)}
	out := Apply(existing, Resolution{
		ToKeep:      []parse.Conversation{conv("d", 5), conv("c", 3)},
		ToOverwrite: []parse.Conversation{conv("a", 9)},
	})

	var ids []string
	for _, c := range out {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"a", "b", "d", "c"}, ids)
	assert.Equal(t, float64(1), existing[0].UpdateTime)
}

func TestResolve_UnknownPolicy(t *testing.T) {
	_, err := Resolve(Partition{}, Policy("merge-everything"), nil)
	assert.Error(t, err)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy(" Overwrite-All ")
	require.NoError(t, err)
	assert.Equal(t, OverwriteAll, p)

	_, err = ParsePolicy("ask")
	assert.Error(t, err)
}

func TestDedupeBatch_LastOccurrenceWins(t *testing.T) {
	in := []parse.Conversation{conv("x", 1), conv("y", 2), conv("x", 3)}
	out, warnings := DedupeBatch(in)
	require.Len(t, out, 2)
	assert.Equal(t, "y", out[0].ID)
	assert.Equal(t, float64(3), out[1].UpdateTime)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], `"x"`)

	unique := []parse.Conversation{conv("a", 1)}
	out, warnings = DedupeBatch(unique)
	assert.Equal(t, unique, out)
	assert.Empty(t, warnings)
}
