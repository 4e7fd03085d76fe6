package archive

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/ai-chat-archive/internal/parse"
	"github.com/Zuo-Peng/ai-chat-archive/internal/store"
)

func pair(id, q string, ts float64) parse.Pair {
	return parse.Pair{
		ID:       id,
		Question: parse.Message{ID: id, Role: parse.RoleUser, Content: q, Timestamp: ts},
		Answers:  []parse.Message{{ID: id + "-a", Role: parse.RoleAssistant, Content: "ok", Timestamp: ts + 1}},
	}
}

func seed() []parse.Conversation {
	c := parse.Conversation{ID: "c1", Title: "Deploy", Source: parse.FormatClaude, CreateTime: 10, UpdateTime: 31,
		Pairs: []parse.Pair{pair("p1", "first", 10), pair("p2", "second", 20), pair("p3", "third", 30)}}
	parse.Reindex(c.Pairs)
	solo := parse.Conversation{ID: "c2", Title: "Solo", Source: parse.FormatSimple, CreateTime: 5, UpdateTime: 6,
		Pairs: []parse.Pair{pair("s1", "only", 5)}}
	parse.Reindex(solo.Pairs)
	return []parse.Conversation{c, solo}
}

func openBolt(t *testing.T) *store.Bolt {
	t.Helper()
	s, err := store.OpenBolt(filepath.Join(t.TempDir(), "aca.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.SaveAll(seed()))
	return s
}

func TestEditor_DeletePairRenumbersAndPersists(t *testing.T) {
	s := openBolt(t)
	e := NewEditor(s)

	got, err := e.DeletePair("c1", 2)
	require.NoError(t, err)
	require.Len(t, got.Pairs, 2)
	assert.Equal(t, "p3", got.Pairs[1].ID)
	assert.Equal(t, 2, got.Pairs[1].Index)

	stored, err := s.Get("c1")
	require.NoError(t, err)
	require.Len(t, stored.Pairs, 2)
	assert.Equal(t, []int{1, 2}, []int{stored.Pairs[0].Index, stored.Pairs[1].Index})
	assert.LessOrEqual(t, stored.CreateTime, stored.UpdateTime)
}

func TestEditor_DeletePairRejections(t *testing.T) {
	s := openBolt(t)
	e := NewEditor(s)

	_, err := e.DeletePair("c2", 1)
	assert.ErrorIs(t, err, ErrLastPair)

	_, err = e.DeletePair("c1", 9)
	assert.ErrorIs(t, err, ErrPairNotFound)

	_, err = e.DeletePair("nope", 1)
	assert.ErrorIs(t, err, ErrNotFound)

	stored, err := s.Get("c2")
	require.NoError(t, err)
	assert.Len(t, stored.Pairs, 1)
}

func TestEditor_StarsAndRename(t *testing.T) {
	s := openBolt(t)
	e := NewEditor(s)

	got, err := e.ToggleStar("c1")
	require.NoError(t, err)
	assert.True(t, got.Starred)

	got, err = e.TogglePairStar("c1", 3)
	require.NoError(t, err)
	assert.True(t, got.Pairs[2].Starred)
	got, err = e.TogglePairStar("c1", 3)
	require.NoError(t, err)
	assert.False(t, got.Pairs[2].Starred)

	_, err = e.Rename("c1", "  Rollout plan  ")
	require.NoError(t, err)
	_, err = e.Rename("c2", "")
	require.NoError(t, err)

	c1, err := s.Get("c1")
	require.NoError(t, err)
	assert.Equal(t, "Rollout plan", c1.Title)
	assert.True(t, c1.Starred)
	c2, err := s.Get("c2")
	require.NoError(t, err)
	assert.Equal(t, "only", c2.Title)
}

type failingStore struct {
	convs []parse.Conversation
	saves int
}

func (f *failingStore) LoadAll() ([]parse.Conversation, error) { return f.convs, nil }
func (f *failingStore) SaveAll([]parse.Conversation) error {
	f.saves++
	return errors.New("disk full")
}

func TestEditor_SaveFailureIsReported(t *testing.T) {
	f := &failingStore{convs: seed()}
	_, err := NewEditor(f).ToggleStar("c1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, f.saves)

	_, err = NewEditor(f).DeletePair("c2", 1)
	assert.ErrorIs(t, err, ErrLastPair)
	assert.Equal(t, 1, f.saves, "a rejected edit never saves")
}
