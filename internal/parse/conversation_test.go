package parse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleInputs = map[string]string{
	"claude": `{"uuid":"c","created_at":"2030-01-01T00:00:00Z","updated_at":"2020-01-01T00:00:00Z","chat_messages":[
		{"uuid":"a","sender":"human","text":"q","created_at":"2025-01-01T00:00:00Z"},
		{"uuid":"b","sender":"assistant","text":"r","created_at":"2025-01-02T00:00:00Z"}]}`,
	"deepseek": `{"id":"d","updated_at":"2000-01-01T00:00:00Z","mapping":{
		"1":{"message":{"inserted_at":"2025-01-01T00:00:00Z","fragments":[{"type":"REQUEST","content":"q"},{"type":"RESPONSE","content":"r"}]}}}}`,
	"chatgpt": `{"id":"g","current_node":"b","mapping":{
		"a":{"id":"a","parent":null,"message":{"id":"a","author":{"role":"user"},"content":{"content_type":"text","parts":["q"]},"create_time":300}},
		"b":{"id":"b","parent":"a","message":{"id":"b","author":{"role":"assistant"},"content":{"content_type":"text","parts":["r"]},"create_time":200}}}}`,
	"simple no times": `{"messages":[{"role":"user","content":"q"},{"role":"assistant","content":"r"},{"role":"user","content":"q2"}]}`,
	"simple only create": `{"create_time":999999,"messages":[{"role":"user","content":"q","timestamp":5}]}`,
	"simple non-finite times": `{"create_time":"Infinity","update_time":"-inf","messages":[{"role":"user","content":"q","timestamp":"NaN"}]}`,
}

func TestConversationInvariants(t *testing.T) {
	for name, raw := range sampleInputs {
		t.Run(name, func(t *testing.T) {
			conv, err := ParseConversation(json.RawMessage(raw), testOptions())
			require.NoError(t, err)

			for i, p := range conv.Pairs {
				assert.Equal(t, i+1, p.Index)
				assert.Equal(t, p.Question.ID, p.ID)
				assert.Equal(t, RoleUser, p.Question.Role)
				assert.NotNil(t, p.Answers)
				for _, a := range p.Answers {
					assert.Equal(t, RoleAssistant, a.Role)
				}
			}

			assert.LessOrEqual(t, conv.CreateTime, conv.UpdateTime)
			first, last, ok := MessageBounds(conv.Pairs)
			require.True(t, ok)
			assert.LessOrEqual(t, conv.CreateTime, first)
			assert.GreaterOrEqual(t, conv.UpdateTime, last)
			assert.NotEmpty(t, conv.Title)
		})
	}
}

func TestAppExportRoundTrip(t *testing.T) {
	var originals []Conversation
	for _, raw := range sampleInputs {
		conv, err := ParseConversation(json.RawMessage(raw), testOptions())
		require.NoError(t, err)
		originals = append(originals, *conv)
	}
	originals[0].Starred = true
	originals[0].FolderID = "folder-7"
	originals[0].Pairs[0].Starred = true
	originals[1].Pairs[0].Answers = append(originals[1].Pairs[0].Answers, Message{
		ID: "extra", Role: RoleAssistant, Content: "with artifact", Timestamp: originals[1].UpdateTime,
		Artifacts: []Artifact{{ID: "x", Type: "go", Title: "main.go", Content: "package main"}},
	})

	exported, err := json.Marshal(originals)
	require.NoError(t, err)

	var raws []json.RawMessage
	require.NoError(t, json.Unmarshal(exported, &raws))
	require.Len(t, raws, len(originals))

	for i, raw := range raws {
		format, err := Detect(raw)
		require.NoError(t, err)
		assert.Equal(t, FormatAppExport, format)

		again, err := ParseConversation(raw, testOptions())
		require.NoError(t, err)
		assert.Equal(t, originals[i], *again)
	}
}

func TestAppExport_ReindexesAndRejectsAssistantQuestion(t *testing.T) {
	raw := json.RawMessage(`{"id":"c","title":"t","createTime":10,"updateTime":5,"pairs":[
		{"id":"p2","index":7,"question":{"id":"p2","role":"user","content":"second","timestamp":20},"answers":[]},
		{"id":"p1","index":3,"question":{"id":"p1","role":"user","content":"first","timestamp":1},"answers":[{"id":"a","role":"assistant","content":"r","timestamp":30}]}]}`)
	conv, err := ParseConversation(raw, testOptions())
	require.NoError(t, err)
	require.Len(t, conv.Pairs, 2)
	assert.Equal(t, "p1", conv.Pairs[0].ID)
	assert.Equal(t, 1, conv.Pairs[0].Index)
	assert.Equal(t, 2, conv.Pairs[1].Index)
	assert.Equal(t, float64(1), conv.CreateTime)
	assert.Equal(t, float64(30), conv.UpdateTime)
	assert.Equal(t, FormatAppExport, conv.Source)

	bad := json.RawMessage(`{"id":"c","pairs":[{"id":"p","question":{"id":"p","role":"assistant","content":"x"}}]}`)
	_, err = ParseConversation(bad, testOptions())
	assert.ErrorIs(t, err, ErrMalformedConversation)
}

func TestDeletePairKeepsInvariants(t *testing.T) {
	conv, err := ParseConversation(json.RawMessage(sampleInputs["simple no times"]), testOptions())
	require.NoError(t, err)
	require.Len(t, conv.Pairs, 2)

	assert.False(t, conv.DeletePair("does-not-exist"))
	assert.True(t, conv.DeletePair(conv.Pairs[0].ID))
	require.Len(t, conv.Pairs, 1)
	assert.Equal(t, 1, conv.Pairs[0].Index)
	assert.LessOrEqual(t, conv.CreateTime, conv.UpdateTime)
}

func TestSetTitle(t *testing.T) {
	conv := &Conversation{Pairs: []Pair{{Question: Message{Content: "  \nfirst line is the title\nrest"}}}}
	conv.SetTitle("  Custom ")
	assert.Equal(t, "Custom", conv.Title)

	conv.SetTitle("")
	assert.Equal(t, "first line is the title", conv.Title)

	long := &Conversation{Pairs: []Pair{{Question: Message{Content: "ééééééééééééééééééééééééééééééééééééééééééééééééééééééééééé"}}}}
	long.SetTitle("")
	assert.Equal(t, maxTitleRunes, len([]rune(long.Title)))

	empty := &Conversation{}
	empty.SetTitle("")
	assert.Equal(t, "Untitled", empty.Title)
}

func TestSortByUpdateDesc(t *testing.T) {
	convs := []Conversation{{ID: "b", UpdateTime: 1}, {ID: "c", UpdateTime: 5}, {ID: "a", UpdateTime: 1}}
	SortByUpdateDesc(convs)
	assert.Equal(t, "c", convs[0].ID)
	assert.Equal(t, "a", convs[1].ID)
	assert.Equal(t, "b", convs[2].ID)
}
