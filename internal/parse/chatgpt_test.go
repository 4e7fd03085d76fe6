package parse

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gptNode builds one mapping entry. parent "" means root.
func gptNode(id, parent, role, text string, ts int) string {
	p := "null"
	if parent != "" {
		p = fmt.Sprintf("%q", parent)
	}
	msg := "null"
	if role != "" {
		msg = fmt.Sprintf(`{"id":%q,"author":{"role":%q},"create_time":%d,"content":{"content_type":"text","parts":[%q]},"metadata":{"model_slug":"gpt-4o"}}`,
			id, role, ts, text)
	}
	return fmt.Sprintf(`%q:{"id":%q,"parent":%s,"message":%s}`, id, id, p, msg)
}

func gptConversation(current string, nodes ...string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(
		`{"id":"conv-gpt","title":"Branches","create_time":100,"update_time":200,"current_node":%q,"mapping":{%s}}`,
		current, strings.Join(nodes, ",")))
}

func TestChatGPT_FollowsOnlyActiveBranch(t *testing.T) {
	raw := gptConversation("b2",
		gptNode("root", "", "", "", 0),
		gptNode("sys", "root", "system", "You are helpful", 100),
		gptNode("q1", "sys", "user", "first question", 110),
		gptNode("a1", "q1", "assistant", "first answer", 120),
		// branch A: the abandoned edit
		gptNode("qa", "a1", "user", "edited question A", 130),
		gptNode("aa", "qa", "assistant", "answer A", 140),
		// branch B: the active one
		gptNode("qb", "a1", "user", "edited question B", 150),
		gptNode("b2", "qb", "assistant", "answer B", 160),
	)

	conv, err := ParseConversation(raw, testOptions())
	require.NoError(t, err)

	var contents []string
	for _, p := range conv.Pairs {
		contents = append(contents, p.Question.Content)
		for _, a := range p.Answers {
			contents = append(contents, a.Content)
		}
	}
	assert.Equal(t, []string{"first question", "first answer", "edited question B", "answer B"}, contents)
	assert.Equal(t, FormatChatGPT, conv.Source)
	assert.Equal(t, "conv-gpt", conv.ID)
	require.Len(t, conv.Pairs, 2)
	assert.Equal(t, "gpt-4o", conv.Pairs[1].Answers[0].Model)
	assert.Equal(t, "qb", conv.Pairs[1].ID)
}

func TestChatGPT_UserSystemMessageKept(t *testing.T) {
	raw := json.RawMessage(`{
		"id":"c","current_node":"a","mapping":{
			"s":{"id":"s","parent":null,"message":{"id":"s","author":{"role":"system"},"content":{"content_type":"text","parts":["custom instructions"]},"metadata":{"is_user_system_message":true}}},
			"a":{"id":"a","parent":"s","message":{"id":"a","author":{"role":"assistant"},"content":{"content_type":"text","parts":["ok"]},"metadata":{}}}
		}}`)
	conv, err := ParseConversation(raw, testOptions())
	require.NoError(t, err)
	require.Len(t, conv.Pairs, 1)
	assert.Equal(t, "custom instructions", conv.Pairs[0].Question.Content)
	assert.Equal(t, "ok", conv.Pairs[0].Answers[0].Content)
}

func TestChatGPT_SkipsEmptyNodesButKeepsWalking(t *testing.T) {
	raw := gptConversation("a1",
		gptNode("q1", "", "user", "question", 10),
		gptNode("blank", "q1", "assistant", "   ", 11),
		gptNode("a1", "blank", "assistant", "answer", 12),
	)
	conv, err := ParseConversation(raw, testOptions())
	require.NoError(t, err)
	require.Len(t, conv.Pairs, 1)
	require.Len(t, conv.Pairs[0].Answers, 1)
	assert.Equal(t, "answer", conv.Pairs[0].Answers[0].Content)
}

func TestChatGPT_CycleFailsClosed(t *testing.T) {
	raw := json.RawMessage(`{"id":"c","current_node":"a","mapping":{
		"a":{"id":"a","parent":"b","message":null},
		"b":{"id":"b","parent":"a","message":null}}}`)
	_, err := ParseConversation(raw, testOptions())
	assert.ErrorIs(t, err, ErrCyclicGraph)
}

func TestChatGPT_MissingCurrentNode(t *testing.T) {
	raw := gptConversation("nope", gptNode("q1", "", "user", "hi", 1))
	_, err := ParseConversation(raw, testOptions())
	assert.ErrorIs(t, err, ErrMalformedConversation)
}

func TestChatGPT_ThoughtsBecomeThinking(t *testing.T) {
	raw := json.RawMessage(`{"id":"c","current_node":"a","mapping":{
		"q":{"id":"q","parent":null,"message":{"id":"q","author":{"role":"user"},"create_time":1,"content":{"content_type":"multimodal_text","parts":[{"asset_pointer":"file-1"},"what is this?"]},"metadata":{}}},
		"t":{"id":"t","parent":"q","message":{"id":"t","author":{"role":"assistant"},"create_time":2,"content":{"content_type":"thoughts","thoughts":[{"summary":"Looking","content":"It is a cat."}]},"metadata":{}}},
		"a":{"id":"a","parent":"t","message":{"id":"a","author":{"role":"assistant"},"create_time":3,"content":{"content_type":"text","parts":["A cat."]},"metadata":{"model_slug":"o3"}}}}}`)
	conv, err := ParseConversation(raw, testOptions())
	require.NoError(t, err)
	require.Len(t, conv.Pairs, 1)
	p := conv.Pairs[0]
	assert.True(t, p.Question.HasAttachments)
	assert.Equal(t, "what is this?", p.Question.Content)
	require.Len(t, p.Answers, 1)
	assert.Equal(t, "It is a cat.", p.Answers[0].Thinking)
	assert.Equal(t, "o3", p.Answers[0].Model)
}

func TestWalkActiveBranch_DanglingParentEndsWalk(t *testing.T) {
	parent := "missing"
	mapping := map[string]chatGPTNode{
		"a": {ID: "a", Parent: &parent},
	}
	branch, err := walkActiveBranch(mapping, "a")
	require.NoError(t, err)
	require.Len(t, branch, 1)
	assert.Equal(t, "a", branch[0].ID)
}
