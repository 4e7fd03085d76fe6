package ingest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/ai-chat-archive/internal/logger"
	"github.com/Zuo-Peng/ai-chat-archive/internal/merge"
	"github.com/Zuo-Peng/ai-chat-archive/internal/parse"
	"github.com/Zuo-Peng/ai-chat-archive/internal/store"
)

func testOptions() parse.Options {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return parse.Options{Now: func() time.Time { return now }}
}

func simpleItem(id string) string {
	return fmt.Sprintf(`{"id":%q,"title":"chat %s","messages":[{"role":"user","content":"hi %s","timestamp":10},{"role":"assistant","content":"hello","timestamp":11}]}`, id, id, id)
}

func TestParseBatch_MalformedItemIsIsolated(t *testing.T) {
	broken := `{"id":"gpt-broken","title":"Broken","current_node":"ghost","mapping":{"a":{"id":"a","parent":null,"message":null}}}`
	doc := "[" + strings.Join([]string{simpleItem("1"), simpleItem("2"), broken, simpleItem("4"), simpleItem("5")}, ",") + "]"

	rep := ParseBatch([]Blob{{Name: "export.json", Data: []byte(doc)}}, testOptions())
	assert.Len(t, rep.Conversations, 4)
	require.Len(t, rep.Warnings, 1)
	assert.Contains(t, rep.Warnings[0], "item 3")
	assert.Contains(t, rep.Warnings[0], "Broken")
	assert.Equal(t, 1, rep.Failed())
	require.Len(t, rep.Items, 5)
	assert.ErrorIs(t, rep.Items[2].Err, parse.ErrMalformedConversation)
}

func TestParseBatch_BadFileDoesNotStopOthers(t *testing.T) {
	rep := ParseBatch([]Blob{
		{Name: "broken.json", Data: []byte(`[{"id":`)},
		{Name: "good.json", Data: []byte(`{"conversations":[` + simpleItem("a") + `]}`)},
		{Name: "notes.txt", Data: []byte("just some text")},
	}, testOptions())

	require.Len(t, rep.Conversations, 1)
	assert.Equal(t, "a", rep.Conversations[0].ID)
	require.Len(t, rep.Warnings, 2)
	assert.True(t, strings.HasPrefix(rep.Warnings[0], "broken.json:"))
	assert.ErrorIs(t, rep.Items[0].Err, ErrMalformedDocument)
	assert.ErrorIs(t, rep.Items[2].Err, ErrMalformedDocument)
}

func TestParseBatch_UnrecognizedAndDuplicateIDs(t *testing.T) {
	doc := "[" + simpleItem("x") + `,{"foo":"bar"},` + simpleItem("x") + "]"
	rep := ParseBatch([]Blob{{Name: "a.json", Data: []byte(doc)}}, testOptions())

	require.Len(t, rep.Conversations, 1)
	require.Len(t, rep.Warnings, 2)
	assert.Contains(t, rep.Warnings[0], "item 2")
	assert.ErrorIs(t, rep.Items[1].Err, parse.ErrUnrecognizedFormat)
	assert.Contains(t, rep.Warnings[1], "more than once")
}

func TestSplitDocument_JSONShapes(t *testing.T) {
	single, err := SplitDocument([]byte("\xEF\xBB\xBF  " + simpleItem("s")))
	require.NoError(t, err)
	assert.Len(t, single, 1)

	wrapped, err := SplitDocument([]byte(`{"conversations":[` + simpleItem("a") + `,` + simpleItem("b") + `]}`))
	require.NoError(t, err)
	assert.Len(t, wrapped, 2)

	_, err = SplitDocument([]byte("   "))
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

func TestSplitDocument_HTMLJSONData(t *testing.T) {
	page := `<!DOCTYPE html><html><head><title>ChatGPT Data Export</title></head><body>
<script>
var jsonData = [{"id":"h1","title":"has ] and [ in \"strings\"","messages":[{"role":"user","content":"q {"},{"role":"assistant","content":"a }"}]}];
function render() { return jsonData.length; }
</script></body></html>`

	items, err := SplitDocument([]byte(page))
	require.NoError(t, err)
	require.Len(t, items, 1)

	conv, err := parse.ParseConversation(items[0], testOptions())
	require.NoError(t, err)
	assert.Equal(t, `has ] and [ in "strings"`, conv.Title)
	assert.Equal(t, "q {", conv.Pairs[0].Question.Content)
}

func TestSplitDocument_HTMLFallsBackToDOM(t *testing.T) {
	page := `<html><head><title>Saved chat</title><style>.user{color:red}</style></head><body>
<div class="conversation">
  <div class="message message-user"><p>What is   Go?</p></div>
  <div class="message message-assistant"><p>A language.</p><pre>fmt.Println("hi")</pre></div>
  <div class="chat_bot">Anything else?</div>
</div></body></html>`

	items, err := SplitDocument([]byte(page))
	require.NoError(t, err)
	require.Len(t, items, 1)

	conv, err := parse.ParseConversation(items[0], testOptions())
	require.NoError(t, err)
	assert.Equal(t, parse.FormatSimple, conv.Source)
	assert.Equal(t, "Saved chat", conv.Title)
	require.Len(t, conv.Pairs, 1)
	assert.Equal(t, "What is Go?", conv.Pairs[0].Question.Content)
	require.Len(t, conv.Pairs[0].Answers, 2)
	assert.Equal(t, "A language.\nfmt.Println(\"hi\")", conv.Pairs[0].Answers[0].Content)
}

func TestSplitDocument_HTMLWithoutMessages(t *testing.T) {
	_, err := SplitDocument([]byte(`<html><body><p>nothing here</p></body></html>`))
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

func TestMatchBracket(t *testing.T) {
	n, ok := matchBracket([]byte(`["a\"]", {"b": [1]}] trailing`))
	require.True(t, ok)
	assert.Equal(t, len(`["a\"]", {"b": [1]}]`), n)

	_, ok = matchBracket([]byte(`[1, 2`))
	assert.False(t, ok)
}

func TestParseBatch_NonFiniteTimesStillCommit(t *testing.T) {
	odd := `{"id":"odd","create_time":"Infinity","messages":[{"role":"user","content":"q","timestamp":"NaN"},{"role":"assistant","content":"a","timestamp":"-inf"}]}`
	doc := "[" + simpleItem("good") + "," + odd + "]"

	rep := ParseBatch([]Blob{{Name: "a.json", Data: []byte(doc)}}, testOptions())
	require.Len(t, rep.Conversations, 2)
	assert.Empty(t, rep.Warnings)
	for _, c := range rep.Conversations {
		assert.LessOrEqual(t, c.CreateTime, c.UpdateTime, c.ID)
	}

	s, err := store.OpenBolt(filepath.Join(t.TempDir(), "aca.bolt"))
	require.NoError(t, err)
	defer s.Close()

	sum, err := merge.Commit(s, rep.Conversations, merge.KeepOld, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Added)
	stored, err := s.LoadAll()
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestParseBatch_SkippedItemsAreNotLoggedAsWarnings(t *testing.T) {
	var buf bytes.Buffer
	logger.ConfigureWriter(&buf, logger.LevelWarn, false)
	t.Cleanup(func() { logger.Configure(logger.LevelInfo, false) })

	doc := "[" + simpleItem("x") + `,{"foo":"bar"},` + simpleItem("x") + "]"
	rep := ParseBatch([]Blob{{Name: "a.json", Data: []byte(doc)}}, testOptions())

	assert.Len(t, rep.Warnings, 2)
	assert.Empty(t, buf.String())
}
