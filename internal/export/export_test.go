package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/ai-chat-archive/internal/ingest"
	"github.com/Zuo-Peng/ai-chat-archive/internal/parse"
)

func testOptions() parse.Options {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return parse.Options{Now: func() time.Time { return now }}
}

const mixedImport = `[
 {"uuid":"cl-1","name":"Claude chat","created_at":"2025-01-01T00:00:00Z","chat_messages":[
   {"uuid":"u","sender":"human","text":"<b>bold</b> & more","created_at":"2025-01-01T00:00:01Z"},
   {"uuid":"a","sender":"assistant","content":[{"type":"thinking","thinking":"hm"},{"type":"text","text":"ok"},
     {"type":"tool_use","id":"t1","name":"create_file","input":{"path":"x/run.sh","file_text":"echo hi"}}],
    "created_at":"2025-01-01T00:00:02.500Z"}]},
 {"id":"ds","updated_at":"2025-01-02T00:00:00Z","mapping":{"n":{"message":{"inserted_at":1735689600.25,
   "fragments":[{"type":"REQUEST","content":"2+2?"},{"type":"THINK","content":"add"},{"type":"RESPONSE","content":"4"}]}}}},
 {"messages":[{"role":"user","content":"no ids, no times"}]}
]`

func TestExportReimportIsIdentical(t *testing.T) {
	first := ingest.ParseBatch([]ingest.Blob{{Name: "in.json", Data: []byte(mixedImport)}}, testOptions())
	require.Empty(t, first.Warnings)
	require.Len(t, first.Conversations, 3)
	first.Conversations[1].Starred = true

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, first.Conversations, true))
	assert.Contains(t, buf.String(), "<b>bold</b> & more")

	// a later clock must not matter once everything has a timestamp
	later := parse.Options{Now: func() time.Time { return time.Unix(4e9, 0) }}
	second := ingest.ParseBatch([]ingest.Blob{{Name: "export.json", Data: buf.Bytes()}}, later)
	require.Empty(t, second.Warnings)
	assert.Equal(t, first.Conversations, second.Conversations)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "export.json")
	require.NoError(t, WriteFile(path, nil, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
