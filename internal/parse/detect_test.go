package parse

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{Now: func() time.Time { return fixedNow }}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want SourceFormat
	}{
		{
			name: "app export",
			raw:  `{"id":"c1","pairs":[{"id":"q","question":{"id":"q","role":"user","content":"hi"},"answers":[]}]}`,
			want: FormatAppExport,
		},
		{
			name: "app export wins over leftover mapping",
			raw:  `{"id":"c1","mapping":{},"current_node":"x","pairs":[{"question":{"role":"user","content":"hi"}}]}`,
			want: FormatAppExport,
		},
		{
			name: "claude",
			raw:  `{"uuid":"u","chat_messages":[]}`,
			want: FormatClaude,
		},
		{
			name: "deepseek by inserted_at",
			raw:  `{"id":"d","inserted_at":"2025-01-01T00:00:00Z","mapping":{}}`,
			want: FormatDeepSeek,
		},
		{
			name: "deepseek by updated_at",
			raw:  `{"id":"d","updated_at":"2025-01-01T00:00:00Z","mapping":{},"current_node":"x"}`,
			want: FormatDeepSeek,
		},
		{
			name: "chatgpt mapping",
			raw:  `{"id":"g","current_node":"n1","mapping":{"n1":{"id":"n1"}}}`,
			want: FormatChatGPT,
		},
		{
			name: "simple",
			raw:  `{"messages":[{"role":"user","content":"hi"}]}`,
			want: FormatSimple,
		},
		{
			name: "wrapped simple",
			raw:  `{"id":"w","conversation":{"messages":[]}}`,
			want: FormatWrappedSimple,
		},
		{
			name: "empty pairs fall through to messages",
			raw:  `{"pairs":[],"messages":[]}`,
			want: FormatSimple,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect_Unrecognized(t *testing.T) {
	for _, raw := range []string{
		`{"title":"nothing here"}`,
		`{"mapping":{"a":{}}}`,
		`{"messages":"not an array"}`,
		`{"conversation":{"turns":[]}}`,
		`[1,2,3]`,
		`"text"`,
	} {
		_, err := Detect(json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrUnrecognizedFormat, raw)
	}
}

func TestEveryFormatHasAShape(t *testing.T) {
	shapes := []shape{
		appExportShape{},
		claudeShape{},
		deepSeekShape{},
		chatGPTShape{},
		simpleShape{},
		wrappedSimpleShape{},
	}
	require.Len(t, shapes, len(Formats))
	for i, s := range shapes {
		assert.Equal(t, Formats[i], s.Format())
	}
}
