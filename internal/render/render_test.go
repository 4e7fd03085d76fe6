package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/ai-chat-archive/internal/parse"
)

func sample(n int) *parse.Conversation {
	c := &parse.Conversation{ID: "c", Title: "Sample", Source: parse.FormatChatGPT, UpdateTime: 100}
	for i := 1; i <= n; i++ {
		c.Pairs = append(c.Pairs, parse.Pair{
			Index:    i,
			Question: parse.Message{Role: parse.RoleUser, Content: "question " + string(rune('a'+i-1))},
			Answers: []parse.Message{{
				Role: parse.RoleAssistant, Content: "answer", Model: "gpt-4o", Thinking: "pondering",
				Artifacts: []parse.Artifact{{Type: "go", Title: "main.go", Content: "package main"}},
			}},
		})
	}
	c.Pairs[0].Answers = []parse.Message{}
	return c
}

func TestConversation_WindowAndHitLine(t *testing.T) {
	out, hit := Conversation(sample(5), Options{HitPair: 3, Context: 1})
	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, hit, 0)
	assert.Contains(t, lines[hit], ">> #3 USER")
	assert.Contains(t, out, "(1 pairs before)")
	assert.Contains(t, out, "(1 pairs after)")
	assert.NotContains(t, out, "question a")
	assert.Contains(t, out, "question b")
	assert.Contains(t, out, "question d")
	assert.Contains(t, out, "THINK")
	assert.Contains(t, out, "ASST gpt-4o")
	assert.Contains(t, out, "[go] main.go")
	assert.NotContains(t, out, "package main")
}

func TestConversation_AllPairsOptions(t *testing.T) {
	out, hit := Conversation(sample(2), Options{Context: -1, NoThink: true, Artifacts: true})
	assert.Equal(t, -1, hit)
	assert.Contains(t, out, "(no response)")
	assert.NotContains(t, out, "pondering")
	assert.Contains(t, out, "package main")

	empty, _ := Conversation(&parse.Conversation{}, Options{})
	assert.Equal(t, "(empty conversation)", empty)
}

func TestHighlightKeywords(t *testing.T) {
	got := highlightKeywords("Deploy and deploy", "deploy AND")
	assert.Equal(t, colorBoldRed+"Deploy"+colorReset+" and "+colorBoldRed+"deploy"+colorReset, got)
	assert.Equal(t, "Straße", highlightKeywords("Straße", ""))
	assert.Equal(t, "x "+colorBoldRed+"ÉTÉ"+colorReset, highlightKeywords("x ÉTÉ", "été"))
}

func TestWrapLine(t *testing.T) {
	assert.Equal(t, []string{"abc", "def"}, wrapLine("abcdef", 3))
	assert.Equal(t, []string{"中文", "字"}, wrapLine("中文字", 4))
	assert.Equal(t, []string{"\033[1mab", "c\033[0m"}, wrapLine("\033[1mabc\033[0m", 2))
	assert.Equal(t, []string{""}, wrapLine("", 5))
}

func TestPairText(t *testing.T) {
	p := sample(2).Pairs[1]
	txt := PairText(p)
	assert.True(t, strings.HasPrefix(txt, "Q: question b\n"))
	assert.Contains(t, txt, "A: answer")
	assert.Contains(t, txt, "--- main.go (go) ---\npackage main")
}
