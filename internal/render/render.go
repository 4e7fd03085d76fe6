package render

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/ai-chat-archive/internal/parse"
)

const (
	colorReset   = "\033[0m"
	colorUser    = "\033[1;34m" // bold blue
	colorAssist  = "\033[1;32m" // bold green
	colorThink   = "\033[2;35m" // dim magenta for thinking
	colorFile    = "\033[1;36m" // bold cyan for artifacts
	colorDim     = "\033[2m"
	colorHit     = "\033[43m"   // yellow background
	colorBoldRed = "\033[1;31m" // bold red for keyword highlights
)

type Options struct {
	HitPair   int    // 1-based pair index to mark, 0 = none
	Context   int    // pairs before/after the hit to show, <0 = all
	Width     int    // wrap width (0 = no wrap)
	Query     string // search query for keyword highlighting
	NoThink   bool   // hide thinking blocks
	Artifacts bool   // print artifact bodies, not just their titles
}

// fts5Operators are FTS5 operators that should not be highlighted as keywords.
var fts5Operators = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "NEAR": true,
	"and": true, "or": true, "not": true, "near": true,
}

// highlightKeywords wraps case-insensitive matches of query terms in bold red ANSI codes.
func highlightKeywords(text, query string) string {
	if query == "" {
		return text
	}
	var terms []string
	for _, t := range strings.Fields(query) {
		t = strings.Trim(t, `"*()`)
		if t != "" && !fts5Operators[t] {
			terms = append(terms, t)
		}
	}
	for _, term := range terms {
		var b strings.Builder
		rest := text
		for {
			pos, n := indexFold(rest, term)
			if pos < 0 {
				b.WriteString(rest)
				break
			}
			b.WriteString(rest[:pos])
			b.WriteString(colorBoldRed + rest[pos:pos+n] + colorReset)
			rest = rest[pos+n:]
		}
		text = b.String()
	}
	return text
}

// indexFold finds term in s ignoring case and returns the byte offset and
// byte length of the match in s.
func indexFold(s, term string) (int, int) {
	tl := utf8.RuneCountInString(term)
	for i := range s {
		j, k := i, 0
		for k < tl && j < len(s) {
			k++
			_, size := utf8.DecodeRuneInString(s[j:])
			j += size
		}
		if k == tl && strings.EqualFold(s[i:j], term) {
			return i, j - i
		}
	}
	return -1, 0
}

// indentLines prepends each line of text with the given prefix.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, correctly skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}
	if len(result) == 0 {
		return []string{""}
	}
	return result
}

// FormatTime prints an epoch-seconds timestamp in local time.
func FormatTime(ts float64) string {
	if ts <= 0 {
		return "-"
	}
	return time.Unix(int64(ts), 0).Local().Format("2006-01-02 15:04")
}

// Conversation renders c for the terminal and returns the text plus the
// 0-based line of the hit pair header (-1 if there is none).
func Conversation(c *parse.Conversation, opts Options) (string, int) {
	if len(c.Pairs) == 0 {
		return "(empty conversation)", -1
	}

	start, end := 0, len(c.Pairs)
	if opts.HitPair > 0 && opts.Context >= 0 {
		hit := opts.HitPair - 1
		start = max(0, hit-opts.Context)
		end = min(len(c.Pairs), hit+opts.Context+1)
	}

	var b strings.Builder
	hitLine := -1
	lineCount := 0
	separator := colorDim + strings.Repeat("-", 50) + colorReset

	writeLine := func(s string) {
		for _, wl := range wrapLine(s, opts.Width) {
			b.WriteString(wl)
			b.WriteString("\n")
			lineCount++
		}
	}
	writeBody := func(text string) {
		text = highlightKeywords(text, opts.Query)
		for _, tl := range strings.Split(indentLines(text, "  "), "\n") {
			writeLine(tl)
		}
	}

	writeLine(fmt.Sprintf("%s--- %s [%s] %s ---%s", colorDim, c.Title, c.Source, FormatTime(c.UpdateTime), colorReset))
	if start > 0 {
		writeLine(fmt.Sprintf("%s... (%d pairs before) ...%s", colorDim, start, colorReset))
	}

	for i := start; i < end; i++ {
		p := c.Pairs[i]
		if i > start {
			writeLine(separator)
		}

		star := ""
		if p.Starred {
			star = " *"
		}
		if p.Index == opts.HitPair {
			hitLine = lineCount
			writeLine(fmt.Sprintf("%s>> #%d USER > %s%s <<%s", colorHit, p.Index, FormatTime(p.Question.Timestamp), star, colorReset))
		} else {
			writeLine(fmt.Sprintf("%s#%d USER >%s %s%s%s%s", colorUser, p.Index, colorReset, colorDim, FormatTime(p.Question.Timestamp), star, colorReset))
		}
		if p.Question.HasAttachments {
			writeLine(colorDim + "  [has attachments]" + colorReset)
		}
		writeBody(p.Question.Content)

		if len(p.Answers) == 0 {
			writeLine(colorDim + "  (no response)" + colorReset)
		}
		for _, a := range p.Answers {
			if a.Thinking != "" && !opts.NoThink {
				writeLine(fmt.Sprintf("%sTHINK >%s", colorThink, colorReset))
				writeBody(colorDim + a.Thinking + colorReset)
			}
			label := "ASST"
			if a.Model != "" {
				label += " " + a.Model
			}
			writeLine(fmt.Sprintf("%s%s >%s %s%s%s", colorAssist, label, colorReset, colorDim, FormatTime(a.Timestamp), colorReset))
			writeBody(a.Content)
			for _, art := range a.Artifacts {
				writeLine(fmt.Sprintf("%s  [%s] %s%s", colorFile, art.Type, art.Title, colorReset))
				if opts.Artifacts {
					writeBody(indentLines(art.Content, "  "))
				}
			}
		}
		writeLine("")
	}

	if rest := len(c.Pairs) - end; rest > 0 {
		writeLine(fmt.Sprintf("%s... (%d pairs after) ...%s", colorDim, rest, colorReset))
	}
	return b.String(), hitLine
}

// PairText is the plain-text form of one pair, used for copying.
func PairText(p parse.Pair) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Q: %s\n", p.Question.Content)
	for _, a := range p.Answers {
		fmt.Fprintf(&b, "\nA: %s\n", a.Content)
		for _, art := range a.Artifacts {
			fmt.Fprintf(&b, "\n--- %s (%s) ---\n%s\n", art.Title, art.Type, art.Content)
		}
	}
	return b.String()
}
