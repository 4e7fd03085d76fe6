package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/ai-chat-archive/internal/archive"
	"github.com/Zuo-Peng/ai-chat-archive/internal/render"
	"github.com/Zuo-Peng/ai-chat-archive/internal/search"
	"github.com/Zuo-Peng/ai-chat-archive/internal/tui"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorBlue    = "\033[1;34m"
	sColorGreen   = "\033[1;32m"
	sColorOrange  = "\033[38;5;208m"
	sColorDim     = "\033[2m"
)

func colorizeSource(source string) string {
	switch source {
	case "claude":
		return sColorOrange + source + sColorReset
	case "chatgpt":
		return sColorGreen + source + sColorReset
	case "deepseek":
		return sColorBlue + source + sColorReset
	default:
		return source
	}
}

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

func tsvField(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func searchCmd() *cobra.Command {
	var source, role, since string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across archived conversations",
		Long: `Search archived conversations. Output is TSV for fzf integration:
  conversationId, pairIndex, updatedAt, source, title, snippet

Recommended shell function (add to .zshrc):
  acaf() {
    aca search "$*" | fzf \
      --ansi \
      --delimiter='\t' --with-nth=3.. \
      --preview 'aca preview {1} --pair {2} --context 2 --query {q}' \
      --preview-window=right:60%:wrap \
      --preview-debounce=150
  }`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			opts := search.Options{
				Source: source,
				Role:   role,
				Since:  since,
				Limit:  limit,
			}
			searcher := search.New(s)

			// Interactive TUI when stdout is a terminal; TSV output for pipes
			if term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.Run(tui.Config{
					Searcher: searcher,
					Editor:   archive.NewEditor(s),
					Options:  opts,
					Query:    args[0],
				})
			}

			opts.Query = args[0]
			results, err := searcher.Search(opts)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			for _, r := range results {
				// first two fields (conversationId, pairIndex) stay plain for fzf {1} {2}
				fmt.Printf("%s\t%d\t%s%s%s\t%s\t%s\t%s\n",
					r.ConversationID,
					r.PairIndex,
					sColorDim, render.FormatTime(r.UpdateTime), sColorReset,
					colorizeSource(r.Source),
					tsvField(r.Title),
					colorizeSnippet(tsvField(r.Snippet)),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Filter by source format (chatgpt/claude/deepseek/...)")
	cmd.Flags().StringVar(&role, "role", "", "Filter by role (user/assistant)")
	cmd.Flags().StringVar(&since, "since", "", "Filter conversations updated since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")

	return cmd
}
