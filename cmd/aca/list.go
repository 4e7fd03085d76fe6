package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/ai-chat-archive/internal/archive"
	"github.com/Zuo-Peng/ai-chat-archive/internal/render"
	"github.com/Zuo-Peng/ai-chat-archive/internal/search"
	"github.com/Zuo-Peng/ai-chat-archive/internal/tui"
)

func listCmd() *cobra.Command {
	var source, since string
	var limit int
	var plain bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse all conversations sorted by update time",
		Long:  `Opens a TUI panel showing all archived conversations sorted by update time (newest first). Type to search their content.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			opts := search.Options{
				Source: source,
				Since:  since,
				Limit:  limit,
			}
			searcher := search.New(s)

			if !plain && term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.Run(tui.Config{
					Searcher: searcher,
					Editor:   archive.NewEditor(s),
					Options:  opts,
					List:     true,
				})
			}

			results, err := searcher.ListAll(opts)
			if err != nil {
				return err
			}
			for _, r := range results {
				star := ""
				if r.Starred {
					star = "*"
				}
				fmt.Printf("%s\t%s\t%s\t%s\t%d\t%s\n", r.ConversationID, render.FormatTime(r.UpdateTime),
					r.Source, star, r.PairCount, tsvField(r.Title))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Filter by source format (chatgpt/claude/deepseek/...)")
	cmd.Flags().StringVar(&since, "since", "", "Filter conversations updated since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 10000, "Max results")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print TSV instead of opening the TUI")

	return cmd
}
