package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/ai-chat-archive/internal/render"
)

func previewCmd() *cobra.Command {
	var opts render.Options

	cmd := &cobra.Command{
		Use:   "preview <conversationId>",
		Short: "Preview a conversation with context around a pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			conv, err := s.Get(args[0])
			if err != nil {
				return err
			}
			if conv == nil {
				return fmt.Errorf("conversation not found: %s", args[0])
			}

			out, _ := render.Conversation(conv, opts)
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.HitPair, "pair", 0, "Pair index to highlight")
	cmd.Flags().IntVar(&opts.Context, "context", -1, "Pairs before/after --pair to show (-1 = all)")
	cmd.Flags().StringVar(&opts.Query, "query", "", "Search query for keyword highlighting")
	cmd.Flags().IntVar(&opts.Width, "width", 0, "Wrap width (0 = no wrap)")
	cmd.Flags().BoolVar(&opts.NoThink, "no-think", false, "Hide thinking blocks")
	cmd.Flags().BoolVar(&opts.Artifacts, "artifacts", false, "Print artifact contents")

	return cmd
}
