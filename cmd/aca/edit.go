package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/ai-chat-archive/internal/archive"
	"github.com/Zuo-Peng/ai-chat-archive/internal/parse"
	"github.com/Zuo-Peng/ai-chat-archive/internal/render"
)

// withEditor opens the configured store and hands an editor to fn.
func withEditor(fn func(*archive.Editor) error) error {
	_, s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(archive.NewEditor(s))
}

func pairArg(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid pair index %q (want 1, 2, ...)", s)
	}
	return n, nil
}

func renameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <conversationId> [title]",
		Short: "Set a conversation title (empty title restores the derived one)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := ""
			if len(args) == 2 {
				title = args[1]
			}
			return withEditor(func(e *archive.Editor) error {
				conv, err := e.Rename(args[0], title)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Renamed %s to %q\n", conv.ID, conv.Title)
				return nil
			})
		},
	}
}

func starCmd() *cobra.Command {
	var pair string

	cmd := &cobra.Command{
		Use:   "star <conversationId>",
		Short: "Toggle the star on a conversation, or on one pair with --pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEditor(func(e *archive.Editor) error {
				if pair == "" {
					conv, err := e.ToggleStar(args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(os.Stderr, "%s %q\n", starWord(conv.Starred), conv.Title)
					return nil
				}
				n, err := pairArg(pair)
				if err != nil {
					return err
				}
				conv, err := e.TogglePairStar(args[0], n)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "%s pair #%d of %q\n", starWord(conv.Pairs[n-1].Starred), n, conv.Title)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&pair, "pair", "", "Pair index to toggle instead of the conversation")
	return cmd
}

func starWord(on bool) string {
	if on {
		return "Starred"
	}
	return "Unstarred"
}

func deletePairCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-pair <conversationId> <pair>",
		Short: "Remove one question/answer pair; later pairs are renumbered",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := pairArg(args[1])
			if err != nil {
				return err
			}
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
			if !yes && !confirmDelete(conv, n) {
				fmt.Fprintln(os.Stderr, "Aborted.")
				return nil
			}

			conv, err = archive.NewEditor(s).DeletePair(args[0], n)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Deleted pair #%d; %q now has %d pairs\n", n, conv.Title, len(conv.Pairs))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func confirmDelete(conv *parse.Conversation, n int) bool {
	question := ""
	if n >= 1 && n <= len(conv.Pairs) {
		question = strings.SplitN(conv.Pairs[n-1].Question.Content, "\n", 2)[0]
	}
	confirm := false
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("Delete pair #%d of %q (%s, %q)?", n, conv.Title, render.FormatTime(conv.UpdateTime), question),
	}
	if err := survey.AskOne(prompt, &confirm); err != nil {
		return false
	}
	return confirm
}
