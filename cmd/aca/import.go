package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/ai-chat-archive/internal/ingest"
	"github.com/Zuo-Peng/ai-chat-archive/internal/logger"
	"github.com/Zuo-Peng/ai-chat-archive/internal/merge"
	"github.com/Zuo-Peng/ai-chat-archive/internal/parse"
	"github.com/Zuo-Peng/ai-chat-archive/internal/render"
	"github.com/Zuo-Peng/ai-chat-archive/internal/scan"
	"github.com/Zuo-Peng/ai-chat-archive/internal/store"
)

const policyAsk = "ask"

func importCmd() *cobra.Command {
	var policyFlag string
	var overwrite []string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file-or-dir>...",
		Short: "Import exported conversations (ChatGPT, Claude, DeepSeek, generic JSON or HTML)",
		Long: `Parses every .json/.html/.htm file under the given paths and merges the
conversations into the archive. Conversations whose id is already stored are
resolved by --policy:

  keep-old       leave stored versions untouched (default)
  overwrite-all  replace every stored version with the imported one
  per-item       replace only the ids given with --overwrite
  ask            choose which ids to replace interactively`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if policyFlag == "" {
				policyFlag = cfg.DefaultPolicy
			}

			files, err := scan.ScanPaths(args...)
			if err != nil {
				return err
			}
			blobs := make([]ingest.Blob, 0, len(files))
			for _, f := range files {
				data, err := os.ReadFile(f.Path)
				if err != nil {
					fmt.Fprintf(os.Stderr, "  WARN: read %s: %v\n", f.Path, err)
					continue
				}
				blobs = append(blobs, ingest.Blob{Name: f.Path, Data: data})
			}

			rep := ingest.ParseBatch(blobs, parse.Options{})
			for _, w := range rep.Warnings {
				fmt.Fprintf(os.Stderr, "  WARN: %s\n", w)
			}
			fmt.Fprintf(os.Stderr, "Parsed %d conversations from %d files (%d skipped)\n",
				len(rep.Conversations), len(blobs), rep.Failed())
			if len(rep.Conversations) == 0 {
				return nil
			}

			snap, err := loadSnapshot(s)
			if err != nil {
				return err
			}

			if dryRun {
				part := merge.DetectDuplicates(rep.Conversations, snap.convs)
				fmt.Fprintf(os.Stderr, "Dry run: %d new, %d already stored (policy %s)\n",
					len(part.New), len(part.Duplicates), policyFlag)
				return nil
			}

			policy, ids, err := choosePolicy(policyFlag, overwrite, rep.Conversations, snap.convs)
			if err != nil {
				return err
			}

			sum, err := merge.Commit(snap, rep.Conversations, policy, ids)
			if err != nil {
				return fmt.Errorf("commit: %w", err)
			}
			logger.Logger.Info().
				Str("backend", cfg.Backend).
				Str("policy", string(policy)).
				Int("added", sum.Added).
				Int("overwritten", sum.Overwritten).
				Msg("import committed")
			fmt.Fprintf(os.Stderr, "Done. %s\n", sum)
			return nil
		},
	}

	cmd.Flags().StringVar(&policyFlag, "policy", "", "Duplicate policy: keep-old, overwrite-all, per-item or ask (default from config)")
	cmd.Flags().StringSliceVar(&overwrite, "overwrite", nil, "Conversation ids to overwrite with --policy per-item")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and report duplicates without writing")

	return cmd
}

// snapshotStore serves the set it already loaded so an interactive import
// still reads the store only once.
type snapshotStore struct {
	store.Store
	convs []parse.Conversation
}

func loadSnapshot(s store.Store) (*snapshotStore, error) {
	convs, err := s.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load existing: %w", err)
	}
	return &snapshotStore{Store: s, convs: convs}, nil
}

func (s *snapshotStore) LoadAll() ([]parse.Conversation, error) {
	return s.convs, nil
}

func choosePolicy(flag string, overwrite []string, batch, existing []parse.Conversation) (merge.Policy, []string, error) {
	if flag != policyAsk {
		policy, err := merge.ParsePolicy(flag)
		return policy, overwrite, err
	}

	part := merge.DetectDuplicates(batch, existing)
	if len(part.Duplicates) == 0 {
		return merge.KeepOld, nil, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", nil, fmt.Errorf("--policy ask needs a terminal; %d duplicates found, use per-item with --overwrite", len(part.Duplicates))
	}

	sort.Slice(part.Duplicates, func(i, j int) bool { return part.Duplicates[i].ID < part.Duplicates[j].ID })
	options := make([]string, len(part.Duplicates))
	byOption := make(map[string]string, len(part.Duplicates))
	for i, d := range part.Duplicates {
		options[i] = fmt.Sprintf("%s [%s] stored %s (%d pairs) -> imported %s (%d pairs)",
			d.New.Title, d.ID, render.FormatTime(d.Old.UpdateTime), len(d.Old.Pairs),
			render.FormatTime(d.New.UpdateTime), len(d.New.Pairs))
		byOption[options[i]] = d.ID
	}

	var picked []string
	prompt := &survey.MultiSelect{
		Message: "Already archived. Select conversations to overwrite:",
		Options: options,
	}
	if err := survey.AskOne(prompt, &picked); err != nil {
		return "", nil, fmt.Errorf("prompt: %w", err)
	}
	ids := make([]string, 0, len(picked))
	for _, p := range picked {
		ids = append(ids, byOption[p])
	}
	return merge.PerItem, ids, nil
}
