package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/ai-chat-archive/internal/config"
	"github.com/Zuo-Peng/ai-chat-archive/internal/store"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config, store, FTS5, and show stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			fmt.Println("=== Config ===")
			home, _ := os.UserHomeDir()
			cfgPath := config.Path(home)
			if _, err := os.Stat(cfgPath); err != nil {
				fmt.Printf("  File: %s (not found, using defaults)\n", cfgPath)
			} else {
				fmt.Printf("  File: %s (OK)\n", cfgPath)
			}
			fmt.Printf("  Backend: %s\n", cfg.Backend)
			fmt.Printf("  Default policy: %s\n", cfg.DefaultPolicy)

			fmt.Println("\n=== Store ===")
			s, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer s.Close()

			st, err := store.StatsOf(s)
			if err != nil {
				return err
			}
			fmt.Printf("  Path: %s\n", st.Path)
			fmt.Printf("  Conversations: %d\n", st.Conversations)
			fmt.Printf("  Messages:      %d\n", st.Messages)

			if db, ok := s.(*store.SQLite); ok {
				fmt.Println("\n=== FTS5 ===")
				var rows, ftsCount int
				if err := db.Raw().QueryRow("SELECT COUNT(*) FROM messages").Scan(&rows); err != nil {
					fmt.Printf("  rows error: %v\n", err)
				}
				if err := db.Raw().QueryRow("SELECT COUNT(*) FROM messages_fts").Scan(&ftsCount); err != nil {
					fmt.Printf("  FTS5 error: %v\n", err)
				} else {
					fmt.Printf("  FTS5 entries: %d\n", ftsCount)
					if ftsCount == rows {
						fmt.Println("  Status: OK (synced)")
					} else {
						fmt.Printf("  Status: MISMATCH (rows=%d, fts=%d)\n", rows, ftsCount)
					}
				}
			}

			if info, err := os.Stat(st.Path); err == nil {
				sizeMB := float64(info.Size()) / 1024 / 1024
				fmt.Printf("\n=== Store Size: %.1f MB ===\n", sizeMB)
			}
			return nil
		},
	}
}
