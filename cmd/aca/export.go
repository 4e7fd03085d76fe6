package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/ai-chat-archive/internal/export"
)

func exportCmd() *cobra.Command {
	var output string
	var indent bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole archive as JSON that import reads back unchanged",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			convs, err := s.LoadAll()
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return export.Write(os.Stdout, convs, indent)
			}
			if err := export.WriteFile(output, convs, indent); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Exported %d conversations to %s\n", len(convs), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&indent, "indent", false, "Pretty-print the JSON")

	return cmd
}
