package main

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

func clearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every archived conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if !yes {
				confirm := false
				prompt := &survey.Confirm{
					Message: fmt.Sprintf("Delete all conversations from the %s store?", cfg.Backend),
				}
				if err := survey.AskOne(prompt, &confirm); err != nil || !confirm {
					fmt.Fprintln(os.Stderr, "Aborted.")
					return nil
				}
			}

			if err := s.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "Archive cleared.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
