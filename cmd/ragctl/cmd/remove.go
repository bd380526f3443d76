package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <doc_id>",
		Short: "Remove one document from the corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(projectDir())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.repo.RemoveDocument(args[0]); err != nil {
				return fmt.Errorf("remove document %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}
