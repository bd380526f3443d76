package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every document in the corpus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the corpus without --yes")
			}
			a, err := newApp(projectDir())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.repo.ClearAll(); err != nil {
				return fmt.Errorf("clear corpus: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Corpus cleared.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the destructive clear operation")
	return cmd
}
