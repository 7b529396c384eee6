package cli

import (
	"fmt"

	"github.com/alexanderramin/comply/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newHistoryCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent submissions and saves recorded on this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := app.History.Recent(commandContext(cmd), limit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHistory(entries, app.now()))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show (0 for all)")

	return cmd
}
