package cli

import (
	"fmt"

	"github.com/alexanderramin/comply/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newReportCmd(app *App) *cobra.Command {
	var users []string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show assignment progress grouped by organisation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.interactive() {
				stop := formatter.StartSpinner(cmd.ErrOrStderr(), "Fetching assignments…")
				defer stop()
			}
			rep, err := app.Reports.Build(commandContext(cmd), users)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatReport(rep, app.now()))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&users, "user", nil, "User to report on (repeatable, comma-separated)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
