package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/comply/internal/cli/formatter"
	"github.com/alexanderramin/comply/internal/service"
	"github.com/alexanderramin/comply/internal/session"
	"github.com/spf13/cobra"
)

func newCatalogueCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalogue",
		Short: "Browse the obligation catalogue",
	}
	cmd.AddCommand(newCatalogueShowCmd(app))
	return cmd
}

func newCatalogueShowCmd(app *App) *cobra.Command {
	var (
		org     string
		variant variantFlag
		offline bool
		expand  bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the obligation tree with branch IDs and codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := session.NewAssignSession("", orgFlag(org))
			res, err := loadCatalogue(cmd, app, sess, service.LoadOptions{
				Variant: variant.resolve(app),
				Offline: offline,
			})
			if err != nil {
				return err
			}

			marks := formatter.CatalogueMarks{IsExpanded: sess.IsExpanded}
			if expand {
				marks.IsExpanded = nil
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, formatter.FormatCatalogueHeader(res.Variant, res.FromCache, res.FetchedAt, res.Catalogue.ItemCount(), app.now()))
			fmt.Fprint(out, formatter.FormatCatalogueTree(res.Catalogue, marks))
			if !expand {
				fmt.Fprintln(out, formatter.Dim("\nUse --expand to show every branch."))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&org, "org", "", "Organisation the catalogue is scoped to")
	addVariantFlag(cmd.Flags(), &variant)
	cmd.Flags().BoolVar(&offline, "offline", false, "Use the last cached catalogue instead of the backend")
	cmd.Flags().BoolVar(&expand, "expand", false, "Expand every branch")

	return cmd
}

// loadCatalogue loads a catalogue into sess, with a spinner on interactive
// terminals.
func loadCatalogue(cmd *cobra.Command, app *App, sess *session.AssignSession, opts service.LoadOptions) (*service.CatalogueResult, error) {
	if app.interactive() && !opts.Offline {
		stop := formatter.StartSpinner(cmd.ErrOrStderr(), "Fetching catalogue…")
		defer stop()
	}
	return app.Catalogue.Load(commandContext(cmd), sess, opts)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
