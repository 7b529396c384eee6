package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/comply/internal/cli/formatter"
	"github.com/alexanderramin/comply/internal/domain"
	"github.com/alexanderramin/comply/internal/service"
	"github.com/alexanderramin/comply/internal/session"
	"github.com/spf13/cobra"
)

// errConfirmationRequired is returned when a mutation needs confirmation
// but there is no terminal to ask on.
var errConfirmationRequired = errors.New("confirmation required: rerun with --yes or from an interactive terminal")

type assignFlags struct {
	user    string
	org     string
	variant variantFlag
	offline bool
}

func (f *assignFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.user, "user", "", "User the obligations are assigned to")
	cmd.Flags().StringVar(&f.org, "org", "", "Organisation the obligations apply to")
	addVariantFlag(cmd.Flags(), &f.variant)
	cmd.Flags().BoolVar(&f.offline, "offline", false, "Select from the last cached catalogue")
	_ = cmd.MarkFlagRequired("user")
}

func (f *assignFlags) open(cmd *cobra.Command, app *App) (*session.AssignSession, error) {
	sess := session.NewAssignSession(strings.TrimSpace(f.user), orgFlag(f.org))
	_, err := loadCatalogue(cmd, app, sess, service.LoadOptions{
		Variant: f.variant.resolve(app),
		Offline: f.offline,
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func newAssignCmd(app *App) *cobra.Command {
	var (
		flags    assignFlags
		codes    []string
		branches []string
		yes      bool
	)

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign obligations to a user by code or branch",
		Long: `Assign obligations to a user. Obligations are picked by code (--code)
or by whole catalogue branch (--branch, using the IDs printed by
"comply catalogue show"). The request is previewed and must be confirmed
unless --yes is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(codes) == 0 && len(branches) == 0 {
				return domain.ErrEmptySelection
			}
			sess, err := flags.open(cmd, app)
			if err != nil {
				return err
			}
			if err := selectCodes(sess, codes); err != nil {
				return err
			}
			if err := selectBranches(sess, branches); err != nil {
				return err
			}
			return submitSelection(cmd, app, sess, yes)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringSliceVar(&codes, "code", nil, "Obligation code (repeatable, comma-separated)")
	cmd.Flags().StringSliceVar(&branches, "branch", nil, "Catalogue branch ID; selects every obligation under it")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Submit without asking for confirmation")

	cmd.AddCommand(newAssignPickCmd(app))
	return cmd
}

// selectCodes adds codes to the selection. Repeated codes are selected once.
func selectCodes(sess *session.AssignSession, codes []string) error {
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" || sess.IsSelected(code) {
			continue
		}
		if !sess.ToggleCode(code) {
			return fmt.Errorf("unknown obligation code %q", code)
		}
	}
	return nil
}

// selectBranches adds every obligation under each branch. A branch that is
// already fully selected is left alone rather than toggled off.
func selectBranches(sess *session.AssignSession, ids []string) error {
	cat, _ := sess.Catalogue()
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, ok := cat.Node(id); !ok {
			return fmt.Errorf("unknown catalogue branch %q", id)
		}
		if sess.BranchState(id) == domain.SubtreeAll {
			continue
		}
		sess.ToggleBranch(id)
	}
	return nil
}

func submitSelection(cmd *cobra.Command, app *App, sess *session.AssignSession, yes bool) error {
	prepared, err := app.Assignments.Prepare(sess)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, formatter.FormatSubmissionPreview(prepared.UserID, prepared.OrgID, prepared.Items))

	if !yes {
		if !app.interactive() {
			return errConfirmationRequired
		}
		ok, err := app.confirm(
			fmt.Sprintf("Assign %s to %s?", formatter.Plural(prepared.Count(), "obligation"), prepared.UserID),
			"The backend creates the filing instances once this is accepted.",
		)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, formatter.Dim("Cancelled. Nothing was submitted."))
			return nil
		}
	}

	if err := app.Assignments.Confirm(commandContext(cmd), sess, prepared); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s Assigned %s to %s.\n",
		formatter.StyleGreen.Render("✔"), formatter.Plural(prepared.Count(), "obligation"), prepared.UserID)
	return nil
}

func newAssignPickCmd(app *App) *cobra.Command {
	var flags assignFlags

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Pick obligations interactively from the catalogue tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return errors.New("assign pick needs an interactive terminal; use assign --code/--branch instead")
			}
			sess, err := flags.open(cmd, app)
			if err != nil {
				return err
			}

			final, err := app.runProgram(newPickerModel(commandContext(cmd), app, sess))
			if err != nil {
				return err
			}
			if m, ok := final.(*pickerModel); ok && m.submitted != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s Assigned %s to %s.\n",
					formatter.StyleGreen.Render("✔"), formatter.Plural(m.submitted.Count(), "obligation"), m.submitted.UserID)
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
