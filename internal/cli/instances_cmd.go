package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/comply/internal/cli/formatter"
	"github.com/alexanderramin/comply/internal/domain"
	"github.com/alexanderramin/comply/internal/session"
	"github.com/spf13/cobra"
)

func newInstancesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "instances",
		Aliases: []string{"inst"},
		Short:   "List and complete the filing instances of assignments",
	}

	cmd.AddCommand(
		newInstancesListCmd(app),
		newInstancesMarkCmd(app),
		newInstancesTrackCmd(app),
	)

	return cmd
}

func newInstancesListCmd(app *App) *cobra.Command {
	var userID, assignmentID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's assignments, or one assignment's instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if assignmentID == "" {
				assignments, err := app.Tracking.ListAssignments(commandContext(cmd), userID)
				if err != nil {
					return err
				}
				fmt.Fprint(out, formatter.FormatAssignmentList(assignments, app.now()))
				return nil
			}

			sess := session.NewTrackingSession(userID, assignmentID)
			if err := app.Tracking.Open(commandContext(cmd), sess); err != nil {
				return err
			}
			printTracking(cmd, app, sess)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User whose assignments to show")
	cmd.Flags().StringVar(&assignmentID, "assignment", "", "Assignment ID; omit to list assignments")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newInstancesMarkCmd(app *App) *cobra.Command {
	var (
		userID, assignmentID string
		toggles              []string
		yes                  bool
	)

	cmd := &cobra.Command{
		Use:   "mark",
		Short: "Flip instances between done and pending, then save",
		Long: `Flip the listed instances between done and pending and save the result.
The save sends the complete set of instances that end up done, so an
instance flipped back to pending is omitted from the request.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(toggles) == 0 {
				return errors.New("at least one --toggle instance ID is required")
			}
			ctx := commandContext(cmd)
			sess := session.NewTrackingSession(userID, assignmentID)
			if err := app.Tracking.Open(ctx, sess); err != nil {
				return err
			}

			for _, id := range toggles {
				id = strings.TrimSpace(id)
				if !sess.Toggle(id) {
					return fmt.Errorf("instance %q is not part of assignment %s", id, assignmentID)
				}
			}

			out := cmd.OutOrStdout()
			printTracking(cmd, app, sess)
			if sess.Counts().Edited == 0 {
				fmt.Fprintln(out, formatter.Dim("No changes to save."))
				return nil
			}

			if !yes {
				if !app.interactive() {
					return errConfirmationRequired
				}
				counts := sess.Counts()
				ok, err := app.confirm(
					fmt.Sprintf("Save %d/%d instances as done?", counts.Done, counts.Total),
					formatter.Plural(counts.Edited, "instance")+" changed.",
				)
				if err != nil {
					return err
				}
				if !ok {
					app.Tracking.Discard(sess)
					fmt.Fprintln(out, formatter.Dim("Cancelled. Edits discarded."))
					return nil
				}
			}

			res, err := app.Tracking.Save(ctx, sess)
			if err != nil && !(res != nil && errors.Is(err, domain.ErrFetchFailed)) {
				return err
			}
			fmt.Fprintf(out, "%s Saved. %s done.\n",
				formatter.StyleGreen.Render("✔"), formatter.Plural(len(res.InstanceIDs), "instance"))
			if err != nil {
				fmt.Fprintf(out, "%s %v\n", formatter.StyleYellow.Render("! refresh failed, showing the submitted state:"), err)
			}
			fmt.Fprint(out, formatter.FormatCounts(res.Counts))
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User who owns the assignment")
	cmd.Flags().StringVar(&assignmentID, "assignment", "", "Assignment ID")
	cmd.Flags().StringSliceVar(&toggles, "toggle", nil, "Instance ID to flip (repeatable, comma-separated)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Save without asking for confirmation")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("assignment")

	return cmd
}

func newInstancesTrackCmd(app *App) *cobra.Command {
	var userID, assignmentID string

	cmd := &cobra.Command{
		Use:   "track",
		Short: "Edit an assignment's instances interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return errors.New("instances track needs an interactive terminal; use instances mark instead")
			}
			sess := session.NewTrackingSession(userID, assignmentID)
			final, err := app.runProgram(newTrackerModel(commandContext(cmd), app, sess))
			if err != nil {
				return err
			}
			if m, ok := final.(*trackerModel); ok && m.discarded {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Unsaved edits were discarded."))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User who owns the assignment")
	cmd.Flags().StringVar(&assignmentID, "assignment", "", "Assignment ID")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("assignment")

	return cmd
}

func printTracking(cmd *cobra.Command, app *App, sess *session.TrackingSession) {
	out := cmd.OutOrStdout()
	a, ok := sess.Assignment()
	if !ok {
		return
	}
	fmt.Fprint(out, formatter.FormatAssignmentHeader(a)+"\n")
	fmt.Fprint(out, formatter.FormatInstanceRows(sess.Rows(), -1, app.now()))
	fmt.Fprint(out, "\n"+formatter.FormatCounts(sess.Counts()))
}
