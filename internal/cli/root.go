package cli

import (
	"errors"
	"time"

	"github.com/alexanderramin/comply/internal/domain"
	"github.com/alexanderramin/comply/internal/service"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// App holds the services and terminal hooks the commands run against.
type App struct {
	Catalogue   service.CatalogueService
	Assignments service.AssignmentService
	Tracking    service.TrackingService
	Reports     service.ReportService
	History     service.HistoryService

	// DefaultVariant is used when --variant is not given. Empty lets the
	// backend choose.
	DefaultVariant domain.CatalogueVariant

	// IsInteractive reports whether stdin is a terminal. Nil means no.
	IsInteractive func() bool

	// Confirm asks a yes/no question. Nil uses a huh confirm form.
	Confirm func(title, description string) (bool, error)

	// RunProgram runs a full-screen model to completion. Nil uses
	// tea.NewProgram with the alternate screen.
	RunProgram func(m tea.Model) (tea.Model, error)

	// Now is the clock used for relative dates. Nil means time.Now.
	Now func() time.Time
}

// NewRootCmd creates the top-level "comply" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "comply",
		Short:         "Assign compliance obligations and track their filing instances",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newCatalogueCmd(app),
		newAssignCmd(app),
		newInstancesCmd(app),
		newReportCmd(app),
		newHistoryCmd(app),
	)

	return root
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) confirm(title, description string) (bool, error) {
	if a.Confirm != nil {
		return a.Confirm(title, description)
	}
	ok := false
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithTheme(complyHuhTheme()).WithShowHelp(false).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (a *App) runProgram(m tea.Model) (tea.Model, error) {
	if a.RunProgram != nil {
		return a.RunProgram(m)
	}
	return tea.NewProgram(m, tea.WithAltScreen()).Run()
}
