package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/comply/internal/cli/formatter"
	"github.com/alexanderramin/comply/internal/domain"
	"github.com/alexanderramin/comply/internal/service"
	"github.com/alexanderramin/comply/internal/session"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type pickerPane int

const (
	paneTree pickerPane = iota
	panePreview
)

type pickerPhase int

const (
	phaseBrowse pickerPhase = iota
	phaseReview
	phaseSubmitting
)

// pickRow is one visible line of the catalogue tree. Branch rows carry a
// node ID; item rows carry an item.
type pickRow struct {
	nodeID  string
	heading string
	item    domain.ObligationItem
	depth   int
}

func (r pickRow) isBranch() bool { return r.nodeID != "" }

type submitResultMsg struct {
	prepared *service.PreparedSubmission
	err      error
}

type pickerKeys struct {
	Up, Down, Expand, Toggle, ExpandAll, Clear, Pane, Submit, Quit key.Binding
	Yes, No                                                      key.Binding
}

func newPickerKeys() pickerKeys {
	return pickerKeys{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Expand:    key.NewBinding(key.WithKeys("enter", "right", "l"), key.WithHelp("enter", "open/close")),
		Toggle:    key.NewBinding(key.WithKeys(" ", "space", "x"), key.WithHelp("space", "select")),
		ExpandAll: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "expand all")),
		Clear:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		Pane:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "tree/selected")),
		Submit:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "submit")),
		Quit:      key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		Yes:       key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "assign")),
		No:        key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "back")),
	}
}

// pickerModel is the interactive obligation picker behind `assign pick`.
type pickerModel struct {
	ctx  context.Context
	app  *App
	sess *session.AssignSession
	keys pickerKeys
	help help.Model

	pane          pickerPane
	phase         pickerPhase
	cursor        int
	previewCursor int

	prepared  *service.PreparedSubmission
	submitted *service.PreparedSubmission
	err       error
}

func newPickerModel(ctx context.Context, app *App, sess *session.AssignSession) *pickerModel {
	return &pickerModel{
		ctx:  ctx,
		app:  app,
		sess: sess,
		keys: newPickerKeys(),
		help: help.New(),
	}
}

func (m *pickerModel) Init() tea.Cmd { return nil }

func (m *pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case submitResultMsg:
		m.prepared = nil
		if msg.err != nil {
			m.phase = phaseBrowse
			m.err = msg.err
			return m, nil
		}
		m.submitted = msg.prepared
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.phase {
		case phaseReview:
			return m.updateReview(msg)
		case phaseSubmitting:
			return m, nil
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *pickerModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Pane):
		if m.pane == paneTree && m.sess.SelectedCount() > 0 {
			m.pane = panePreview
		} else {
			m.pane = paneTree
		}
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		m.err = nil
		p, err := m.app.Assignments.Prepare(m.sess)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.prepared = p
		m.phase = phaseReview
		return m, nil
	case key.Matches(msg, m.keys.Clear):
		m.sess.ClearSelection()
		m.pane = paneTree
		return m, nil
	}

	if m.pane == panePreview {
		return m.updatePreview(msg)
	}
	return m.updateTree(msg)
}

func (m *pickerModel) updateTree(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.rows()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.ExpandAll):
		m.sess.ExpandAll()
	case key.Matches(msg, m.keys.Expand):
		if m.cursor < len(rows) {
			row := rows[m.cursor]
			if row.isBranch() {
				m.sess.ToggleExpand(row.nodeID)
			} else {
				m.sess.ToggleItem(row.item)
			}
		}
	case key.Matches(msg, m.keys.Toggle):
		if m.cursor < len(rows) {
			row := rows[m.cursor]
			if row.isBranch() {
				m.sess.ToggleBranch(row.nodeID)
			} else {
				m.sess.ToggleItem(row.item)
			}
		}
	}
	m.clampCursor()
	return m, nil
}

func (m *pickerModel) updatePreview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	selected := m.sess.Selected()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.previewCursor > 0 {
			m.previewCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.previewCursor < len(selected)-1 {
			m.previewCursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if m.previewCursor < len(selected) {
			m.sess.Remove(selected[m.previewCursor].Code)
		}
	}
	if n := m.sess.SelectedCount(); n == 0 {
		m.pane = paneTree
		m.previewCursor = 0
	} else if m.previewCursor >= n {
		m.previewCursor = n - 1
	}
	return m, nil
}

func (m *pickerModel) updateReview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Yes):
		p := m.prepared
		m.phase = phaseSubmitting
		return m, func() tea.Msg {
			return submitResultMsg{prepared: p, err: m.app.Assignments.Confirm(m.ctx, m.sess, p)}
		}
	case key.Matches(msg, m.keys.No):
		m.prepared = nil
		m.phase = phaseBrowse
	}
	return m, nil
}

// rows flattens the catalogue into the lines currently visible.
func (m *pickerModel) rows() []pickRow {
	cat, _ := m.sess.Catalogue()
	if cat == nil {
		return nil
	}
	var rows []pickRow
	var walk func(n *domain.ObligationNode, depth int)
	walk = func(n *domain.ObligationNode, depth int) {
		rows = append(rows, pickRow{nodeID: n.ID, heading: n.Heading, depth: depth})
		if !m.sess.IsExpanded(n.ID) {
			return
		}
		for _, item := range n.Items {
			rows = append(rows, pickRow{item: item, depth: depth + 1})
		}
		for _, child := range n.SubBranches {
			walk(child, depth+1)
		}
	}
	for _, root := range cat.Roots {
		walk(root, 0)
	}
	return rows
}

func (m *pickerModel) clampCursor() {
	n := len(m.rows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *pickerModel) View() string {
	switch m.phase {
	case phaseReview:
		return m.viewReview()
	case phaseSubmitting:
		return formatter.Dim("Submitting assignment…") + "\n"
	}

	var b strings.Builder
	userID, orgID := m.sess.Target()
	b.WriteString(formatter.Header("Assign obligations") + "\n")
	target := "user " + formatter.Bold(userID)
	if orgID != nil {
		target += " · organisation " + formatter.Bold(*orgID)
	}
	b.WriteString(formatter.Dim("for ") + target + "\n\n")

	rows := m.rows()
	if len(rows) == 0 {
		b.WriteString(formatter.Dim("Catalogue is empty.") + "\n")
	}
	for i, row := range rows {
		b.WriteString(m.pointer(m.pane == paneTree && i == m.cursor))
		b.WriteString(strings.Repeat("  ", row.depth))
		if row.isBranch() {
			arrow := "▸"
			if m.sess.IsExpanded(row.nodeID) {
				arrow = "▾"
			}
			fmt.Fprintf(&b, "%s %s %s\n", formatter.Dim(arrow), formatter.SubtreeMark(m.sess.BranchState(row.nodeID)), formatter.Bold(row.heading))
			continue
		}
		line := fmt.Sprintf("  %s %s %s", formatter.CheckMark(m.sess.IsSelected(row.item.Code)), formatter.StyleBlue.Render(row.item.Code), row.item.Name)
		if row.item.DueDate != nil {
			line += formatter.Dim("  " + *row.item.DueDate)
		}
		b.WriteString(line + "\n")
	}

	selected := m.sess.Selected()
	b.WriteString("\n" + formatter.Header(fmt.Sprintf("Selected (%d)", len(selected))) + "\n")
	if len(selected) == 0 {
		b.WriteString(formatter.Dim("Nothing selected yet.") + "\n")
	}
	for i, item := range selected {
		b.WriteString(m.pointer(m.pane == panePreview && i == m.previewCursor))
		fmt.Fprintf(&b, "%s %s\n", formatter.StyleBlue.Render(item.Code), item.Name)
	}

	if m.err != nil {
		b.WriteString("\n" + formatter.StyleRed.Render("✖ "+m.err.Error()) + "\n")
	}
	b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{
		m.keys.Up, m.keys.Down, m.keys.Expand, m.keys.Toggle, m.keys.Pane, m.keys.Submit, m.keys.Quit,
	}))
	return b.String()
}

func (m *pickerModel) viewReview() string {
	p := m.prepared
	var b strings.Builder
	b.WriteString(formatter.FormatSubmissionPreview(p.UserID, p.OrgID, p.Items))
	b.WriteString("\n" + formatter.StyleYellowBold.Render(fmt.Sprintf("Assign %s to %s?", formatter.Plural(p.Count(), "obligation"), p.UserID)) + "\n\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.Yes, m.keys.No}))
	return b.String()
}

func (m *pickerModel) pointer(active bool) string {
	if active {
		return formatter.StyleHeader.Render("❯ ")
	}
	return "  "
}
