package cli

import (
	"context"
	"errors"
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

type trackerLoadedMsg struct{ err error }

type trackerSavedMsg struct {
	res *service.SaveResult
	err error
}

type trackerKeys struct {
	Up, Down, Toggle, Save, Undo, Reload, Quit key.Binding
}

func newTrackerKeys() trackerKeys {
	return trackerKeys{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle: key.NewBinding(key.WithKeys(" ", "space", "x", "enter"), key.WithHelp("space", "done/pending")),
		Save:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		Undo:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo edits")),
		Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("esc", "back")),
	}
}

// trackerModel edits one assignment's instances behind `instances track`.
// Leaving the view discards unsaved edits.
type trackerModel struct {
	ctx  context.Context
	app  *App
	sess *session.TrackingSession
	keys trackerKeys
	help help.Model

	cursor    int
	loading   bool
	saving    bool
	status    string
	err       error
	discarded bool
}

func newTrackerModel(ctx context.Context, app *App, sess *session.TrackingSession) *trackerModel {
	return &trackerModel{
		ctx:     ctx,
		app:     app,
		sess:    sess,
		keys:    newTrackerKeys(),
		help:    help.New(),
		loading: true,
	}
}

func (m *trackerModel) Init() tea.Cmd {
	return m.load()
}

func (m *trackerModel) load() tea.Cmd {
	return func() tea.Msg {
		return trackerLoadedMsg{err: m.app.Tracking.Open(m.ctx, m.sess)}
	}
}

func (m *trackerModel) save() tea.Cmd {
	return func() tea.Msg {
		res, err := m.app.Tracking.Save(m.ctx, m.sess)
		return trackerSavedMsg{res: res, err: err}
	}
}

func (m *trackerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case trackerLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.clampCursor()
		return m, nil

	case trackerSavedMsg:
		m.saving = false
		m.err = nil
		switch {
		case msg.err == nil:
			m.status = fmt.Sprintf("Saved. %s done.", formatter.Plural(len(msg.res.InstanceIDs), "instance"))
		case msg.res != nil && errors.Is(msg.err, domain.ErrFetchFailed):
			m.status = "Saved, but the refresh failed; showing the submitted state."
		default:
			m.err = msg.err
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.discarded = m.sess.Counts().Edited > 0
			m.app.Tracking.Discard(m.sess)
			return m, tea.Quit
		}
		if m.loading || m.saving {
			return m, nil
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *trackerModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.sess.Rows()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if m.cursor < len(rows) {
			m.sess.Toggle(rows[m.cursor].Instance.ID)
			m.status = ""
		}
	case key.Matches(msg, m.keys.Undo):
		m.app.Tracking.Discard(m.sess)
		m.status = "Edits discarded."
	case key.Matches(msg, m.keys.Save):
		m.err = nil
		m.status = ""
		m.saving = true
		return m, m.save()
	case key.Matches(msg, m.keys.Reload):
		m.loading = true
		m.status = ""
		return m, m.load()
	}
	return m, nil
}

func (m *trackerModel) clampCursor() {
	n := len(m.sess.Rows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *trackerModel) View() string {
	var b strings.Builder
	if a, ok := m.sess.Assignment(); ok {
		b.WriteString(formatter.FormatAssignmentHeader(a) + "\n")
		b.WriteString(formatter.FormatInstanceRows(m.sess.Rows(), m.cursor, m.app.now()))
		b.WriteString("\n" + formatter.FormatCounts(m.sess.Counts()))
	}

	switch {
	case m.loading:
		b.WriteString(formatter.Dim("Loading instances…") + "\n")
	case m.saving:
		b.WriteString(formatter.Dim("Saving…") + "\n")
	}
	if m.status != "" {
		b.WriteString(formatter.StyleGreen.Render(m.status) + "\n")
	}
	if m.err != nil {
		b.WriteString(formatter.StyleRed.Render("✖ "+m.err.Error()) + "\n")
	}

	b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{
		m.keys.Up, m.keys.Down, m.keys.Toggle, m.keys.Save, m.keys.Undo, m.keys.Reload, m.keys.Quit,
	}))
	return b.String()
}
