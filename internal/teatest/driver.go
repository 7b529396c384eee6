// Package teatest drives bubbletea models synchronously in tests.
//
// A Driver stands in for tea.Program: it feeds messages straight into
// Update and runs the returned commands inline, so a test can press keys
// and inspect the view without goroutines or a terminal.
package teatest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// MaxDrainDepth bounds how many chained commands one Send may run.
const MaxDrainDepth = 100

// Commands that block longer than this are dropped. Backend calls against
// fakes and in-memory SQLite finish well inside it; cursor blink and
// tea.Tick commands (500ms and up) do not.
const cmdTimeout = 100 * time.Millisecond

// Driver runs a tea.Model without a program loop.
type Driver struct {
	T     *testing.T
	Model tea.Model

	// Quitting is set once a tea.QuitMsg has been produced.
	Quitting bool
}

// Option configures a Driver before the first message.
type Option func(*Driver)

// New wraps model. Call DrainInit to run its Init command.
func New(t *testing.T, model tea.Model, opts ...Option) *Driver {
	t.Helper()
	d := &Driver{T: t, Model: model}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WithSize delivers a WindowSizeMsg up front.
func WithSize(w, h int) Option {
	return func(d *Driver) {
		updated, _ := d.Model.Update(tea.WindowSizeMsg{Width: w, Height: h})
		d.Model = updated
	}
}

// DrainInit runs the model's Init command and everything it leads to.
func (d *Driver) DrainInit() {
	d.T.Helper()
	d.drain(d.Model.Init(), 0)
}

// Send feeds msg through Update and drains the resulting commands.
func (d *Driver) Send(msg tea.Msg) {
	d.T.Helper()
	if d.Quitting {
		return
	}
	updated, cmd := d.Model.Update(msg)
	d.Model = updated
	d.drain(cmd, 0)
}

// PressKey sends a single rune key.
func (d *Driver) PressKey(r rune) {
	d.T.Helper()
	d.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

// PressKeys sends each rune of s as its own key press.
func (d *Driver) PressKeys(s string) {
	d.T.Helper()
	for _, r := range s {
		d.PressKey(r)
	}
}

func (d *Driver) PressEnter() { d.T.Helper(); d.Send(tea.KeyMsg{Type: tea.KeyEnter}) }
func (d *Driver) PressEsc()   { d.T.Helper(); d.Send(tea.KeyMsg{Type: tea.KeyEsc}) }
func (d *Driver) PressSpace() { d.T.Helper(); d.Send(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}) }
func (d *Driver) PressUp()    { d.T.Helper(); d.Send(tea.KeyMsg{Type: tea.KeyUp}) }
func (d *Driver) PressDown()  { d.T.Helper(); d.Send(tea.KeyMsg{Type: tea.KeyDown}) }
func (d *Driver) PressCtrlC() { d.T.Helper(); d.Send(tea.KeyMsg{Type: tea.KeyCtrlC}) }

// View renders the current model.
func (d *Driver) View() string {
	return d.Model.View()
}

func (d *Driver) drain(cmd tea.Cmd, depth int) {
	d.T.Helper()
	if cmd == nil {
		return
	}
	if depth >= MaxDrainDepth {
		d.T.Logf("teatest: gave up after %d chained commands", MaxDrainDepth)
		return
	}

	msg := runWithTimeout(cmd)
	if msg == nil || isBlink(msg) {
		return
	}

	switch m := msg.(type) {
	case tea.BatchMsg:
		for _, sub := range m {
			d.drain(sub, depth+1)
		}
		return
	case tea.QuitMsg:
		d.Quitting = true
		updated, _ := d.Model.Update(m)
		d.Model = updated
		return
	}

	updated, next := d.Model.Update(msg)
	d.Model = updated
	d.drain(next, depth+1)
}

func runWithTimeout(cmd tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(cmdTimeout):
		return nil
	}
}

// Cursor blink message types are unexported in bubbles.
func isBlink(msg tea.Msg) bool {
	return strings.Contains(strings.ToLower(fmt.Sprintf("%T", msg)), "blink")
}
