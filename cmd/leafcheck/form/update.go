package form

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"leafcheck/internal/logging"
	"leafcheck/internal/session"
	"leafcheck/internal/transport"
	"leafcheck/internal/verdict"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.mode == pickerView {
			return m.updatePicker(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		return m.resize(msg.Width, msg.Height), nil

	case fileLoadedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Could not read %s: %v", filepath.Base(msg.path), msg.err)
			logging.Get(logging.CategoryUI).Warnw("file read failed", "path", msg.path, "error", msg.err)
			return m, nil
		}
		m.session.SelectInput(msg.file)
		m.status = ""
		logging.Get(logging.CategoryUI).Debugw("input selected", "file", msg.file.Name,
			"media_type", msg.file.MediaType, "bytes", len(msg.file.Data))
		return m, nil

	case settledMsg:
		shown := m.session.Settle(msg.ticket, msg.outcome)
		logging.Get(logging.CategoryUI).Infow("submission settled", "request_id", msg.ticket.ID,
			"outcome", verdict.Kind(msg.outcome), "displayed", shown,
			"ordering", m.session.Ordering(), "duration", time.Since(msg.ticket.IssuedAt))
		return m, nil

	case spinner.TickMsg:
		if m.session.State() != session.Submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Directory listings and other picker-internal messages.
	if m.mode == pickerView {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The notice blocks the form until acknowledged.
	if m.notice != "" {
		m.notice = ""
		return m, nil
	}

	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "o":
		m.mode = pickerView
		m.status = ""
		m.picker = newPicker(m.pickCfg)
		m.picker.Height = m.pickerHeight()
		return m, m.picker.Init()
	case "s", "enter", "ctrl+s":
		return m.submit()
	}
	return m, nil
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.mode = formView
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if didSelect, path := m.picker.DidSelectFile(msg); didSelect {
		m.mode = formView
		return m, loadFileCmd(path)
	}
	if didSelect, path := m.picker.DidSelectDisabledFile(msg); didSelect {
		m.status = fmt.Sprintf("%s is not an allowed image type", filepath.Base(path))
		return m, cmd
	}
	return m, cmd
}

// submit starts a request unless one is already running.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.session.State() == session.Submitting {
		return m, nil
	}

	t, err := m.session.Begin()
	if errors.Is(err, session.ErrMissingInput) {
		m.notice = MsgMissingInput
		logging.Get(logging.CategoryUI).Infow("submission refused", "error", err)
		return m, nil
	}
	if err != nil {
		m.status = err.Error()
		return m, nil
	}

	logging.Get(logging.CategoryUI).Debugw("submission issued", "request_id", t.ID, "endpoint", m.endpoint)
	return m, tea.Batch(m.spinner.Tick, m.dispatchCmd(t))
}

// dispatchCmd runs the request off the Update loop. Dispatch always returns
// an outcome, so every issued ticket comes back as a settledMsg.
func (m Model) dispatchCmd(t session.Ticket) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return settledMsg{ticket: t, outcome: ctrl.Dispatch(ctx, t)}
	}
}

func loadFileCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := transport.ReadFile(path)
		return fileLoadedMsg{path: path, file: f, err: err}
	}
}

func (m Model) resize(width, height int) Model {
	if width <= 0 || height <= 0 {
		return m
	}
	widthChanged := width != m.width
	m.width = width
	m.height = height
	m.picker.Height = m.pickerHeight()
	if m.renderer != nil && widthChanged {
		m.renderer = newRenderer(m.styles.Theme, width-6)
		logging.Get(logging.CategoryUI).Debugw("render cache cleared", "width", width,
			"dropped", m.cache.Len())
		m.cache.Clear()
	}
	return m
}

func (m Model) pickerHeight() int {
	if m.height == 0 {
		return 10
	}
	if h := m.height - 6; h > 3 {
		return h
	}
	return 3
}
