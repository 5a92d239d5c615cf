package form

import (
	"fmt"
	"strings"

	"leafcheck/cmd/leafcheck/ui"
	"leafcheck/internal/logging"
	"leafcheck/internal/session"
	"leafcheck/internal/verdict"

	"github.com/charmbracelet/lipgloss"
)

// View renders the form.
func (m Model) View() string {
	if m.notice != "" {
		box := m.styles.Notice.Render(m.notice)
		hint := m.styles.Muted.Render("press any key to continue")
		return lipgloss.JoinVertical(lipgloss.Left, box, hint)
	}

	if m.mode == pickerView {
		title := m.styles.Title.Render("Select an image")
		parts := []string{title, m.picker.View()}
		if m.status != "" {
			parts = append(parts, m.styles.Warning.Render(m.status))
		}
		parts = append(parts, m.styles.Muted.Render("enter select • esc back"))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	parts := []string{
		m.styles.Title.Render(Title),
		m.renderInput(),
		"",
		m.renderButton(),
	}
	if m.status != "" {
		parts = append(parts, m.styles.Warning.Render(m.status))
	}
	if result := m.renderResult(); result != "" {
		parts = append(parts, m.styles.RenderDivider(m.dividerWidth()), result)
	}
	parts = append(parts, "", m.styles.Muted.Render("o choose file • s upload & check • q quit"))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderInput() string {
	f, ok := m.session.Input()
	if !ok {
		return m.styles.Muted.Render("No file selected")
	}
	return m.styles.Body.Render("File: ") + m.styles.Bold.Render(f.Name) +
		m.styles.Muted.Render(fmt.Sprintf(" (%s, %d bytes)", f.MediaType, len(f.Data)))
}

// dividerWidth keeps the divider inside the terminal and no wider than the wrap.
func (m Model) dividerWidth() int {
	if m.width > 0 && m.width < defaultWrap {
		return m.width
	}
	return defaultWrap
}

// renderButton shows the submit control; it is disabled while a request runs.
func (m Model) renderButton() string {
	if m.session.State() == session.Submitting {
		return m.spinner.View() + " " + m.styles.ButtonDisabled.Render(LabelSubmitting)
	}
	return m.styles.Button.Render(LabelSubmit)
}

// renderResult draws the displayed outcome, or nothing when there is none.
// A failing renderer degrades to the generic error line.
func (m Model) renderResult() (out string) {
	o := m.session.Outcome()
	v := verdict.Render(o)
	if v.Tone == verdict.ToneNone {
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Get(logging.CategoryUI).Errorw("result render panicked", "panic", fmt.Sprint(r))
			out = m.styles.Error.Render(verdict.MsgSomethingWrong)
		}
	}()

	// Errors keep the error style even when markdown is on.
	if v.Tone == verdict.ToneError {
		return m.styles.Panel.Render(m.styles.Error.Render(v.Message))
	}

	if m.renderer != nil {
		src := v.Markdown()
		key := ui.ComputeKey(src, m.width, m.styles.Theme.IsDark)
		md, err := m.cache.GetOrCompute(key, func() (string, error) {
			rendered, err := m.renderer.Render(src)
			return strings.TrimRight(rendered, "\n"), err
		})
		if err == nil {
			return md
		}
		logging.Get(logging.CategoryUI).Warnw("markdown render failed", "error", err)
	}

	lines := v.Lines()
	verdictStyle := m.styles.Warning
	if c, ok := o.(verdict.Classified); ok && c.IsPositive {
		verdictStyle = m.styles.Success
	}
	lines[0] = verdictStyle.Render(lines[0])
	for i := 1; i < len(lines); i++ {
		lines[i] = m.styles.Body.Render(lines[i])
	}
	return m.styles.Panel.Render(strings.Join(lines, "\n"))
}
