// Package form implements the interactive image submission form.
// The session is only mutated from Update; requests run in tea.Cmds and come
// back as settledMsg.
package form

import (
	"context"
	"os"

	"leafcheck/cmd/leafcheck/ui"
	"leafcheck/internal/config"
	"leafcheck/internal/session"
	"leafcheck/internal/transport"
	"leafcheck/internal/verdict"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

// Labels shown on the submit control and the blocking notice.
const (
	LabelSubmit     = "Upload & Check"
	LabelSubmitting = "Checking..."
	MsgMissingInput = "Please upload an image!"
	Title           = "Leaf Freshness Check"
)

const defaultWrap = 80

// viewMode selects what the form is showing.
type viewMode int

const (
	formView viewMode = iota
	pickerView
)

// =============================================================================
// MESSAGES
// =============================================================================

// settledMsg carries a finished request back into the Update loop.
type settledMsg struct {
	ticket  session.Ticket
	outcome verdict.Outcome
}

// fileLoadedMsg carries the bytes of a picked file.
type fileLoadedMsg struct {
	path string
	file transport.File
	err  error
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the form.
type Model struct {
	ctx     context.Context
	ctrl    *session.Controller
	session *session.Session

	picker   filepicker.Model
	spinner  spinner.Model
	styles   ui.Styles
	renderer *glamour.TermRenderer
	cache    *ui.RenderCache
	pickCfg  config.PickerConfig

	mode     viewMode
	notice   string
	status   string
	endpoint string

	width  int
	height int
}

// Options configures a new Model.
type Options struct {
	Config     *config.Config
	Classifier session.Classifier
	Ordering   session.Ordering
	Endpoint   string
}

// New builds the form. ctx bounds every request the form issues.
func New(ctx context.Context, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	s := session.New(opts.Ordering)
	styles := ui.NewStyles(ui.ThemeFor(cfg.UI.Theme))

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	m := Model{
		ctx:      ctx,
		ctrl:     session.NewController(s, opts.Classifier),
		session:  s,
		picker:   newPicker(cfg.Picker),
		spinner:  sp,
		styles:   styles,
		cache:    ui.NewRenderCache(32),
		pickCfg:  cfg.Picker,
		endpoint: opts.Endpoint,
		width:    defaultWrap,
	}
	if cfg.UI.Markdown {
		m.renderer = newRenderer(styles.Theme, defaultWrap)
	}
	return m
}

func newPicker(cfg config.PickerConfig) filepicker.Model {
	fp := filepicker.New()
	fp.AllowedTypes = cfg.AllowedTypes
	fp.ShowHidden = cfg.ShowHidden
	fp.CurrentDirectory = cfg.StartDir
	if fp.CurrentDirectory == "" {
		if wd, err := os.Getwd(); err == nil {
			fp.CurrentDirectory = wd
		}
	}
	return fp
}

// newRenderer uses a fixed style so rendering never queries the terminal.
func newRenderer(theme ui.Theme, width int) *glamour.TermRenderer {
	style := "light"
	if theme.IsDark {
		style = "dark"
	}
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// Session exposes the form's session.
func (m Model) Session() *session.Session {
	return m.session
}

// Init starts nothing until the user acts.
func (m Model) Init() tea.Cmd {
	return nil
}
