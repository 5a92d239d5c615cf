package form

import (
	"context"
	"sync/atomic"

	"leafcheck/internal/config"
	"leafcheck/internal/session"
	"leafcheck/internal/transport"
	"leafcheck/internal/verdict"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// MOCK CLASSIFIER
// =============================================================================

// MockClassifier answers every request with the same body or error.
type MockClassifier struct {
	body  string
	err   error
	calls atomic.Int32
}

func (c *MockClassifier) Classify(ctx context.Context, f transport.File) (any, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return verdict.Decode([]byte(c.body))
}

// Calls returns how many requests were sent.
func (c *MockClassifier) Calls() int {
	return int(c.calls.Load())
}

// =============================================================================
// TEST MODEL
// =============================================================================

// TestModelOption customizes NewTestModel.
type TestModelOption func(*testModelConfig)

type testModelConfig struct {
	cfg        *config.Config
	classifier session.Classifier
	ordering   session.Ordering
}

// WithClassifier replaces the default classifier.
func WithClassifier(c session.Classifier) TestModelOption {
	return func(tc *testModelConfig) { tc.classifier = c }
}

// WithMarkdown enables the glamour result panel.
func WithMarkdown() TestModelOption {
	return func(tc *testModelConfig) { tc.cfg.UI.Markdown = true }
}

// WithOrdering sets the session ordering policy.
func WithOrdering(o session.Ordering) TestModelOption {
	return func(tc *testModelConfig) { tc.ordering = o }
}

// NewTestModel builds a form with a light theme and a classifier that
// reports a fresh leaf.
func NewTestModel(opts ...TestModelOption) Model {
	tc := &testModelConfig{
		cfg:        config.DefaultConfig(),
		classifier: &MockClassifier{body: freshBody},
	}
	tc.cfg.UI.Theme = "light"
	for _, opt := range opts {
		opt(tc)
	}

	return New(context.Background(), Options{
		Config:     tc.cfg,
		Classifier: tc.classifier,
		Ordering:   tc.ordering,
		Endpoint:   config.DefaultEndpoint,
	})
}

const (
	freshBody = `{"success":true,"result":{"ok":true,"fresh":true,"proba":0.87,
		"features":{"gcv":1.2,"area":340.5,"aspect_ratio":1.1,"roundness":0.9}}}`
	rejectBody = `{"success":true,"result":{"ok":false,"reason":"no leaf found"}}`
)

func testFile() transport.File {
	return transport.File{Name: "spinach.jpg", MediaType: "image/jpeg", Data: []byte("jpeg")}
}

// update feeds msg to m and returns the concrete model.
func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// runCmd executes cmd synchronously, flattening batches.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// settle runs cmd and feeds every settledMsg it produced back into m.
func settle(m Model, cmd tea.Cmd) Model {
	for _, msg := range runCmd(cmd) {
		if s, ok := msg.(settledMsg); ok {
			m, _ = update(m, s)
		}
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}
