package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"leafcheck/internal/session"
	"leafcheck/internal/transport"
	"leafcheck/internal/verdict"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	checkMarkdown    bool
	checkConcurrency int
)

var checkCmd = &cobra.Command{
	Use:   "check FILE...",
	Short: "Classify one or more images without the interactive form",
	Long: `Submits each file to the classification service and prints its result.
Each file gets its own session; requests run concurrently.

Exits non-zero when any file could not be read or a request failed.
A rejected image (no leaf detected) is a result, not a failure.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

// checkResult is the settled state of one file.
type checkResult struct {
	path    string
	outcome verdict.Outcome
	err     error
}

func (r checkResult) failed() bool {
	if r.err != nil {
		return true
	}
	_, isTransport := r.outcome.(verdict.TransportError)
	return isTransport
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ord, err := session.ParseOrdering(cfg.Submission.Ordering)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := transport.NewClient(cfg.Endpoint, cfg.GetTimeout())
	results := make([]checkResult, len(args))

	var g errgroup.Group
	limit := checkConcurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)
	for i, path := range args {
		g.Go(func() error {
			results[i] = checkFile(ctx, client, ord, path)
			return nil
		})
	}
	_ = g.Wait()

	out := cmd.OutOrStdout()
	failures := 0
	for _, r := range results {
		if r.failed() {
			failures++
		}
		if err := printResult(out, r, checkMarkdown); err != nil {
			return err
		}
	}

	if logger != nil {
		logger.Info("check finished", zap.Int("files", len(results)), zap.Int("failed", failures))
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d files failed", failures, len(results))
	}
	return nil
}

// checkFile runs one complete submission for path in a fresh session.
func checkFile(ctx context.Context, c session.Classifier, ord session.Ordering, path string) checkResult {
	f, err := transport.ReadFile(path)
	if err != nil {
		return checkResult{path: path, err: err}
	}

	s := session.New(ord)
	s.SelectInput(f)
	if _, err := session.NewController(s, c).Submit(ctx); err != nil {
		return checkResult{path: path, err: err}
	}
	return checkResult{path: path, outcome: s.Outcome()}
}

func printResult(w io.Writer, r checkResult, markdown bool) error {
	if r.err != nil {
		_, err := fmt.Fprintf(w, "%s: %v\n", r.path, r.err)
		return err
	}

	view := verdict.Render(r.outcome)
	if markdown {
		md := fmt.Sprintf("# %s\n\n%s", r.path, view.Markdown())
		rendered, err := glamour.Render(md, "notty")
		if err != nil {
			return fmt.Errorf("failed to render markdown: %w", err)
		}
		_, err = io.WriteString(w, rendered)
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:\n", r.path)
	for _, line := range view.Lines() {
		fmt.Fprintf(&sb, "  %s\n", line)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
