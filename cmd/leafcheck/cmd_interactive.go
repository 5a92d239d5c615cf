package main

import (
	"context"
	"fmt"
	"path/filepath"

	"leafcheck/cmd/leafcheck/form"
	"leafcheck/internal/config"
	"leafcheck/internal/logging"
	"leafcheck/internal/session"
	"leafcheck/internal/transport"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// runInteractive starts the form
func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := startLogging(cmd, cfg); err != nil {
		return err
	}
	defer logging.Sync()

	ord, err := session.ParseOrdering(cfg.Submission.Ordering)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	client := transport.NewClient(cfg.Endpoint, cfg.GetTimeout())
	m := form.New(ctx, form.Options{
		Config:     cfg,
		Classifier: client,
		Ordering:   ord,
		Endpoint:   client.Endpoint(),
	})

	logging.Get(logging.CategoryBoot).Infow("form started", "endpoint", client.Endpoint(),
		"ordering", ord, "logs_dir", logging.LogsDir())

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

// startLogging opens the file logger next to the config file. With --verbose
// it forces debug logging and says where the log goes before the form takes
// over the terminal.
func startLogging(cmd *cobra.Command, cfg *config.Config) error {
	if verbose {
		cfg.Logging.DebugMode = true
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(filepath.Dir(resolvedConfigPath()), cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	if dir := logging.LogsDir(); verbose && dir != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "leafcheck: debug logs in %s\n", dir)
	}
	return nil
}
