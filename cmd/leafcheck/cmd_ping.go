package main

import (
	"context"
	"fmt"
	"time"

	"leafcheck/internal/transport"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// pingTimeout bounds ping when no client timeout is configured.
const pingTimeout = 10 * time.Second

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the classification service is up",
	RunE:  runPing,
}

func runPing(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	timeout := cfg.GetTimeout()
	if timeout == 0 {
		timeout = pingTimeout
	}
	ctx, cancel := context.WithTimeout(commandContext(cmd), timeout)
	defer cancel()

	client := transport.NewClient(cfg.Endpoint, cfg.GetTimeout())
	msg, err := client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("service at %s is not reachable: %w", client.Endpoint(), err)
	}

	if logger != nil {
		logger.Debug("ping ok", zap.String("endpoint", client.Endpoint()))
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}
