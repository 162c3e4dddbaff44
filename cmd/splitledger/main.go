package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mmynk/splitledger/internal/cli"
	"github.com/mmynk/splitledger/pkg/logging"
)

func main() {
	logging.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		formatter := &cli.OutputFormatter{
			Format:    formatFlag(cmd.PersistentFlags().Lookup("format").Value.String()),
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
		}
		formatter.Error(err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}

// formatFlag falls back to text when the flag itself was invalid.
func formatFlag(f string) string {
	if f == "json" {
		return f
	}
	return "text"
}
