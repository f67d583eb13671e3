package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hello-world-aws/internal/render"
	"hello-world-aws/internal/server"
)

type serveCommand struct {
	cmd  *cobra.Command
	addr string
}

func newServeCommand() *serveCommand {
	serveCommand := &serveCommand{}
	serveCommand.cmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the page over HTTP for local previews",
		Args:  cobra.NoArgs,
		RunE:  serveCommand.run,
	}

	serveCommand.cmd.Flags().StringVar(&serveCommand.addr, "addr", getEnv("HTTP_ADDR", server.DefaultAddr), "Address to listen on")

	return serveCommand
}

func (c *serveCommand) run(cmd *cobra.Command, args []string) error {
	s := server.New(render.New(), slog.Default())
	if err := s.Start(c.addr); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	<-ctx.Done()

	return s.Shutdown(context.WithoutCancel(ctx))
}
