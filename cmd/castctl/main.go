package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nkiryanov/castbook/cmd/castctl/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.NewRootCmd(os.Getenv).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
