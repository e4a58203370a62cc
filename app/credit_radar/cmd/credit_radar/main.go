package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/iWorld-y/credit_radar/app/credit_radar/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCmd().ExecuteContext(ctx)
	stop()
	os.Exit(cli.ExitCode(err))
}
