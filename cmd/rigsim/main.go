package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"rigsim/internal/observability"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		observability.L().Debug("command failed", zap.Error(err))
	}
	observability.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
