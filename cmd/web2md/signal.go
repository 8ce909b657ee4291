package main

import (
	"context"
	"os/signal"
)

// notifyContext cancels the returned context on the first shutdown signal.
// In-flight runs see the cancellation and release their browser sessions.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}
