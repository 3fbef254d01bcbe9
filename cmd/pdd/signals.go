package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// stopSignals end a transfer early. The copy loop sees the cancelled
// context between blocks and finishes as if the input had ended.
var stopSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGHUP,
	syscall.SIGPIPE,
}

func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, stopSignals...)
}
