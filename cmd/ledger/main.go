package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/vamo-hq/ledgerx/app/ledger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := ledger.Initialize(ctx)

	serverErr := ledger.NewServer(app)
	if serverErr != nil {
		app.Logger.Fatal("Unable to initialize server")
	}

	app.Start(ctx)
}
