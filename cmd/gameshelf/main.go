package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/avolkov/gameshelf/internal/client/cli"
	"github.com/avolkov/gameshelf/internal/client/config"
)

func main() {
	cfg := config.LoadConfig()

	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app.Run(ctx)
}
