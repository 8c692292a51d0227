package main

import (
	"context"
	"log"
	"os"

	"github.com/avolkovs/runbase/internal/logging"
	"github.com/avolkovs/runbase/internal/server"
	"github.com/avolkovs/runbase/internal/server/config"
)

func main() {

	ctx := context.Background()

	logger := logging.NewJSONLogger(os.Stdout, os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig(ctx, logger)
	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] == "createsuperuser" {
		email := os.Getenv("SUPERUSER_EMAIL")
		password := os.Getenv("SUPERUSER_PASSWORD")
		if email == "" || password == "" {
			log.Printf("SUPERUSER_EMAIL and SUPERUSER_PASSWORD must be set")
			os.Exit(1)
		}
		if err := app.CreateSuperuser(ctx, email, password); err != nil {
			log.Printf("%v", err)
			os.Exit(1)
		}
		return
	}

	app.Run(ctx)

}
