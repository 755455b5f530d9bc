package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"streamcast/internal/app"
	"streamcast/internal/infrastructure"
)

func main() {
	configPath := flag.String("config", "", "path to streamcast.yaml (defaults to the usual locations)")
	flag.Parse()

	application, err := app.NewApplication(context.Background(), *configPath)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if err := application.Run(); err != nil {
		application.Logger.Error("Application error", slog.String("error", err.Error()))
		infrastructure.CloseLogFile()
		os.Exit(1)
	}
}
