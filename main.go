package main

import (
	"embed"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"transcreva/internal/bootstrap"
)

//go:embed frontend/index.html
var appAssets embed.FS

func main() {
	// Optional; the app runs with defaults when no .env file exists.
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	app, err := bootstrap.NewWithAssets(appAssets, logger)
	if err != nil {
		log.Fatalf("bootstrap app: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("run app: %v", err)
	}
}
