package config

import (
	"os"

	"transcreva/internal/domain"
)

// DefaultBaseURL points at a local backend instance during development.
const DefaultBaseURL = "http://localhost:3333"

// DefaultSettings returns baseline configuration for first launch.
// UPLOAD_API_URL overrides the backend base URL, typically via a .env file.
func DefaultSettings() domain.Settings {
	baseURL := os.Getenv("UPLOAD_API_URL")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return domain.Settings{
		APIBaseURL: baseURL,
		FFmpegPath: "ffmpeg",
	}
}
