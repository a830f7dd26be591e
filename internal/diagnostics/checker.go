package diagnostics

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"transcreva/internal/domain"
)

const probeTimeout = 5 * time.Second

// Checker validates external tools and the backend connection.
type Checker struct {
	lookPath   func(string) (string, error)
	probe      func(baseURL string) error
	createTemp func(dir, pattern string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS and network dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		probe:      probeBackend,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkFFmpeg(settings.FFmpegPath),
		c.checkBackend(settings.APIBaseURL),
		c.checkWorkspace(),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkFFmpeg verifies the configured ffmpeg binary can be acquired.
func (c *Checker) checkFFmpeg(ffmpegPath string) domain.DiagnosticItem {
	name := strings.TrimSpace(ffmpegPath)
	if name == "" {
		name = "ffmpeg"
	}

	path, err := c.lookPath(name)
	if err != nil {
		return domain.DiagnosticItem{
			ID:      "tool_ffmpeg",
			Name:    "ffmpeg",
			Status:  domain.DiagnosticStatusFail,
			Message: fmt.Sprintf("Tool not found in PATH: %s", name),
			Hint:    "Install ffmpeg and ensure the binary is available on PATH before submitting a video.",
		}
	}

	return domain.DiagnosticItem{
		ID:      "tool_ffmpeg",
		Name:    "ffmpeg",
		Status:  domain.DiagnosticStatusPass,
		Message: fmt.Sprintf("Found at %s", path),
	}
}

// checkBackend verifies the transcription backend answers at the base URL.
func (c *Checker) checkBackend(baseURL string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "api_base_url",
		Name: "Backend",
	}

	if strings.TrimSpace(baseURL) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Backend base URL is empty."
		item.Hint = "Set the backend base URL in settings or via UPLOAD_API_URL."
		return item
	}

	if err := c.probe(baseURL); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Backend is not reachable: %s", baseURL)
		item.Hint = "Check the base URL and that the backend is running."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Backend answered at %s", baseURL)
	return item
}

// checkWorkspace verifies temporary conversion workspaces can be created.
func (c *Checker) checkWorkspace() domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "workspace",
		Name: "Conversion workspace",
	}

	tmpFile, err := c.createTemp("", "transcreva-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Cannot create files in the temporary directory."
		item.Hint = "Free disk space or fix permissions on the system temp directory."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = "Temporary directory is writable."
	return item
}

// probeBackend issues a short prompt-list request to test connectivity.
// Any HTTP answer counts as reachable; only transport failures do not.
func probeBackend(baseURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	url := strings.TrimRight(baseURL, "/") + "/prompts"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	probe func(baseURL string) error,
	createTemp func(dir, pattern string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		probe:      probe,
		createTemp: createTemp,
		remove:     remove,
	}
}
