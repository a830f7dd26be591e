package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// ErrUnavailable reports that the ffmpeg binary could not be acquired.
// Callers must treat it the same as a failed conversion.
var ErrUnavailable = errors.New("ffmpeg is not available")

// Audio is the compressed audio artifact produced from one video.
type Audio struct {
	Path     string
	Name     string
	MIMEType string

	workspace string
}

// Cleanup removes the per-run workspace holding the audio artifact.
func (a *Audio) Cleanup() error {
	if a == nil || a.workspace == "" {
		return nil
	}

	if err := os.RemoveAll(a.workspace); err != nil {
		return err
	}
	a.workspace = ""
	return nil
}

// CommandLog captures one ffmpeg invocation result.
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// ConvertError is a conversion failure with optional command context.
type ConvertError struct {
	Message    string     `json:"message"`
	CommandLog CommandLog `json:"commandLog"`
	Err        error      `json:"-"`
}

// Error formats conversion failures for logs.
func (e *ConvertError) Error() string {
	if e == nil {
		return ""
	}
	if e.CommandLog.Command == "" {
		return e.Message
	}

	return fmt.Sprintf(
		"%s (cmd=%s exit=%d)",
		e.Message,
		e.CommandLog.Command,
		e.CommandLog.ExitCode,
	)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *ConvertError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// Converter extracts a video's audio track as a low-bitrate MP3 via ffmpeg.
// Each run gets its own workspace directory, so overlapping conversions never
// share output files.
type Converter struct {
	ffmpegPath string
	runner     commandRunner
	lookPath   func(string) (string, error)
	mkdirTemp  func(dir, pattern string) (string, error)
	removeAll  func(path string) error
	stat       func(name string) (os.FileInfo, error)
	log        zerolog.Logger
}

// NewConverter constructs the production converter with OS dependencies.
func NewConverter(ffmpegPath string, log zerolog.Logger) *Converter {
	if strings.TrimSpace(ffmpegPath) == "" {
		ffmpegPath = "ffmpeg"
	}

	return &Converter{
		ffmpegPath: ffmpegPath,
		runner:     &execRunner{},
		lookPath:   exec.LookPath,
		mkdirTemp:  os.MkdirTemp,
		removeAll:  os.RemoveAll,
		stat:       os.Stat,
		log:        log,
	}
}

// Convert re-encodes the video's audio stream as 20 kbit/s MP3 and returns
// the artifact. The bitrate is fixed low on purpose: the file exists only to
// be uploaded for speech transcription. Command output is observable through
// onLog and debug logs only, never in user-facing text.
func (c *Converter) Convert(ctx context.Context, videoPath string, onLog func(CommandLog)) (Audio, error) {
	if strings.TrimSpace(videoPath) == "" {
		return Audio{}, &ConvertError{Message: "input video path is required"}
	}

	if _, err := c.stat(videoPath); err != nil {
		return Audio{}, &ConvertError{
			Message: fmt.Sprintf("cannot access input video: %s", videoPath),
			Err:     err,
		}
	}

	if _, err := c.lookPath(c.ffmpegPath); err != nil {
		return Audio{}, fmt.Errorf("%w: %s", ErrUnavailable, c.ffmpegPath)
	}

	workspace, err := c.mkdirTemp("", "transcreva-*")
	if err != nil {
		return Audio{}, &ConvertError{
			Message: "failed to create conversion workspace",
			Err:     err,
		}
	}

	c.log.Debug().Str("video", videoPath).Msg("convert started")

	outPath := filepath.Join(workspace, "output.mp3")
	args := buildFFmpegArgs(videoPath, outPath)

	cmdResult, runErr := c.runner.Run(ctx, c.ffmpegPath, args...)
	log := CommandLog{
		Command:  c.ffmpegPath,
		Args:     args,
		ExitCode: cmdResult.ExitCode,
		Stdout:   cmdResult.Stdout,
		Stderr:   cmdResult.Stderr,
	}
	c.emitLog(onLog, log)
	if runErr != nil {
		_ = c.removeAll(workspace)
		return Audio{}, &ConvertError{
			Message:    "ffmpeg audio conversion failed",
			CommandLog: log,
			Err:        runErr,
		}
	}

	if _, err := c.stat(outPath); err != nil {
		_ = c.removeAll(workspace)
		return Audio{}, &ConvertError{
			Message:    "ffmpeg completed but output file is missing",
			CommandLog: log,
			Err:        err,
		}
	}

	c.log.Debug().Str("audio", outPath).Msg("convert finished")

	return Audio{
		Path:      outPath,
		Name:      "audio.mp3",
		MIMEType:  "audio/mpeg",
		workspace: workspace,
	}, nil
}

// emitLog forwards the command log to debug output and the optional callback.
func (c *Converter) emitLog(onLog func(CommandLog), log CommandLog) {
	c.log.Debug().
		Str("command", log.Command).
		Int("exitCode", log.ExitCode).
		Str("stderr", log.Stderr).
		Msg("ffmpeg run")

	if onLog != nil {
		onLog(log)
	}
}

// buildFFmpegArgs builds the fixed conversion command: audio stream only,
// MP3 at 20 kbit/s.
func buildFFmpegArgs(inputPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-map", "0:a",
		"-b:a", "20k",
		"-acodec", "libmp3lame",
		outPath,
	}
}

// NewConverterForTests constructs a converter with injectable dependencies.
func NewConverterForTests(
	ffmpegPath string,
	runner commandRunner,
	lookPath func(string) (string, error),
	mkdirTemp func(dir, pattern string) (string, error),
	removeAll func(path string) error,
	stat func(name string) (os.FileInfo, error),
) *Converter {
	return &Converter{
		ffmpegPath: ffmpegPath,
		runner:     runner,
		lookPath:   lookPath,
		mkdirTemp:  mkdirTemp,
		removeAll:  removeAll,
		stat:       stat,
		log:        zerolog.Nop(),
	}
}
