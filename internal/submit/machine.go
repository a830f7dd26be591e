package submit

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"transcreva/internal/domain"
)

// ErrRunInProgress is returned when an action requires waiting state.
var ErrRunInProgress = errors.New("submission already in progress")

// ErrNoVideoSelected is returned when submit happens without a selected video.
var ErrNoVideoSelected = errors.New("no video selected")

// Manager tracks the single allowed submission and its transitions.
type Manager struct {
	mu      sync.RWMutex
	current domain.Submission
}

// NewManager creates a manager in waiting state.
func NewManager() *Manager {
	return &Manager{
		current: domain.Submission{
			Status: domain.StatusWaiting,
		},
	}
}

// SelectVideo replaces the selected video wholesale. Only allowed while
// waiting; selection during a run is rejected, not queued.
func (m *Manager) SelectVideo(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Status != domain.StatusWaiting {
		return ErrRunInProgress
	}

	m.current = domain.Submission{
		VideoPath: path,
		VideoName: filepath.Base(path),
		Status:    domain.StatusWaiting,
	}
	return nil
}

// Begin starts a run: stamps identity and prompt, moves to converting.
// The prompt text is captured here, once, and never re-read.
func (m *Manager) Begin(id, prompt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Status != domain.StatusWaiting {
		return ErrRunInProgress
	}
	if m.current.VideoPath == "" {
		return ErrNoVideoSelected
	}

	m.current.ID = id
	m.current.Prompt = prompt
	m.current.Status = domain.StatusConverting
	return nil
}

// Transition validates and applies state transitions for the current run.
// The only backward edge is active -> waiting, which preserves the selected
// video so the user can retry after a failure.
func (m *Manager) Transition(status domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.ID == "" && status != domain.StatusWaiting {
		return fmt.Errorf("cannot transition without an active submission")
	}
	if status == m.current.Status {
		return nil
	}
	if !isValidTransition(m.current.Status, status) {
		return fmt.Errorf("invalid transition: %s -> %s", m.current.Status, status)
	}

	if status == domain.StatusWaiting {
		m.current = domain.Submission{
			VideoPath: m.current.VideoPath,
			VideoName: m.current.VideoName,
			Status:    domain.StatusWaiting,
		}
		return nil
	}

	m.current.Status = status
	return nil
}

// Complete moves a generating run to success and records the media identifier.
func (m *Manager) Complete(videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Status != domain.StatusGenerating {
		return fmt.Errorf("invalid transition: %s -> %s", m.current.Status, domain.StatusSuccess)
	}

	m.current.Status = domain.StatusSuccess
	m.current.VideoID = videoID
	return nil
}

// Current returns a snapshot of the current submission.
func (m *Manager) Current() domain.Submission {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// IsRunning reports whether a submission is actively progressing.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return isRunning(m.current.Status)
}

// Reset clears the submission entirely and returns to waiting. Success is
// terminal for a run; this is the explicit re-initialization that allows a
// new one.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = domain.Submission{Status: domain.StatusWaiting}
}

// isRunning checks if a status represents an in-flight stage.
func isRunning(status domain.Status) bool {
	switch status {
	case domain.StatusConverting, domain.StatusUploading, domain.StatusGenerating:
		return true
	default:
		return false
	}
}

// isValidTransition enforces the allowed submission state machine edges.
func isValidTransition(from, to domain.Status) bool {
	switch from {
	case domain.StatusWaiting:
		return to == domain.StatusConverting
	case domain.StatusConverting:
		return to == domain.StatusUploading || to == domain.StatusWaiting
	case domain.StatusUploading:
		return to == domain.StatusGenerating || to == domain.StatusWaiting
	case domain.StatusGenerating:
		return to == domain.StatusSuccess || to == domain.StatusWaiting
	case domain.StatusSuccess:
		return to == domain.StatusWaiting
	default:
		return false
	}
}
