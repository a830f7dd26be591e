package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	goruntime "runtime"
	"strings"
	"time"

	"transcreva/internal/config"
	"transcreva/internal/domain"
)

const installStepTimeout = 45 * time.Minute

// installPlan is one package manager with the steps to install ffmpeg
// through it. Plans are tried in order; the first whose manager exists on
// PATH and whose steps all succeed wins.
type installPlan struct {
	manager string
	steps   [][]string
}

// InstallOrFixDiagnostic applies a remediation for one failed diagnostic
// item and reruns the checks. Settings are only saved when the fix changed
// them.
func (a *App) InstallOrFixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	if a.Store == nil {
		return domain.DiagnosticReport{}, fmt.Errorf("settings store is not configured")
	}

	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	changed := false
	var fixErr error

	switch id {
	case "tool_ffmpeg":
		install := a.installFFmpeg
		if install == nil {
			install = installFFmpegForCurrentOS
		}
		fixErr = install()
	case "api_base_url":
		settings, changed = fixAPIBaseURL(settings)
	case "workspace":
		probe := a.probeWorkspace
		if probe == nil {
			probe = fixWorkspace
		}
		fixErr = probe()
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	if changed {
		if saveErr := a.Store.Save(settings); saveErr != nil {
			report := a.refreshDiagnosticsFromSettings(settings)
			return report, fmt.Errorf("save settings after fix: %w", saveErr)
		}
	}

	report := a.refreshDiagnosticsFromSettings(settings)
	return report, fixErr
}

func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(settings)
	}
	return a.Diagnostics
}

// fixAPIBaseURL resets an empty backend URL to the configured default.
func fixAPIBaseURL(settings domain.Settings) (domain.Settings, bool) {
	if strings.TrimSpace(settings.APIBaseURL) != "" {
		return settings, false
	}
	settings.APIBaseURL = config.DefaultSettings().APIBaseURL
	return settings, true
}

// fixWorkspace probes the temp directory used for conversion workspaces.
func fixWorkspace() error {
	dir, err := os.MkdirTemp("", "transcreva-*")
	if err != nil {
		return fmt.Errorf("temp directory is not writable: %w", err)
	}
	return os.RemoveAll(dir)
}

func installFFmpegForCurrentOS() error {
	if err := runFirstAvailablePlan(ffmpegInstallPlans()); err != nil {
		return fmt.Errorf("install ffmpeg: %w", err)
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("verify ffmpeg on PATH: %w", err)
	}
	return nil
}

// ffmpegInstallPlans lists the package managers worth trying on this OS.
func ffmpegInstallPlans() []installPlan {
	switch goruntime.GOOS {
	case "windows":
		return []installPlan{
			{"winget", [][]string{{"winget", "install", "--id", "Gyan.FFmpeg", "--exact", "--accept-source-agreements", "--accept-package-agreements"}}},
			{"choco", [][]string{{"choco", "install", "ffmpeg", "-y"}}},
			{"scoop", [][]string{{"scoop", "install", "ffmpeg"}}},
		}
	case "darwin":
		return []installPlan{
			{"brew", [][]string{{"brew", "install", "ffmpeg"}}},
		}
	default:
		return []installPlan{
			{"apt-get", [][]string{{"apt-get", "update"}, {"apt-get", "install", "-y", "ffmpeg"}}},
			{"dnf", [][]string{{"dnf", "install", "-y", "ffmpeg"}}},
			{"pacman", [][]string{{"pacman", "-Sy", "--noconfirm", "ffmpeg"}}},
			{"zypper", [][]string{{"zypper", "install", "-y", "ffmpeg"}}},
			{"brew", [][]string{{"brew", "install", "ffmpeg"}}},
		}
	}
}

func runFirstAvailablePlan(plans []installPlan) error {
	failures := make([]string, 0, len(plans))
	tried := false

	for _, plan := range plans {
		if !binaryOnPath(plan.manager) {
			continue
		}
		tried = true

		if err := runPlanSteps(plan.steps); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", plan.manager, err))
			continue
		}
		return nil
	}

	if !tried {
		return fmt.Errorf("no supported package manager found for %s", goruntime.GOOS)
	}
	return errors.New(strings.Join(failures, " | "))
}

func runPlanSteps(steps [][]string) error {
	for _, step := range steps {
		if err := runStepMaybeElevated(step); err != nil {
			return err
		}
	}
	return nil
}

// runStepMaybeElevated retries a system package manager step through pkexec
// or sudo on Linux when the plain invocation fails.
func runStepMaybeElevated(step []string) error {
	if len(step) == 0 {
		return fmt.Errorf("empty install step")
	}

	attempts := [][]string{step}
	if goruntime.GOOS == "linux" && needsElevation(step[0]) {
		if binaryOnPath("pkexec") {
			attempts = append(attempts, append([]string{"pkexec"}, step...))
		}
		if binaryOnPath("sudo") {
			attempts = append(attempts, append([]string{"sudo", "-n"}, step...))
		}
	}

	failures := make([]string, 0, len(attempts))
	for _, attempt := range attempts {
		if err := runInstallStep(attempt); err != nil {
			failures = append(failures, err.Error())
			continue
		}
		return nil
	}
	return errors.New(strings.Join(failures, " | "))
}

func runInstallStep(step []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), installStepTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, step[0], step[1:]...)
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	label := strings.Join(step, " ")
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s", label, installStepTimeout)
	}

	detail := strings.TrimSpace(string(output))
	if len(detail) > 500 {
		detail = detail[:500] + "..."
	}
	if detail == "" {
		return fmt.Errorf("%s failed: %w", label, err)
	}
	return fmt.Errorf("%s failed: %w (%s)", label, err, detail)
}

func needsElevation(manager string) bool {
	switch manager {
	case "apt-get", "dnf", "pacman", "zypper":
		return true
	default:
		return false
	}
}

func binaryOnPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
