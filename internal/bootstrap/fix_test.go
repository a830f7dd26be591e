package bootstrap

import (
	"os"
	"testing"

	"transcreva/internal/config"
	"transcreva/internal/diagnostics"
	"transcreva/internal/domain"
)

// TestInstallOrFixDiagnosticRejectsUnknownID ensures unsupported ids error.
func TestInstallOrFixDiagnosticRejectsUnknownID(t *testing.T) {
	app := newTestApp(&fakeConverter{}, &fakeService{}, &fakeLister{})

	if _, err := app.InstallOrFixDiagnostic("model_path"); err == nil {
		t.Fatal("expected error for unsupported diagnostic id")
	}
	if _, err := app.InstallOrFixDiagnostic("  "); err == nil {
		t.Fatal("expected error for blank diagnostic id")
	}
}

// TestInstallOrFixDiagnosticDispatchesFFmpegInstall checks the ffmpeg path
// runs the installer exactly once and saves nothing.
func TestInstallOrFixDiagnosticDispatchesFFmpegInstall(t *testing.T) {
	app := newTestApp(&fakeConverter{}, &fakeService{}, &fakeLister{})
	installs := 0
	app.installFFmpeg = func() error {
		installs++
		return nil
	}

	if _, err := app.InstallOrFixDiagnostic("tool_ffmpeg"); err != nil {
		t.Fatalf("InstallOrFixDiagnostic() error = %v", err)
	}
	if installs != 1 {
		t.Fatalf("install calls = %d, want 1", installs)
	}
	if saved := len(app.Store.(*fakeStore).saved); saved != 0 {
		t.Fatalf("save calls = %d, want 0", saved)
	}
}

// TestInstallOrFixDiagnosticResetsEmptyBaseURL checks the base-URL fix
// persists the default and the rerun checks see the repaired value.
func TestInstallOrFixDiagnosticResetsEmptyBaseURL(t *testing.T) {
	t.Setenv("UPLOAD_API_URL", "")

	app := newTestApp(&fakeConverter{}, &fakeService{}, &fakeLister{})
	store := app.Store.(*fakeStore)
	store.settings = domain.Settings{FFmpegPath: "ffmpeg"}
	app.checker = diagnostics.NewCheckerForTests(
		func(string) (string, error) { return "/usr/bin/ffmpeg", nil },
		func(string) error { return nil },
		func(dir, pattern string) (*os.File, error) { return os.CreateTemp(t.TempDir(), pattern) },
		os.Remove,
	)

	report, err := app.InstallOrFixDiagnostic("api_base_url")
	if err != nil {
		t.Fatalf("InstallOrFixDiagnostic() error = %v", err)
	}

	if len(store.saved) != 1 || store.saved[0].APIBaseURL != config.DefaultBaseURL {
		t.Fatalf("saved settings = %+v, want base url reset to default", store.saved)
	}
	if report.HasFailures {
		t.Fatalf("report still failing after fix: %+v", report.Items)
	}
}

// TestFixAPIBaseURLKeepsConfiguredURL ensures a set URL is never overwritten.
func TestFixAPIBaseURLKeepsConfiguredURL(t *testing.T) {
	settings := domain.Settings{APIBaseURL: "https://transcreva.example.com"}

	fixed, changed := fixAPIBaseURL(settings)
	if changed {
		t.Fatal("configured base url should not be treated as broken")
	}
	if fixed.APIBaseURL != settings.APIBaseURL {
		t.Fatalf("base url = %q, want unchanged", fixed.APIBaseURL)
	}
}

// TestInstallOrFixDiagnosticProbesWorkspace checks the workspace dispatch.
func TestInstallOrFixDiagnosticProbesWorkspace(t *testing.T) {
	app := newTestApp(&fakeConverter{}, &fakeService{}, &fakeLister{})
	probes := 0
	app.probeWorkspace = func() error {
		probes++
		return nil
	}

	if _, err := app.InstallOrFixDiagnostic("workspace"); err != nil {
		t.Fatalf("InstallOrFixDiagnostic() error = %v", err)
	}
	if probes != 1 {
		t.Fatalf("probe calls = %d, want 1", probes)
	}
}

// TestFixWorkspaceCreatesAndRemovesProbeDir exercises the real probe.
func TestFixWorkspaceCreatesAndRemovesProbeDir(t *testing.T) {
	if err := fixWorkspace(); err != nil {
		t.Fatalf("fixWorkspace() error = %v", err)
	}
}
