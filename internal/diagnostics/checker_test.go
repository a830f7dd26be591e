package diagnostics

import (
	"errors"
	"os"
	"testing"

	"transcreva/internal/domain"
)

// passingDeps returns checker dependencies that succeed everywhere.
func passingDeps() (func(string) (string, error), func(string) error) {
	lookPath := func(name string) (string, error) { return "/usr/bin/" + name, nil }
	probe := func(string) error { return nil }
	return lookPath, probe
}

// TestCheckerAllPass verifies a clean report when everything is available.
func TestCheckerAllPass(t *testing.T) {
	lookPath, probe := passingDeps()
	checker := NewCheckerForTests(lookPath, probe, os.CreateTemp, os.Remove)

	report := checker.Run(domain.Settings{
		APIBaseURL: "http://localhost:3333",
		FFmpegPath: "ffmpeg",
	})

	if report.HasFailures {
		t.Fatalf("unexpected failures: %+v", report.Items)
	}
	if len(report.Items) != 3 {
		t.Fatalf("item count = %d, want 3", len(report.Items))
	}
	if report.GeneratedAt.IsZero() {
		t.Fatal("expected generated timestamp")
	}
}

// TestCheckerMissingFFmpeg verifies the tool check failure.
func TestCheckerMissingFFmpeg(t *testing.T) {
	_, probe := passingDeps()
	lookPath := func(string) (string, error) { return "", errors.New("not found") }
	checker := NewCheckerForTests(lookPath, probe, os.CreateTemp, os.Remove)

	report := checker.Run(domain.Settings{APIBaseURL: "http://localhost:3333"})

	if !report.HasFailures {
		t.Fatal("expected failures")
	}
	item := findItem(t, report, "tool_ffmpeg")
	if item.Status != domain.DiagnosticStatusFail {
		t.Fatalf("status = %s, want fail", item.Status)
	}
	if item.Hint == "" {
		t.Fatal("expected remediation hint")
	}
}

// TestCheckerUnreachableBackend verifies the connectivity check failure.
func TestCheckerUnreachableBackend(t *testing.T) {
	lookPath, _ := passingDeps()
	probe := func(string) error { return errors.New("connection refused") }
	checker := NewCheckerForTests(lookPath, probe, os.CreateTemp, os.Remove)

	report := checker.Run(domain.Settings{APIBaseURL: "http://localhost:3333"})

	item := findItem(t, report, "api_base_url")
	if item.Status != domain.DiagnosticStatusFail {
		t.Fatalf("status = %s, want fail", item.Status)
	}
}

// TestCheckerEmptyBaseURL verifies empty configuration fails without probing.
func TestCheckerEmptyBaseURL(t *testing.T) {
	lookPath, _ := passingDeps()
	probed := false
	probe := func(string) error {
		probed = true
		return nil
	}
	checker := NewCheckerForTests(lookPath, probe, os.CreateTemp, os.Remove)

	report := checker.Run(domain.Settings{})

	item := findItem(t, report, "api_base_url")
	if item.Status != domain.DiagnosticStatusFail {
		t.Fatalf("status = %s, want fail", item.Status)
	}
	if probed {
		t.Fatal("empty base URL should not be probed")
	}
}

// TestCheckerWorkspaceNotWritable verifies the temp directory check failure.
func TestCheckerWorkspaceNotWritable(t *testing.T) {
	lookPath, probe := passingDeps()
	createTemp := func(dir, pattern string) (*os.File, error) {
		return nil, errors.New("read-only file system")
	}
	checker := NewCheckerForTests(lookPath, probe, createTemp, os.Remove)

	report := checker.Run(domain.Settings{APIBaseURL: "http://localhost:3333"})

	item := findItem(t, report, "workspace")
	if item.Status != domain.DiagnosticStatusFail {
		t.Fatalf("status = %s, want fail", item.Status)
	}
}

// findItem returns the report item with the given id.
func findItem(t *testing.T, report domain.DiagnosticReport, id string) domain.DiagnosticItem {
	t.Helper()
	for _, item := range report.Items {
		if item.ID == id {
			return item
		}
	}
	t.Fatalf("item %s not found in %+v", id, report.Items)
	return domain.DiagnosticItem{}
}
