package cli

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"remix-console/internal/model"
	"remix-console/internal/upload"
)

func TestScanPrintsCategorySummary(t *testing.T) {
	setupTestEnv(t, "")
	root := filepath.Join(t.TempDir(), "library")
	writeVideoFixture(t, filepath.Join(root, "手写文案素材", "a.mp4"), 2048)
	writeVideoFixture(t, filepath.Join(root, "手写文案素材", "b.mp4"), 1024)
	writeVideoFixture(t, filepath.Join(root, "养生合集", "c.mov"), 4096)

	output := captureStdout(t, func() {
		if err := Run([]string{"scan", root}); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
	})

	if !strings.Contains(output, "2 categor(ies), 3 file(s), 7.0 KiB") {
		t.Fatalf("missing summary line:\n%s", output)
	}
	if !strings.Contains(output, "- 手写文案素材 [handwriting] 2 file(s)") {
		t.Fatalf("missing handwriting category row:\n%s", output)
	}
	if !strings.Contains(output, "- 养生合集 [health] 1 file(s)") {
		t.Fatalf("missing health category row:\n%s", output)
	}
	if !strings.Contains(output, "a.mp4 (2.0 KiB)") {
		t.Fatalf("missing file row:\n%s", output)
	}
	if !strings.Contains(output, "next: remix-console upload") {
		t.Fatalf("missing next hint:\n%s", output)
	}
}

func TestScanJSONMatchesBackendShape(t *testing.T) {
	setupTestEnv(t, "")
	root := filepath.Join(t.TempDir(), "library")
	writeVideoFixture(t, filepath.Join(root, "情感短片", "x.mp4"), 512)

	output := captureStdout(t, func() {
		if err := Run([]string{"scan", root, "--json"}); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
	})

	var result model.ScanResult
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("scan output is not JSON: %v\noutput:\n%s", err, output)
	}
	if !filepath.IsAbs(result.Path) {
		t.Fatalf("expected absolute path, got %q", result.Path)
	}
	if len(result.Categories) != 1 {
		t.Fatalf("expected 1 category, got %d", len(result.Categories))
	}
	cat := result.Categories[0]
	if cat.Folder != "情感短片" || cat.Strategy != model.StrategyEmotional {
		t.Fatalf("unexpected category: %+v", cat)
	}
	if cat.FileCount != 1 || len(cat.Files) != 1 || cat.Files[0] != "x.mp4" {
		t.Fatalf("unexpected files: %+v", cat)
	}
}

func TestScanRequiresFolder(t *testing.T) {
	setupTestEnv(t, "")
	err := Run([]string{"scan"})
	if err == nil || !strings.Contains(err.Error(), "usage: remix-console scan <folder>") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUploadRequiresFolder(t *testing.T) {
	setupTestEnv(t, "")
	err := Run([]string{"upload"})
	if err == nil || !strings.Contains(err.Error(), "usage: remix-console upload <folder>") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUploadPartialFailureKeepsSessionHint(t *testing.T) {
	backend := newFakeBackend()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/api/upload" {
			// ParseMultipartForm is idempotent, so the fallthrough
			// to the shared fake still sees the parsed form.
			if err := r.ParseMultipartForm(32 << 20); err == nil && r.FormValue("category") == "养生合集" {
				writeTestJSON(w, http.StatusInternalServerError, map[string]string{"detail": "disk full"})
				return
			}
		}
		backend.ServeHTTP(w, r)
	}))
	defer srv.Close()
	setupTestEnv(t, srv.URL)

	root := filepath.Join(t.TempDir(), "library")
	writeVideoFixture(t, filepath.Join(root, "手写文案素材", "a.mp4"), 2048)
	writeVideoFixture(t, filepath.Join(root, "养生合集", "c.mov"), 4096)

	output := captureStdout(t, func() {
		if err := Run([]string{"upload", root, "--session", "sess-f", "--plain"}); err != nil {
			t.Fatalf("partial upload failure should not fail the command: %v", err)
		}
	})

	if !strings.Contains(output, "uploaded: 1 file(s), failed: 1") {
		t.Fatalf("missing upload tally:\n%s", output)
	}
	if !strings.Contains(output, "some files failed; rerun with --session sess-f to retry them") {
		t.Fatalf("missing retry hint:\n%s", output)
	}
}

func TestUploadReportCarriesOutcomeErrors(t *testing.T) {
	result := upload.Result{
		SessionID: "sess-9",
		Uploaded:  1,
		Failed:    1,
		Outcomes: []upload.FileOutcome{
			{Category: "手写文案素材", Name: "a.mp4", Bytes: 2048},
			{Category: "养生合集", Name: "c.mov", Err: errors.New("disk full")},
		},
	}
	report := uploadReport(result)
	if report.SessionID != "sess-9" || report.Uploaded != 1 || report.Failed != 1 {
		t.Fatalf("unexpected report header: %+v", report)
	}
	if len(report.Files) != 2 {
		t.Fatalf("expected 2 file rows, got %d", len(report.Files))
	}
	if report.Files[0].Error != "" {
		t.Fatalf("successful file should have no error, got %q", report.Files[0].Error)
	}
	if report.Files[1].Error != "disk full" {
		t.Fatalf("failed file should carry its error, got %q", report.Files[1].Error)
	}
}

func TestByteTallyEmitsDeltas(t *testing.T) {
	tally := newByteTally()
	p := upload.Progress{Category: "手写文案素材", Name: "a.mp4"}

	p.Sent = 100
	if d := tally.delta(p); d != 100 {
		t.Fatalf("first delta = %d, want 100", d)
	}
	p.Sent = 250
	if d := tally.delta(p); d != 150 {
		t.Fatalf("second delta = %d, want 150", d)
	}
	p.Sent = 200
	if d := tally.delta(p); d != 0 {
		t.Fatalf("regressing progress should clamp to 0, got %d", d)
	}

	other := upload.Progress{Category: "养生合集", Name: "a.mp4", Sent: 50}
	if d := tally.delta(other); d != 50 {
		t.Fatalf("same name in another category must tally separately, got %d", d)
	}
}
