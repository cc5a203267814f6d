package cli

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"remix-console/internal/model"
)

func historyFixture() model.History {
	return model.History{Tasks: []model.HistoryEntry{
		{
			ID:        "task-1",
			Timestamp: "2026-08-20 10:15",
			Status:    model.StatusCompleted,
			Total:     3,
			Completed: 3,
			Elapsed:   12.5,
			Categories: []model.HistoryCategory{
				{Folder: "手写文案素材", Strategy: "handwriting", Count: 2},
			},
			FileResults: []model.FileResult{
				{Filename: "a.mp4", Status: model.FileStatusDone, Elapsed: 3.2},
				{Filename: "b.mp4", Status: model.FileStatusFailed, Elapsed: 1.1, Error: "encode error"},
			},
		},
		{
			ID:        "task-2",
			Timestamp: "2026-08-19 09:00",
			Status:    model.StatusFailed,
			Total:     1,
			Failed:    1,
			Elapsed:   4.0,
		},
	}}
}

func newHistoryFake(t *testing.T) (*httptest.Server, func() int) {
	t.Helper()
	var mu sync.Mutex
	cleared := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/history":
			writeTestJSON(w, http.StatusOK, historyFixture())
		case r.Method == http.MethodDelete && r.URL.Path == "/api/history":
			mu.Lock()
			cleared++
			mu.Unlock()
			writeTestJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		default:
			writeTestJSON(w, http.StatusNotFound, map[string]string{"detail": "not found"})
		}
	}))
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return cleared
	}
	return srv, count
}

func TestHistoryListsTasks(t *testing.T) {
	srv, _ := newHistoryFake(t)
	defer srv.Close()
	setupTestEnv(t, srv.URL)

	output := captureStdout(t, func() {
		if err := Run([]string{"history"}); err != nil {
			t.Fatalf("history failed: %v", err)
		}
	})
	if !strings.Contains(output, "2 task(s)") {
		t.Fatalf("missing header:\n%s", output)
	}
	if !strings.Contains(output, "task-1 [completed] 2026-08-20 10:15  3/3 done, 0 failed, 12.5s") {
		t.Fatalf("missing task row:\n%s", output)
	}
	if !strings.Contains(output, "  - 手写文案素材 (handwriting) 2 file(s)") {
		t.Fatalf("missing category row:\n%s", output)
	}
	if strings.Contains(output, "a.mp4") {
		t.Fatalf("file rows should need --files:\n%s", output)
	}
}

func TestHistoryLimitAndFiles(t *testing.T) {
	srv, _ := newHistoryFake(t)
	defer srv.Close()
	setupTestEnv(t, srv.URL)

	output := captureStdout(t, func() {
		if err := Run([]string{"history", "--limit", "1", "--files"}); err != nil {
			t.Fatalf("history failed: %v", err)
		}
	})
	if !strings.Contains(output, "1 task(s)") {
		t.Fatalf("limit not applied:\n%s", output)
	}
	if strings.Contains(output, "task-2") {
		t.Fatalf("limit should drop older tasks:\n%s", output)
	}
	if !strings.Contains(output, "    a.mp4: done (3.2s)") {
		t.Fatalf("missing file row:\n%s", output)
	}
	if !strings.Contains(output, "    b.mp4: failed (1.1s) encode error") {
		t.Fatalf("missing failed file row:\n%s", output)
	}
}

func TestHistoryClear(t *testing.T) {
	srv, cleared := newHistoryFake(t)
	defer srv.Close()
	setupTestEnv(t, srv.URL)

	// Tests run with piped stdio, so without --yes the confirmation
	// prompt has no terminal to read from.
	err := Run([]string{"history", "clear"})
	if err == nil || !strings.Contains(err.Error(), "confirmation required") {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleared() != 0 {
		t.Fatal("history cleared without confirmation")
	}

	output := captureStdout(t, func() {
		if err := Run([]string{"history", "clear", "--yes"}); err != nil {
			t.Fatalf("history clear failed: %v", err)
		}
	})
	if !strings.Contains(output, "history cleared") {
		t.Fatalf("missing confirmation:\n%s", output)
	}
	if cleared() != 1 {
		t.Fatalf("expected one clear call, got %d", cleared())
	}
}

func TestDownloadWritesArtifact(t *testing.T) {
	payload := []byte("PK\x03\x04 not really a zip")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/download/task-9/all" {
			writeTestJSON(w, http.StatusNotFound, map[string]string{"detail": "not found"})
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
	}))
	defer srv.Close()
	setupTestEnv(t, srv.URL)

	dest := filepath.Join(t.TempDir(), "out.zip")
	output := captureStdout(t, func() {
		if err := Run([]string{"download", "task-9", "--out", dest}); err != nil {
			t.Fatalf("download failed: %v", err)
		}
	})
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("artifact content mismatch: %q", got)
	}
	if !strings.Contains(output, "saved "+dest) {
		t.Fatalf("missing saved line:\n%s", output)
	}
}

func TestDownloadSingleArtifactNeedsBothFlags(t *testing.T) {
	setupTestEnv(t, "")
	err := Run([]string{"download", "task-9", "--folder", "手写文案素材"})
	if err == nil || !strings.Contains(err.Error(), "--folder and --file go together") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDownloadUnknownTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusNotFound, map[string]string{"detail": "task not found"})
	}))
	defer srv.Close()
	setupTestEnv(t, srv.URL)

	err := Run([]string{"download", "ghost", "--out", filepath.Join(t.TempDir(), "x.zip")})
	if err == nil || !strings.Contains(err.Error(), "no artifacts for task ghost on the backend") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStatsListsVideos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/video-stats" {
			writeTestJSON(w, http.StatusNotFound, map[string]string{"detail": "not found"})
			return
		}
		writeTestJSON(w, http.StatusOK, model.VideoStats{Videos: []model.VideoStatEntry{
			{ID: "vid-1", Stats: map[string]any{"views": 120, "liked": true}},
		}})
	}))
	defer srv.Close()
	setupTestEnv(t, srv.URL)

	output := captureStdout(t, func() {
		if err := Run([]string{"stats"}); err != nil {
			t.Fatalf("stats failed: %v", err)
		}
	})
	if !strings.Contains(output, "1 video(s)") || !strings.Contains(output, "vid-1") {
		t.Fatalf("missing video row:\n%s", output)
	}
	liked := strings.Index(output, "liked: true")
	views := strings.Index(output, "views: 120")
	if liked < 0 || views < 0 || liked > views {
		t.Fatalf("stat keys should print sorted:\n%s", output)
	}
}

func TestStatsSetUnknownVideo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusNotFound, map[string]string{"detail": "video not found"})
	}))
	defer srv.Close()
	setupTestEnv(t, srv.URL)

	err := Run([]string{"stats", "set", "vid-9", "views=5"})
	if err == nil || !strings.Contains(err.Error(), "no video vid-9 in stats; register it with: remix-console stats add vid-9") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseStatPairs(t *testing.T) {
	pairs, err := parseStatPairs([]string{"views=120", "liked=true", "note=great video", "ratio=0.5"})
	if err != nil {
		t.Fatalf("parseStatPairs failed: %v", err)
	}
	if pairs["views"] != float64(120) {
		t.Fatalf("views = %v (%T), want 120", pairs["views"], pairs["views"])
	}
	if pairs["liked"] != true {
		t.Fatalf("liked = %v, want true", pairs["liked"])
	}
	if pairs["note"] != "great video" {
		t.Fatalf("note = %v, want plain string", pairs["note"])
	}
	if pairs["ratio"] != 0.5 {
		t.Fatalf("ratio = %v, want 0.5", pairs["ratio"])
	}

	if _, err := parseStatPairs([]string{"missing-separator"}); err == nil || !strings.Contains(err.Error(), "want key=value") {
		t.Fatalf("unexpected error: %v", err)
	}
}
