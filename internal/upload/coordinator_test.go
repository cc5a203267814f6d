package upload

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"remix-console/internal/api"
	"remix-console/internal/model"
)

type fakeUploader struct {
	mu         sync.Mutex
	calls      map[string][]string
	failures   map[string]error
	scans      int
	scanResult model.ScanResult
	scanErr    error
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{
		calls:    map[string][]string{},
		failures: map[string]error{},
		scanResult: model.ScanResult{Categories: []model.ScanCategory{
			{Folder: "手写", FileCount: 2, Strategy: "handwriting"},
		}},
	}
}

func (f *fakeUploader) UploadFile(ctx context.Context, opts api.UploadFileOptions) error {
	name := filepath.Base(opts.Path)
	f.mu.Lock()
	f.calls[opts.Category] = append(f.calls[opts.Category], name)
	err := f.failures[opts.Category+"/"+name]
	f.mu.Unlock()

	if opts.Progress != nil {
		opts.Progress(5, 10)
		opts.Progress(10, 10)
	}
	return err
}

func (f *fakeUploader) ScanSession(ctx context.Context, sessionID string) (model.ScanResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	return f.scanResult, f.scanErr
}

func (f *fakeUploader) callOrder(category string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls[category]...)
}

func twoFileCategory(folder string) LocalCategory {
	return LocalCategory{
		Folder:   folder,
		Strategy: "handwriting",
		Files: []LocalFile{
			{Path: "/src/" + folder + "/a.mp4", Name: "a.mp4", Size: 10},
			{Path: "/src/" + folder + "/b.mp4", Name: "b.mp4", Size: 10},
		},
	}
}

func TestCoordinatorUploadsFilesInOrderWithinCategory(t *testing.T) {
	fake := newFakeUploader()

	var progress []Progress
	var progressMu sync.Mutex
	coord, err := NewCoordinator(CoordinatorOptions{
		Uploader:  fake,
		SessionID: "sess-1",
		OnProgress: func(p Progress) {
			progressMu.Lock()
			progress = append(progress, p)
			progressMu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}

	result, err := coord.Run(context.Background(), []LocalCategory{twoFileCategory("手写")})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := fake.callOrder("手写"); len(got) != 2 || got[0] != "a.mp4" || got[1] != "b.mp4" {
		t.Fatalf("upload order: got %v", got)
	}
	if result.Uploaded != 2 || result.Failed != 0 {
		t.Fatalf("counts: got %d/%d want 2/0", result.Uploaded, result.Failed)
	}
	if fake.scans != 1 {
		t.Fatalf("category re-query count: got %d want 1", fake.scans)
	}
	if len(result.Categories) != 1 || result.Categories[0].Folder != "手写" {
		t.Fatalf("authoritative categories: got %+v", result.Categories)
	}
	if len(progress) == 0 {
		t.Fatal("no progress events delivered")
	}
	last := progress[len(progress)-1]
	if last.Sent != last.Total {
		t.Fatalf("final progress should reach total: %d/%d", last.Sent, last.Total)
	}
}

func TestCoordinatorContinuesPastFailedFile(t *testing.T) {
	fake := newFakeUploader()
	fake.failures["手写/a.mp4"] = errors.New("disk full")

	coord, err := NewCoordinator(CoordinatorOptions{Uploader: fake, SessionID: "sess-2"})
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}

	result, err := coord.Run(context.Background(), []LocalCategory{twoFileCategory("手写")})
	if err != nil {
		t.Fatalf("run should not fail on per-file errors: %v", err)
	}

	if got := fake.callOrder("手写"); len(got) != 2 {
		t.Fatalf("failed file must not block its sibling: %v", got)
	}
	if result.Uploaded != 1 || result.Failed != 1 {
		t.Fatalf("counts: got %d/%d want 1/1", result.Uploaded, result.Failed)
	}
	if fake.scans != 1 {
		t.Fatal("categories-changed re-query must run even after failures")
	}

	var failedOutcome *FileOutcome
	for i := range result.Outcomes {
		if result.Outcomes[i].Err != nil {
			failedOutcome = &result.Outcomes[i]
		}
	}
	if failedOutcome == nil || failedOutcome.Name != "a.mp4" {
		t.Fatalf("failed outcome not recorded: %+v", result.Outcomes)
	}
}

func TestCoordinatorRunsCategoriesIndependently(t *testing.T) {
	fake := newFakeUploader()
	fake.failures["手写/a.mp4"] = errors.New("boom")

	coord, err := NewCoordinator(CoordinatorOptions{Uploader: fake, SessionID: "sess-3", Concurrency: 2})
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}

	cats := []LocalCategory{twoFileCategory("手写"), twoFileCategory("养生")}
	result, err := coord.Run(context.Background(), cats)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Uploaded != 3 || result.Failed != 1 {
		t.Fatalf("counts: got %d/%d want 3/1", result.Uploaded, result.Failed)
	}
	if got := fake.callOrder("养生"); len(got) != 2 || got[0] != "a.mp4" {
		t.Fatalf("second category order: got %v", got)
	}
	if len(result.Outcomes) != 4 {
		t.Fatalf("outcomes: got %d want 4", len(result.Outcomes))
	}
}

func TestCoordinatorGeneratesSessionID(t *testing.T) {
	fake := newFakeUploader()
	coord, err := NewCoordinator(CoordinatorOptions{Uploader: fake})
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	if coord.SessionID() == "" {
		t.Fatal("session id should be generated")
	}

	coord2, err := NewCoordinator(CoordinatorOptions{Uploader: fake})
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	if coord.SessionID() == coord2.SessionID() {
		t.Fatal("session ids should be unique")
	}
}

func TestCoordinatorSurfacesScanFailure(t *testing.T) {
	fake := newFakeUploader()
	fake.scanErr = errors.New("backend gone")

	coord, err := NewCoordinator(CoordinatorOptions{Uploader: fake, SessionID: "sess-4"})
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}

	result, err := coord.Run(context.Background(), []LocalCategory{twoFileCategory("手写")})
	if err == nil {
		t.Fatal("expected error when the re-query fails")
	}
	if result.Uploaded != 2 {
		t.Fatalf("outcomes should survive a failed re-query: %+v", result)
	}
	if result.Categories != nil {
		t.Fatal("categories must be nil when the re-query failed")
	}
}

func TestCoordinatorValidation(t *testing.T) {
	if _, err := NewCoordinator(CoordinatorOptions{}); err == nil {
		t.Fatal("expected error for missing uploader")
	}

	coord, err := NewCoordinator(CoordinatorOptions{Uploader: newFakeUploader()})
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	if _, err := coord.Run(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty category list")
	}
}
