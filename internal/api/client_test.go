package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"remix-console/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL}), srv
}

func TestClientDecodesBackendDetailErrors(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Task not found"})
	}))

	err := client.CancelTask(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected error for 404")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("status code: got %d want 404", apiErr.StatusCode)
	}
	if apiErr.Detail != "Task not found" {
		t.Fatalf("detail: got %q", apiErr.Detail)
	}
	if !IsNotFound(err) {
		t.Fatal("IsNotFound should match a 404 response")
	}
}

func TestClientKeepsRawBodyWhenDetailMissing(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))

	err := client.ClearHistory(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Detail != "upstream exploded" {
		t.Fatalf("detail: got %q", apiErr.Detail)
	}
}

func TestStrategiesRoundTrip(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/strategies" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(model.StrategyCatalog{
			Strategies: []model.StrategyInfo{
				{ID: "handwriting", Name: "手写混剪", Defaults: model.StrategyDefaults{StickerCount: 14, SparkleCount: 5, Preset: "gold"}},
				{ID: "emotional", Name: "情感混剪", Defaults: model.StrategyDefaults{StickerCount: 20, SparkleCount: 5, Preset: "pink"}},
			},
			StrategyPresets: []string{"gold", "pink", "warm", "cool", "mixed"},
			MixingModes:     []string{"standard", "blur_center"},
		})
	}))

	catalog, err := client.Strategies(context.Background())
	if err != nil {
		t.Fatalf("strategies: %v", err)
	}
	if len(catalog.Strategies) != 2 {
		t.Fatalf("strategies count: got %d want 2", len(catalog.Strategies))
	}
	if catalog.Strategies[0].Defaults.StickerCount != 14 {
		t.Fatalf("sticker count: got %d want 14", catalog.Strategies[0].Defaults.StickerCount)
	}
	if len(catalog.StrategyPresets) != 5 {
		t.Fatalf("presets: got %d want 5", len(catalog.StrategyPresets))
	}
}

func TestLaunchPostsComposedRequest(t *testing.T) {
	var received model.LaunchRequest
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/tasks/upload" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(model.LaunchResponse{TaskID: "ab12cd34", Total: 4})
	}))

	req := model.LaunchRequest{
		SessionID: "sess-1",
		Categories: []model.LaunchCategory{{
			Folder:   "手写",
			Strategy: "handwriting",
			Files: []model.LaunchFile{{
				Filename: "a.mp4",
				Outputs: []model.OutputSpec{
					{Mode: "standard", StrategyPreset: "gold"},
					{Mode: "blur_center", StrategyPreset: "mixed"},
				},
			}},
		}},
	}
	resp, err := client.Launch(context.Background(), req)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if resp.TaskID != "ab12cd34" || resp.Total != 4 {
		t.Fatalf("launch response: got %+v", resp)
	}
	if received.SessionID != "sess-1" {
		t.Fatalf("session id on wire: got %q", received.SessionID)
	}
	if len(received.Categories) != 1 || len(received.Categories[0].Files[0].Outputs) != 2 {
		t.Fatalf("request lost shape on wire: %+v", received)
	}
}

func TestLaunchRejectsEmptyTaskID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.LaunchResponse{})
	}))

	if _, err := client.Launch(context.Background(), model.LaunchRequest{SessionID: "s"}); err == nil {
		t.Fatal("expected error when backend returns no task id")
	}
}

func TestScanSessionEscapesID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/upload/sess 1/scan" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(model.ScanResult{Categories: []model.ScanCategory{
			{Folder: "手写", FileCount: 2, Files: []string{"a.mp4", "b.mp4"}, Strategy: "handwriting"},
		}})
	}))

	result, err := client.ScanSession(context.Background(), "sess 1")
	if err != nil {
		t.Fatalf("scan session: %v", err)
	}
	if len(result.Categories) != 1 || result.Categories[0].FileCount != 2 {
		t.Fatalf("scan result: got %+v", result)
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(model.History{Tasks: []model.HistoryEntry{
				{ID: "t1", Status: model.StatusCompleted, Total: 3, Completed: 3},
				{ID: "t2", Status: model.StatusFailed, Total: 2, Completed: 1, Failed: 1},
			}})
		case http.MethodDelete:
			json.NewEncoder(w).Encode(map[string]bool{"ok": true})
		}
	}))

	history, err := client.History(context.Background())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history.Tasks) != 2 || history.Tasks[0].ID != "t1" {
		t.Fatalf("history shape: got %+v", history)
	}
	if err := client.ClearHistory(context.Background()); err != nil {
		t.Fatalf("clear history: %v", err)
	}
}

func TestIsUnavailableMatchesConnectionErrors(t *testing.T) {
	client := New(Options{BaseURL: "http://127.0.0.1:1"})
	_, err := client.History(context.Background())
	if err == nil {
		t.Skip("port 1 unexpectedly reachable")
	}
	if !IsUnavailable(err) {
		t.Fatalf("connection error should read as unavailable: %v", err)
	}
	if IsUnavailable(nil) {
		t.Fatal("nil error is not unavailable")
	}
}

func TestProgressSocketURL(t *testing.T) {
	client := New(Options{BaseURL: "http://127.0.0.1:8000/"})
	got := client.ProgressSocketURL("ab12")
	want := "http://127.0.0.1:8000/ws/progress/ab12"
	if got != want {
		t.Fatalf("socket url: got %q want %q", got, want)
	}
}
