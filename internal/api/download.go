package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

type DownloadOptions struct {
	TaskID string
	// Folder and File select a single artifact; leave both empty for the
	// whole-task archive.
	Folder   string
	File     string
	DestPath string
	// Progress receives cumulative written bytes. Total is -1 when the
	// backend streams without a length.
	Progress func(written, total int64)
}

type DownloadResult struct {
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
}

// Download fetches task output to DestPath, writing through a temp file
// so an interrupted transfer never leaves a half-written artifact behind.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (DownloadResult, error) {
	if opts.TaskID == "" {
		return DownloadResult{}, fmt.Errorf("download: task id is required")
	}
	if opts.DestPath == "" {
		return DownloadResult{}, fmt.Errorf("download: destination path is required")
	}
	if (opts.Folder == "") != (opts.File == "") {
		return DownloadResult{}, fmt.Errorf("download: folder and file go together")
	}

	path := "/api/download/" + url.PathEscape(opts.TaskID) + "/all"
	if opts.Folder != "" {
		path = "/api/download/" + url.PathEscape(opts.TaskID) + "/" + url.PathEscape(opts.Folder) + "/" + url.PathEscape(opts.File)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("build download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("download %s: %w", opts.TaskID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return DownloadResult{}, responseError(resp)
	}

	dir := filepath.Dir(opts.DestPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return DownloadResult{}, fmt.Errorf("create parent for %s: %w", opts.DestPath, err)
	}
	tmp, err := os.CreateTemp(dir, ".remix-dl-*")
	if err != nil {
		return DownloadResult{}, fmt.Errorf("create temp file for %s: %w", opts.DestPath, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpPath)
	}

	var body io.Reader = resp.Body
	if opts.Progress != nil {
		body = &progressReader{r: resp.Body, total: resp.ContentLength, report: opts.Progress}
	}

	written, err := io.Copy(tmp, body)
	if err != nil {
		_ = tmp.Close()
		cleanup()
		return DownloadResult{}, fmt.Errorf("write %s: %w", opts.DestPath, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		cleanup()
		return DownloadResult{}, fmt.Errorf("chmod temp file for %s: %w", opts.DestPath, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return DownloadResult{}, fmt.Errorf("close temp file for %s: %w", opts.DestPath, err)
	}
	if err := os.Rename(tmpPath, opts.DestPath); err != nil {
		cleanup()
		return DownloadResult{}, fmt.Errorf("finalize %s: %w", opts.DestPath, err)
	}

	c.logger.Debug("download complete", "task_id", opts.TaskID, "path", opts.DestPath, "bytes", written)
	return DownloadResult{Path: opts.DestPath, Bytes: written}, nil
}
