package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"remix-console/internal/model"
)

// Config fetches the raw config blob. The document is schemaless on
// purpose; callers pick values out with ConfigValue.
func (c *Client) Config(ctx context.Context) (json.RawMessage, error) {
	var blob json.RawMessage
	if err := c.getJSON(ctx, "/api/config", &blob); err != nil {
		return nil, err
	}
	return blob, nil
}

// PutConfig sends a partial config document. The backend deep-merges the
// strategies key and shallow-merges everything else.
func (c *Client) PutConfig(ctx context.Context, body any) error {
	return c.doJSON(ctx, "PUT", "/api/config", body, nil)
}

func (c *Client) Strategies(ctx context.Context) (model.StrategyCatalog, error) {
	var catalog model.StrategyCatalog
	err := c.getJSON(ctx, "/api/strategies", &catalog)
	return catalog, err
}

func (c *Client) AssetsOverview(ctx context.Context) (model.AssetsOverview, error) {
	var overview model.AssetsOverview
	err := c.getJSON(ctx, "/api/assets/overview", &overview)
	return overview, err
}

func (c *Client) EnvCheck(ctx context.Context) (model.EnvCheck, error) {
	var check model.EnvCheck
	err := c.getJSON(ctx, "/api/env-check", &check)
	return check, err
}

func (c *Client) CheckUpdate(ctx context.Context) (model.UpdateCheck, error) {
	var check model.UpdateCheck
	err := c.getJSON(ctx, "/api/check-update", &check)
	return check, err
}

func (c *Client) History(ctx context.Context) (model.History, error) {
	var history model.History
	err := c.getJSON(ctx, "/api/history", &history)
	return history, err
}

func (c *Client) ClearHistory(ctx context.Context) error {
	return c.doJSON(ctx, "DELETE", "/api/history", nil, nil)
}

func (c *Client) VideoStats(ctx context.Context) (model.VideoStats, error) {
	var stats model.VideoStats
	err := c.getJSON(ctx, "/api/video-stats", &stats)
	return stats, err
}

func (c *Client) UpdateVideoStat(ctx context.Context, id string, stats map[string]any) error {
	body := struct {
		ID    string         `json:"id"`
		Stats map[string]any `json:"stats"`
	}{ID: id, Stats: stats}
	return c.doJSON(ctx, "PUT", "/api/video-stats", body, nil)
}

// AddVideoStats registers new entries, skipping ids the backend already
// tracks.
func (c *Client) AddVideoStats(ctx context.Context, entries []model.VideoStatEntry) error {
	body := struct {
		Videos []model.VideoStatEntry `json:"videos"`
	}{Videos: entries}
	return c.doJSON(ctx, "POST", "/api/video-stats/batch", body, nil)
}

// ScanSession lists the categories the backend discovered in an upload
// session.
func (c *Client) ScanSession(ctx context.Context, sessionID string) (model.ScanResult, error) {
	var result model.ScanResult
	err := c.getJSON(ctx, "/api/upload/"+url.PathEscape(sessionID)+"/scan", &result)
	return result, err
}

// Launch submits a composed task. It fires exactly once: a failed launch
// is reported, never retried.
func (c *Client) Launch(ctx context.Context, req model.LaunchRequest) (model.LaunchResponse, error) {
	var resp model.LaunchResponse
	if err := c.doJSON(ctx, "POST", "/api/tasks/upload", req, &resp); err != nil {
		return model.LaunchResponse{}, err
	}
	if resp.TaskID == "" {
		return model.LaunchResponse{}, fmt.Errorf("launch accepted but no task id returned")
	}
	return resp, nil
}

func (c *Client) CancelTask(ctx context.Context, taskID string) error {
	return c.doJSON(ctx, "POST", "/api/tasks/"+url.PathEscape(taskID)+"/cancel", nil, nil)
}

// ProgressSocketURL is the progress stream address for a task, in a form
// the socket dialer accepts directly.
func (c *Client) ProgressSocketURL(taskID string) string {
	return c.baseURL + "/ws/progress/" + url.PathEscape(taskID)
}
