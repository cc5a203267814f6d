package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coder/websocket"

	"remix-console/internal/model"
)

const streamReadLimit = 1 << 20

// StreamEnvInstall follows the dependency install stream until its done
// frame. Frames reach onFrame in arrival order on the calling goroutine.
func (c *Client) StreamEnvInstall(ctx context.Context, onFrame func(model.StreamFrame)) error {
	return c.streamSocket(ctx, "/ws/env-install", onFrame)
}

// StreamGitPull follows the backend self-update stream.
func (c *Client) StreamGitPull(ctx context.Context, onFrame func(model.StreamFrame)) error {
	return c.streamSocket(ctx, "/ws/git-pull", onFrame)
}

func (c *Client) streamSocket(ctx context.Context, path string, onFrame func(model.StreamFrame)) error {
	conn, _, err := websocket.Dial(ctx, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", path, err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(streamReadLimit)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		var frame model.StreamFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.logger.Debug("dropping malformed stream frame", "path", path, "error", err)
			continue
		}
		if onFrame != nil {
			onFrame(frame)
		}
		if frame.Type == "done" {
			conn.Close(websocket.StatusNormalClosure, "stream finished")
			if !frame.Success {
				return fmt.Errorf("%w: %s", ErrStreamFailed, frame.Error)
			}
			return nil
		}
	}
}
