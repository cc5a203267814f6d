package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coder/websocket"

	"remix-console/internal/logx"
)

// DefaultReconnectWait is the fixed redial interval for a dropped
// progress socket. There is no backoff and no attempt cap: the socket is
// local and the task keeps running whether or not anyone watches.
const DefaultReconnectWait = 2 * time.Second

const wsReadLimit = 1 << 20

var syncRequest = []byte(`{"type":"sync"}`)

type WatcherOptions struct {
	// URL is the full progress socket address, ws or http scheme.
	URL     string
	Tracker *Tracker
	// OnUpdate runs on the watch goroutine after every applied event.
	OnUpdate      func(Snapshot)
	ReconnectWait time.Duration
	Logger        *slog.Logger
}

// Watcher owns the progress socket for one task: it dials, requests a
// resync, feeds frames to the tracker, and redials until the task
// reaches a terminal status or the context ends.
type Watcher struct {
	url           string
	tracker       *Tracker
	onUpdate      func(Snapshot)
	reconnectWait time.Duration
	logger        *slog.Logger
}

func NewWatcher(opts WatcherOptions) (*Watcher, error) {
	if opts.URL == "" {
		return nil, errors.New("watcher: url is required")
	}
	if opts.Tracker == nil {
		return nil, errors.New("watcher: tracker is required")
	}
	w := &Watcher{
		url:           opts.URL,
		tracker:       opts.Tracker,
		onUpdate:      opts.OnUpdate,
		reconnectWait: opts.ReconnectWait,
		logger:        opts.Logger,
	}
	if w.reconnectWait <= 0 {
		w.reconnectWait = DefaultReconnectWait
	}
	if w.logger == nil {
		w.logger = logx.Nop()
	}
	return w, nil
}

func (w *Watcher) Run(ctx context.Context) error {
	for {
		err := w.watchOnce(ctx)
		if w.tracker.Snapshot().Done() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			w.logger.Debug("progress socket dropped", "task_id", w.tracker.TaskID(), "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.reconnectWait):
		}
	}
}

func (w *Watcher) watchOnce(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("dial progress socket: %w", err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(wsReadLimit)

	if err := conn.Write(ctx, websocket.MessageText, syncRequest); err != nil {
		return fmt.Errorf("request resync: %w", err)
	}

	synced := false
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		ev, perr := ParseEvent(data)
		if perr != nil {
			w.logger.Debug("dropping malformed frame", "task_id", w.tracker.TaskID(), "error", perr)
			continue
		}
		// Incremental deltas are unsafe until the post-connect resync
		// lands; everything before the first state frame is skipped.
		if !synced {
			if ev.Type != EventState {
				continue
			}
			synced = true
		}
		w.tracker.Apply(ev)
		snap := w.tracker.Snapshot()
		if w.onUpdate != nil {
			w.onUpdate(snap)
		}
		if snap.Done() {
			conn.Close(websocket.StatusNormalClosure, "task finished")
			return nil
		}
	}
}
