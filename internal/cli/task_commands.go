package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"remix-console/internal/api"
	"remix-console/internal/logx"
	"remix-console/internal/model"
	"remix-console/internal/plan"
	"remix-console/internal/progress"
	"remix-console/internal/watch"
)

func runLaunch(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	url := fs.String("url", "", "backend base URL")
	session := fs.String("session", "", "upload session id (printed by 'upload')")
	variants := fs.String("variants", "", "output variants per file: mode[:preset][,mode[:preset]...]")
	strategies := fs.String("strategy", "", "per-category strategy override: folder=strategy[,...]")
	dryRun := fs.Bool("dry-run", false, "print the work plan without launching")
	noWatch := fs.Bool("no-watch", false, "launch and exit without following progress")
	plain := fs.Bool("plain", false, "line-by-line progress instead of the live view")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	sessionID := strings.TrimSpace(*session)
	if sessionID == "" {
		sessionID = strings.TrimSpace(fs.Arg(0))
	}
	if sessionID == "" {
		return errors.New("--session is required (printed by 'remix-console upload')")
	}

	outputs, err := parseVariants(*variants)
	if err != nil {
		return err
	}
	overrides, err := parseStrategyOverrides(*strategies)
	if err != nil {
		return err
	}

	client := newClient(*url)
	ctx := context.Background()
	scan, err := client.ScanSession(ctx, sessionID)
	if err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("session %s not found; upload first with: remix-console upload <folder>", sessionID)
		}
		return describeBackendError(client, err)
	}

	plans := plan.FromScan(scan.Categories, outputs)
	for folder, strategy := range overrides {
		matched := false
		for i := range plans {
			if plans[i].Folder == folder {
				plans[i].Strategy = strategy
				matched = true
			}
		}
		if !matched {
			return fmt.Errorf("no uploaded category named %q in session %s", folder, sessionID)
		}
	}

	req, err := plan.Build(plan.Options{SessionID: sessionID, Categories: plans})
	if err != nil {
		return err
	}

	if *dryRun {
		return printPlanPreview(req, *jsonOut)
	}

	resp, err := plan.Submit(ctx, client, req)
	if err != nil {
		return describeBackendError(client, err)
	}

	if *jsonOut && *noWatch {
		return printJSON(resp)
	}
	fmt.Printf("task launched: %s (%d output(s))\n", resp.TaskID, resp.Total)
	if *noWatch {
		fmt.Printf("follow it with: remix-console watch %s\n", resp.TaskID)
		return nil
	}
	return followTask(client, resp.TaskID, *plain, *jsonOut)
}

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	url := fs.String("url", "", "backend base URL")
	plain := fs.Bool("plain", false, "line-by-line progress instead of the live view")
	jsonOut := fs.Bool("json", false, "print the final snapshot as JSON")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	taskID := strings.TrimSpace(fs.Arg(0))
	if taskID == "" {
		return errors.New("usage: remix-console watch <task-id>")
	}
	return followTask(newClient(*url), taskID, *plain, *jsonOut)
}

func runCancel(args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ContinueOnError)
	url := fs.String("url", "", "backend base URL")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	taskID := strings.TrimSpace(fs.Arg(0))
	if taskID == "" {
		return errors.New("usage: remix-console cancel <task-id>")
	}

	client := newClient(*url)
	if err := client.CancelTask(context.Background(), taskID); err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("no task %s on the backend", taskID)
		}
		return describeBackendError(client, err)
	}
	if *jsonOut {
		return printJSON(map[string]any{"task_id": taskID, "cancelled": true})
	}
	fmt.Printf("cancel requested for task %s\n", taskID)
	return nil
}

// followTask blocks until the task finishes or the user stops watching.
// Interactive terminals get the live view; --plain, --json, and pipes get
// line output over the same tracker.
func followTask(client *api.Client, taskID string, plain, jsonOut bool) error {
	socketURL := client.ProgressSocketURL(taskID)

	if !plain && !jsonOut && stdinIsTTY() && stdoutIsTTY() {
		snap, err := watch.RunTUI(context.Background(), watch.TUIOptions{
			URL:    socketURL,
			TaskID: taskID,
			Logger: logx.New(),
		})
		if err != nil {
			return describeBackendError(client, err)
		}
		// The alternate screen is gone; restate where the task ended up.
		fmt.Printf("task %s: %s (%d ok, %d failed, elapsed %.1fs)\n",
			snap.TaskID, snap.Status, snap.Completed, snap.Failed, snap.Elapsed)
		return reportTaskEnd(snap)
	}

	tracker := progress.NewTracker(taskID)
	printer := watch.NewPrinter(os.Stdout)
	watcher, err := progress.NewWatcher(progress.WatcherOptions{
		URL:     socketURL,
		Tracker: tracker,
		OnUpdate: func(snap progress.Snapshot) {
			if !jsonOut {
				printer.Observe(snap)
			}
		},
		Logger: logx.New(),
	})
	if err != nil {
		return err
	}
	if err := watcher.Run(context.Background()); err != nil {
		return describeBackendError(client, err)
	}
	snap := tracker.Snapshot()
	if jsonOut {
		return printJSON(snap)
	}
	return reportTaskEnd(snap)
}

func reportTaskEnd(snap progress.Snapshot) error {
	switch snap.Status {
	case model.StatusCompleted:
		fmt.Printf("download artifacts with: remix-console download %s\n", snap.TaskID)
		return nil
	case model.StatusFailed:
		return fmt.Errorf("task %s failed: %d/%d file(s) failed", snap.TaskID, snap.Failed, snap.Total)
	case model.StatusCancelled:
		return nil
	default:
		fmt.Printf("task still running; resume with: remix-console watch %s\n", snap.TaskID)
		return nil
	}
}

func printPlanPreview(req model.LaunchRequest, jsonOut bool) error {
	rows := plan.Expand(req)
	if jsonOut {
		return printJSON(map[string]any{
			"session_id":     req.SessionID,
			"expected_total": plan.ExpectedTotal(req),
			"variants":       rows,
		})
	}

	fmt.Printf("plan for session %s:\n", req.SessionID)
	for _, row := range rows {
		preset := row.Preset
		if preset == "" {
			preset = "(strategy default)"
		}
		fmt.Printf("- %s/%s | %s | %s | %s\n", row.Folder, row.Filename, row.Mode, preset, row.Strategy)
	}
	fmt.Printf("expected total: %d output(s)\n", plan.ExpectedTotal(req))
	return nil
}

func parseVariants(raw string) ([]model.OutputSpec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var outputs []model.OutputSpec
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mode, preset, _ := strings.Cut(part, ":")
		mode = strings.TrimSpace(mode)
		if mode == "" {
			return nil, fmt.Errorf("variant %q: missing mixing mode", part)
		}
		outputs = append(outputs, model.OutputSpec{Mode: mode, StrategyPreset: strings.TrimSpace(preset)})
	}
	if len(outputs) == 0 {
		return nil, errors.New("--variants is empty; want mode[:preset][,mode[:preset]...]")
	}
	return outputs, nil
}

func parseStrategyOverrides(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	overrides := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		folder, strategy, ok := strings.Cut(part, "=")
		folder = strings.TrimSpace(folder)
		strategy = strings.TrimSpace(strategy)
		if !ok || folder == "" || strategy == "" {
			return nil, fmt.Errorf("strategy override %q: want folder=strategy", part)
		}
		overrides[folder] = strategy
	}
	return overrides, nil
}
