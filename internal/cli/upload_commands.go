package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"remix-console/internal/api"
	"remix-console/internal/logx"
	"remix-console/internal/model"
	"remix-console/internal/settings"
	"remix-console/internal/upload"
	"remix-console/internal/watch"
)

func runScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	root := strings.TrimSpace(fs.Arg(0))
	if root == "" {
		return errors.New("usage: remix-console scan <folder>")
	}

	categories, err := upload.ScanRoot(root)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(localScanResult(root, categories))
	}

	files, bytes := upload.Summary(categories)
	fmt.Printf("%d categor(ies), %d file(s), %s\n", len(categories), files, formatBytesIEC(bytes))
	for _, cat := range categories {
		fmt.Printf("- %s [%s] %d file(s)\n", cat.Folder, cat.Strategy, len(cat.Files))
		for _, f := range cat.Files {
			fmt.Printf("    %s (%s)\n", f.Name, formatBytesIEC(f.Size))
		}
	}
	fmt.Println("next: remix-console upload", root)
	return nil
}

func runUpload(args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	url := fs.String("url", "", "backend base URL")
	session := fs.String("session", "", "reuse an existing upload session id")
	concurrency := fs.Int("concurrency", 0, "concurrent category batches (0 = settings/default)")
	plain := fs.Bool("plain", false, "plain byte progress instead of the live dashboard")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	root := strings.TrimSpace(fs.Arg(0))
	if root == "" {
		return errors.New("usage: remix-console upload <folder>")
	}

	categories, err := upload.ScanRoot(root)
	if err != nil {
		return err
	}
	totalFiles, totalBytes := upload.Summary(categories)

	stored, err := settings.Read("")
	if err != nil {
		stored = settings.Settings{}
	}
	client := api.New(api.Options{
		BaseURL: settings.ResolveBackendURL(*url, stored),
		Logger:  logx.New(),
	})

	conc := *concurrency
	if conc <= 0 {
		conc = stored.UploadConcurrency
	}

	opts := upload.CoordinatorOptions{
		Uploader:    client,
		SessionID:   strings.TrimSpace(*session),
		Concurrency: conc,
		Logger:      logx.New(),
	}

	var dash *watch.UploadDashboard
	var bar *progressbar.ProgressBar
	switch {
	case *jsonOut:
		// No live UI; the report at the end is the output.
	case *plain || !stdoutIsTTY():
		bar = newByteBar(totalBytes, "uploading")
		tally := newByteTally()
		opts.OnProgress = func(p upload.Progress) {
			_ = bar.Add64(tally.delta(p))
		}
		opts.OnFileDone = func(o upload.FileOutcome) {
			if o.Err != nil {
				fmt.Fprintf(os.Stderr, "failed %s/%s: %v\n", o.Category, o.Name, o.Err)
			}
		}
	default:
		dash = watch.NewUploadDashboard(totalFiles)
		opts.OnProgress = dash.HandleProgress
		opts.OnFileDone = dash.HandleOutcome
	}

	coord, err := upload.NewCoordinator(opts)
	if err != nil {
		return err
	}

	if !*jsonOut {
		fmt.Printf("uploading %d file(s) (%s) in %d categor(ies), session %s\n",
			totalFiles, formatBytesIEC(totalBytes), len(categories), coord.SessionID())
	}
	if dash != nil {
		dash.Start()
	}
	result, runErr := coord.Run(context.Background(), categories)
	if dash != nil {
		dash.Stop()
	}
	if bar != nil {
		_ = bar.Finish()
	}
	if runErr != nil {
		return describeBackendError(client, runErr)
	}

	if *jsonOut {
		return printJSON(uploadReport(result))
	}

	fmt.Printf("session: %s\n", result.SessionID)
	fmt.Printf("uploaded: %d file(s), failed: %d\n", result.Uploaded, result.Failed)
	if len(result.Categories) > 0 {
		fmt.Println("categories on backend:")
		for _, cat := range result.Categories {
			fmt.Printf("  - %s [%s] %d file(s)\n", cat.Folder, cat.Strategy, cat.FileCount)
		}
	}
	if result.Failed > 0 {
		fmt.Println("some files failed; rerun with --session", result.SessionID, "to retry them")
	}
	fmt.Printf("next: remix-console run --session %s\n", result.SessionID)
	return nil
}

// localScanResult shapes a local scan like the backend's session scan so
// the JSON output of scan and of the post-upload re-query line up.
func localScanResult(root string, categories []upload.LocalCategory) model.ScanResult {
	result := model.ScanResult{Categories: make([]model.ScanCategory, 0, len(categories))}
	if abs, err := filepath.Abs(root); err == nil {
		result.Path = abs
	}
	for _, cat := range categories {
		names := make([]string, 0, len(cat.Files))
		for _, f := range cat.Files {
			names = append(names, f.Name)
		}
		result.Categories = append(result.Categories, model.ScanCategory{
			Folder:    cat.Folder,
			FileCount: len(names),
			Files:     names,
			Strategy:  cat.Strategy,
		})
	}
	return result
}

type uploadFileReport struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Bytes    int64  `json:"bytes"`
	Error    string `json:"error,omitempty"`
}

type uploadResultReport struct {
	SessionID  string               `json:"session_id"`
	Uploaded   int                  `json:"uploaded"`
	Failed     int                  `json:"failed"`
	Files      []uploadFileReport   `json:"files"`
	Categories []model.ScanCategory `json:"categories,omitempty"`
}

func uploadReport(result upload.Result) uploadResultReport {
	report := uploadResultReport{
		SessionID:  result.SessionID,
		Uploaded:   result.Uploaded,
		Failed:     result.Failed,
		Files:      make([]uploadFileReport, 0, len(result.Outcomes)),
		Categories: result.Categories,
	}
	for _, o := range result.Outcomes {
		row := uploadFileReport{Category: o.Category, Name: o.Name, Bytes: o.Bytes}
		if o.Err != nil {
			row.Error = o.Err.Error()
		}
		report.Files = append(report.Files, row)
	}
	return report
}

func newByteBar(total int64, label string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(20),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { fmt.Fprint(os.Stderr, "\n") }),
	)
}

// byteTally converts the coordinator's cumulative per-file progress into
// the deltas a single shared bar consumes. Categories report from their
// own goroutines, so the map is locked.
type byteTally struct {
	mu   sync.Mutex
	seen map[string]int64
}

func newByteTally() *byteTally {
	return &byteTally{seen: make(map[string]int64)}
}

func (t *byteTally) delta(p upload.Progress) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := p.Category + "/" + p.Name
	d := p.Sent - t.seen[key]
	if d < 0 {
		d = 0
	}
	t.seen[key] = p.Sent
	return d
}
