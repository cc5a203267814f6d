package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"remix-console/internal/api"
	"remix-console/internal/logx"
	"remix-console/internal/model"
)

// DefaultCategoryConcurrency bounds how many category batches upload at
// once. Files inside a batch always go one at a time, in name order.
const DefaultCategoryConcurrency = 3

// Uploader is the slice of the backend client the coordinator needs.
type Uploader interface {
	UploadFile(ctx context.Context, opts api.UploadFileOptions) error
	ScanSession(ctx context.Context, sessionID string) (model.ScanResult, error)
}

type Progress struct {
	Category string
	Name     string
	Sent     int64
	Total    int64
}

type FileOutcome struct {
	Category string
	Name     string
	Bytes    int64
	Err      error
}

type CoordinatorOptions struct {
	Uploader Uploader
	// SessionID is generated when empty.
	SessionID   string
	Concurrency int
	// OnProgress receives per-file byte progress. It may be called from
	// several goroutines, one per in-flight category.
	OnProgress func(Progress)
	OnFileDone func(FileOutcome)
	Logger     *slog.Logger
}

type Result struct {
	SessionID string
	Uploaded  int
	Failed    int
	Outcomes  []FileOutcome
	// Categories is the authoritative post-upload list re-queried from
	// the backend, nil when the re-query itself failed.
	Categories []model.ScanCategory
}

// Coordinator streams scanned categories into an upload session.
type Coordinator struct {
	uploader    Uploader
	sessionID   string
	concurrency int
	onProgress  func(Progress)
	onFileDone  func(FileOutcome)
	logger      *slog.Logger
}

func NewCoordinator(opts CoordinatorOptions) (*Coordinator, error) {
	if opts.Uploader == nil {
		return nil, errors.New("upload: uploader is required")
	}
	c := &Coordinator{
		uploader:    opts.Uploader,
		sessionID:   opts.SessionID,
		concurrency: opts.Concurrency,
		onProgress:  opts.OnProgress,
		onFileDone:  opts.OnFileDone,
		logger:      opts.Logger,
	}
	if c.sessionID == "" {
		c.sessionID = uuid.NewString()
	}
	if c.concurrency <= 0 {
		c.concurrency = DefaultCategoryConcurrency
	}
	if c.logger == nil {
		c.logger = logx.Nop()
	}
	return c, nil
}

func (c *Coordinator) SessionID() string {
	return c.sessionID
}

// Run uploads every category as its own sequential batch, several
// batches in flight at once. A file that fails is recorded and skipped
// past, never aborting its siblings. After all batches settle the
// backend's category list is re-queried so callers see the canonical
// state rather than a client-side guess.
func (c *Coordinator) Run(ctx context.Context, categories []LocalCategory) (Result, error) {
	if len(categories) == 0 {
		return Result{SessionID: c.sessionID}, fmt.Errorf("upload: nothing to upload")
	}

	var mu sync.Mutex
	var outcomes []FileOutcome

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, cat := range categories {
		g.Go(func() error {
			for _, file := range cat.Files {
				if err := gctx.Err(); err != nil {
					return err
				}
				outcome := c.uploadOne(gctx, cat.Folder, file)
				mu.Lock()
				outcomes = append(outcomes, outcome)
				mu.Unlock()
				if c.onFileDone != nil {
					c.onFileDone(outcome)
				}
			}
			return nil
		})
	}
	err := g.Wait()

	sort.Slice(outcomes, func(i, j int) bool {
		if outcomes[i].Category != outcomes[j].Category {
			return outcomes[i].Category < outcomes[j].Category
		}
		return outcomes[i].Name < outcomes[j].Name
	})

	result := Result{SessionID: c.sessionID, Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Err != nil {
			result.Failed++
		} else {
			result.Uploaded++
		}
	}
	if err != nil {
		return result, err
	}

	// Categories changed: ask the backend what it actually has now.
	scan, scanErr := c.uploader.ScanSession(ctx, c.sessionID)
	if scanErr != nil {
		return result, fmt.Errorf("re-query categories: %w", scanErr)
	}
	result.Categories = scan.Categories
	return result, nil
}

func (c *Coordinator) uploadOne(ctx context.Context, category string, file LocalFile) FileOutcome {
	outcome := FileOutcome{Category: category, Name: file.Name, Bytes: file.Size}

	var report func(sent, total int64)
	if c.onProgress != nil {
		report = func(sent, total int64) {
			c.onProgress(Progress{Category: category, Name: file.Name, Sent: sent, Total: total})
		}
	}
	err := c.uploader.UploadFile(ctx, api.UploadFileOptions{
		SessionID: c.sessionID,
		Category:  category,
		Path:      file.Path,
		Progress:  report,
	})
	if err != nil {
		c.logger.Debug("file upload failed", "category", category, "file", file.Name, "error", err)
		outcome.Err = err
	}
	return outcome
}
