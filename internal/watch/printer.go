package watch

import (
	"fmt"
	"io"

	"remix-console/internal/model"
	"remix-console/internal/progress"
)

// Printer renders tracker snapshots as plain lines for non-interactive
// runs. Observe is driven from the watch goroutine, one snapshot at a
// time, so no locking is needed.
type Printer struct {
	out io.Writer

	last         progress.Snapshot
	resultsShown int
	summaryShown bool
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) Observe(snap progress.Snapshot) {
	if snap.Status != p.last.Status && !model.IsTerminalStatus(snap.Status) {
		fmt.Fprintf(p.out, "status: %s\n", snap.Status)
	}

	if snap.CurrentFile != "" && snap.CurrentFile != p.last.CurrentFile {
		done := snap.Completed + snap.Failed
		if snap.Total > 0 {
			fmt.Fprintf(p.out, "processing %s (%d/%d done)\n", snap.CurrentFile, done, snap.Total)
		} else {
			fmt.Fprintf(p.out, "processing %s\n", snap.CurrentFile)
		}
	}

	// A resync can rewrite history wholesale; never index past what the
	// snapshot actually carries.
	if p.resultsShown > len(snap.FileResults) {
		p.resultsShown = len(snap.FileResults)
	}
	for _, r := range snap.FileResults[p.resultsShown:] {
		marker := "ok"
		if r.Status != model.FileStatusDone {
			marker = "failed"
		}
		fmt.Fprintf(p.out, "  %s: %s (%.1fs)\n", marker, r.Filename, r.Elapsed)
	}
	p.resultsShown = len(snap.FileResults)

	if snap.Done() && !p.summaryShown {
		fmt.Fprintf(p.out, "%s: %d ok, %d failed", snap.Status, snap.Completed, snap.Failed)
		if snap.Elapsed > 0 {
			fmt.Fprintf(p.out, ", elapsed %.1fs", snap.Elapsed)
		}
		fmt.Fprintln(p.out)
		p.summaryShown = true
	}

	p.last = snap
}
