package progress

import (
	"sync"

	"remix-console/internal/model"
)

const (
	logRingCap  = 200
	logRingKeep = 150
)

type LogLine struct {
	Text     string `json:"text"`
	Severity string `json:"severity"`
}

// Snapshot is an immutable copy of the tracker state. Percent refers to
// the file currently shown: an estimate while it is in flight, a fixed
// 100 once its result has arrived.
type Snapshot struct {
	TaskID      string             `json:"task_id"`
	Status      string             `json:"status"`
	Total       int                `json:"total"`
	Completed   int                `json:"completed"`
	Failed      int                `json:"failed"`
	CurrentFile string             `json:"current_file,omitempty"`
	Percent     int                `json:"percent"`
	Elapsed     float64            `json:"elapsed,omitempty"`
	FileResults []model.FileResult `json:"file_results,omitempty"`
	Logs        []LogLine          `json:"logs,omitempty"`
}

func (s Snapshot) Done() bool {
	return model.IsTerminalStatus(s.Status)
}

// Tracker folds the progress event stream into a consistent view of one
// task. A single goroutine applies events; any goroutine may take
// snapshots.
type Tracker struct {
	mu          sync.Mutex
	taskID      string
	status      string
	total       int
	completed   int
	failed      int
	currentFile string
	currentDone bool
	elapsed     float64
	fileResults []model.FileResult
	logs        []LogLine
	est         estimate
}

func NewTracker(taskID string) *Tracker {
	return &Tracker{taskID: taskID, status: model.StatusPending}
}

func (t *Tracker) TaskID() string {
	return t.taskID
}

// ApplyRaw parses and applies one frame. Frames that fail validation are
// dropped whole and leave the state untouched.
func (t *Tracker) ApplyRaw(data []byte) bool {
	ev, err := ParseEvent(data)
	if err != nil {
		return false
	}
	t.Apply(ev)
	return true
}

func (t *Tracker) Apply(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Type {
	case EventState:
		t.applyState(ev)
	case EventStarted:
		if !model.CanTransition(t.status, model.StatusRunning) {
			return
		}
		t.status = model.StatusRunning
		if ev.Total > 0 {
			t.total = ev.Total
		}
	case EventFileStart:
		if model.IsTerminalStatus(t.status) {
			return
		}
		t.currentFile = ev.Filename
		t.currentDone = false
		t.logs = nil
		t.est.reset()
	case EventFileLog:
		if model.IsTerminalStatus(t.status) {
			return
		}
		t.appendLog(ev.Line)
	case EventFileDone:
		if model.IsTerminalStatus(t.status) {
			return
		}
		t.applyFileDone(*ev.Result)
	case EventFinished:
		if !model.CanTransition(t.status, ev.Status) {
			return
		}
		t.status = ev.Status
		t.completed = ev.Completed
		t.failed = ev.Failed
		if ev.Total > 0 {
			t.total = ev.Total
		}
		t.elapsed = ev.Elapsed
		t.currentFile = ""
		t.currentDone = false
		t.est.reset()
	case EventCancelled:
		if !model.CanTransition(t.status, model.StatusCancelled) {
			return
		}
		t.status = model.StatusCancelled
		t.currentFile = ""
		t.currentDone = false
		t.est.reset()
	}
}

// applyState replaces the tracked state wholesale. Counts are adopted as
// sent, never merged with whatever the incremental events accumulated.
func (t *Tracker) applyState(ev Event) {
	fileChanged := ev.CurrentFile != t.currentFile

	t.status = ev.Status
	t.completed = ev.Completed
	t.failed = ev.Failed
	t.total = ev.Total
	t.currentFile = ev.CurrentFile
	t.currentDone = false
	t.elapsed = ev.Elapsed
	t.fileResults = append([]model.FileResult(nil), ev.FileResults...)

	// The log ring belongs to the file in flight; a resync that lands on
	// a different file invalidates it.
	if fileChanged {
		t.logs = nil
		t.est.reset()
	}
}

// applyFileDone records a result. The current-file display holds until
// the next file_start or a terminal event; the finished file reads as a
// fixed 100% in the meantime.
func (t *Tracker) applyFileDone(result model.FileResult) {
	t.fileResults = append(t.fileResults, result)
	if result.Status == model.FileStatusDone {
		t.completed++
	} else {
		t.failed++
	}
	if t.currentFile == result.Filename {
		t.currentDone = true
	}
}

func (t *Tracker) appendLog(line string) {
	if len(t.logs) >= logRingCap {
		trimmed := make([]LogLine, logRingKeep)
		copy(trimmed, t.logs[len(t.logs)-logRingKeep:])
		t.logs = trimmed
	}
	t.logs = append(t.logs, LogLine{Text: line, Severity: ClassifySeverity(line)})
	t.est.rescan(t.logs)
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	percent := t.est.percent()
	if t.currentDone {
		percent = 100
	}
	snap := Snapshot{
		TaskID:      t.taskID,
		Status:      t.status,
		Total:       t.total,
		Completed:   t.completed,
		Failed:      t.failed,
		CurrentFile: t.currentFile,
		Percent:     percent,
		Elapsed:     t.elapsed,
	}
	if len(t.fileResults) > 0 {
		snap.FileResults = make([]model.FileResult, len(t.fileResults))
		copy(snap.FileResults, t.fileResults)
	}
	if len(t.logs) > 0 {
		snap.Logs = make([]LogLine, len(t.logs))
		copy(snap.Logs, t.logs)
	}
	return snap
}
