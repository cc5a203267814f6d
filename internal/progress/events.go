package progress

import (
	"encoding/json"
	"errors"
	"fmt"

	"remix-console/internal/model"
)

const (
	EventState     = "state"
	EventStarted   = "started"
	EventFileStart = "file_start"
	EventFileLog   = "file_log"
	EventFileDone  = "file_done"
	EventFinished  = "finished"
	EventCancelled = "cancelled"
)

var ErrMalformedEvent = errors.New("malformed progress event")

// Event is one frame off the progress socket. Fields are populated per
// type; absent fields keep their zero value.
type Event struct {
	Type        string             `json:"type"`
	Status      string             `json:"status,omitempty"`
	Filename    string             `json:"filename,omitempty"`
	Line        string             `json:"line,omitempty"`
	Result      *model.FileResult  `json:"result,omitempty"`
	Completed   int                `json:"completed,omitempty"`
	Failed      int                `json:"failed,omitempty"`
	Total       int                `json:"total,omitempty"`
	CurrentFile string             `json:"current_file,omitempty"`
	FileResults []model.FileResult `json:"file_results,omitempty"`
	Elapsed     float64            `json:"elapsed,omitempty"`
}

// ParseEvent decodes a frame and rejects anything that cannot be applied
// safely: non-JSON payloads, unknown or missing types, wrong field types,
// and per-type required fields that are absent. A rejected frame must
// leave the tracker untouched, so validation happens entirely here.
func ParseEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	switch ev.Type {
	case EventState:
		if ev.Status == "" || !model.IsKnownStatus(ev.Status) {
			return Event{}, fmt.Errorf("%w: state with status %q", ErrMalformedEvent, ev.Status)
		}
	case EventStarted:
		// status is implied running; total may legitimately be zero
	case EventFileStart:
		if ev.Filename == "" {
			return Event{}, fmt.Errorf("%w: file_start without filename", ErrMalformedEvent)
		}
	case EventFileLog:
		if ev.Filename == "" {
			return Event{}, fmt.Errorf("%w: file_log without filename", ErrMalformedEvent)
		}
	case EventFileDone:
		if ev.Result == nil {
			return Event{}, fmt.Errorf("%w: file_done without result", ErrMalformedEvent)
		}
	case EventFinished:
		if ev.Status != model.StatusCompleted && ev.Status != model.StatusFailed {
			return Event{}, fmt.Errorf("%w: finished with status %q", ErrMalformedEvent, ev.Status)
		}
	case EventCancelled:
		// carries no payload beyond the status
	default:
		return Event{}, fmt.Errorf("%w: unknown type %q", ErrMalformedEvent, ev.Type)
	}
	return ev, nil
}
