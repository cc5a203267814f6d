package progress

import (
	"fmt"
	"reflect"
	"testing"

	"pgregory.net/rapid"

	"remix-console/internal/model"
)

func genEvent() *rapid.Generator[Event] {
	return rapid.Custom(func(t *rapid.T) Event {
		typ := rapid.SampledFrom([]string{
			EventState, EventStarted, EventFileStart, EventFileLog,
			EventFileDone, EventFinished, EventCancelled,
		}).Draw(t, "type")

		filename := fmt.Sprintf("cat/f%d.mp4", rapid.IntRange(0, 9).Draw(t, "file"))

		switch typ {
		case EventState:
			n := rapid.IntRange(0, 4).Draw(t, "results")
			results := make([]model.FileResult, n)
			for i := range results {
				results[i] = model.FileResult{
					Filename: fmt.Sprintf("cat/r%d.mp4", i),
					Status:   rapid.SampledFrom([]string{model.FileStatusDone, model.FileStatusFailed}).Draw(t, "rstatus"),
				}
			}
			return Event{
				Type:        EventState,
				Status:      rapid.SampledFrom([]string{model.StatusPending, model.StatusRunning, model.StatusCompleted, model.StatusFailed, model.StatusCancelled}).Draw(t, "status"),
				Completed:   rapid.IntRange(0, 50).Draw(t, "completed"),
				Failed:      rapid.IntRange(0, 50).Draw(t, "failed"),
				Total:       rapid.IntRange(0, 100).Draw(t, "total"),
				CurrentFile: filename,
				FileResults: results,
			}
		case EventStarted:
			return Event{Type: EventStarted, Status: model.StatusRunning, Total: rapid.IntRange(0, 100).Draw(t, "total")}
		case EventFileStart:
			return Event{Type: EventFileStart, Filename: filename}
		case EventFileLog:
			line := rapid.SampledFrom([]string{
				"时长: 12.5秒",
				"时长: 0.5秒",
				"time=00:00:06.25",
				"time=01:02:03.99",
				"frame= 50 time=00:00:99.00 speed=3x",
				"✓ 完成",
				"error: boom",
				"plain line",
			}).Draw(t, "line")
			return Event{Type: EventFileLog, Filename: filename, Line: line}
		case EventFileDone:
			return Event{Type: EventFileDone, Filename: filename, Result: &model.FileResult{
				Filename: filename,
				Status:   rapid.SampledFrom([]string{model.FileStatusDone, model.FileStatusFailed}).Draw(t, "dstatus"),
				Elapsed:  float64(rapid.IntRange(0, 600).Draw(t, "elapsed")) / 10,
			}}
		case EventFinished:
			return Event{
				Type:      EventFinished,
				Status:    rapid.SampledFrom([]string{model.StatusCompleted, model.StatusFailed}).Draw(t, "fstatus"),
				Completed: rapid.IntRange(0, 50).Draw(t, "fcompleted"),
				Failed:    rapid.IntRange(0, 50).Draw(t, "ffailed"),
				Total:     rapid.IntRange(0, 100).Draw(t, "ftotal"),
			}
		default:
			return Event{Type: EventCancelled, Status: model.StatusCancelled}
		}
	})
}

func TestTrackerInvariantsUnderArbitraryStreams(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tr := NewTracker("prop")
		events := rapid.SliceOfN(genEvent(), 0, 250).Draw(rt, "events")

		for _, ev := range events {
			tr.Apply(ev)
			snap := tr.Snapshot()

			if !model.IsKnownStatus(snap.Status) || snap.Status == "" {
				rt.Fatalf("unknown status %q", snap.Status)
			}
			if snap.Percent < 0 || snap.Percent > 100 {
				rt.Fatalf("percent out of range: %d", snap.Percent)
			}
			// 100 is only ever the fixed reading of a file whose result
			// already landed; an in-flight estimate pins at 99.
			if snap.Percent == 100 {
				finished := false
				for _, r := range snap.FileResults {
					if r.Filename == snap.CurrentFile {
						finished = true
						break
					}
				}
				if snap.CurrentFile == "" || !finished {
					rt.Fatalf("full percent without a finished current file")
				}
			}
			if len(snap.Logs) > logRingCap {
				rt.Fatalf("log ring over capacity: %d", len(snap.Logs))
			}
			if snap.Completed < 0 || snap.Failed < 0 {
				rt.Fatalf("negative counts: %d/%d", snap.Completed, snap.Failed)
			}
		}
	})
}

func TestTrackerFileDoneCountingProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tr := NewTracker("prop-counts")
		n := rapid.IntRange(0, 120).Draw(rt, "n")

		for i := 0; i < n; i++ {
			name := fmt.Sprintf("cat/f%d.mp4", i)
			status := rapid.SampledFrom([]string{model.FileStatusDone, model.FileStatusFailed}).Draw(rt, "status")
			tr.Apply(Event{Type: EventFileDone, Filename: name, Result: &model.FileResult{Filename: name, Status: status}})
		}

		snap := tr.Snapshot()
		if snap.Completed+snap.Failed != n {
			rt.Fatalf("completed+failed = %d, want %d", snap.Completed+snap.Failed, n)
		}
		if len(snap.FileResults) != n {
			rt.Fatalf("file results = %d, want %d", len(snap.FileResults), n)
		}
	})
}

func TestTrackerRejectedFramesLeaveStateUntouchedProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tr := NewTracker("prop-junk")
		tr.Apply(Event{Type: EventStarted, Total: 3})
		tr.Apply(Event{Type: EventFileStart, Filename: "cat/a.mp4"})
		before := tr.Snapshot()

		raw := rapid.SampledFrom([]string{
			`{"type":"state"}`,
			`{"type":"zzz","total":3}`,
			`nonsense`,
			`{"completed":4}`,
			`{"type":"file_done","result":17}`,
			`{"type":"finished","status":"pending"}`,
		}).Draw(rt, "raw")

		if tr.ApplyRaw([]byte(raw)) {
			rt.Fatalf("frame %q unexpectedly accepted", raw)
		}
		if !reflect.DeepEqual(before, tr.Snapshot()) {
			rt.Fatalf("rejected frame mutated the snapshot")
		}
	})
}
