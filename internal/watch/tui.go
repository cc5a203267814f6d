package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"remix-console/internal/model"
	"remix-console/internal/progress"
)

const logTailRows = 12

var (
	watchTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	watchMutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	watchErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	watchOKStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	watchProgressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

type snapshotMsg progress.Snapshot

type watchFinishedMsg struct {
	err error
}

type watchModel struct {
	taskID string
	spin   spinner.Model
	snap   progress.Snapshot
	width  int

	quitting bool
	err      error
}

func newWatchModel(taskID string) watchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = watchTitleStyle
	return watchModel{
		taskID: taskID,
		spin:   s,
		snap:   progress.Snapshot{TaskID: taskID, Status: model.StatusPending},
	}
}

func (m watchModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case snapshotMsg:
		m.snap = progress.Snapshot(msg)
		if m.snap.Done() {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	case watchFinishedMsg:
		m.err = msg.err
		m.quitting = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m watchModel) View() string {
	if m.quitting {
		return ""
	}
	width := m.width
	if width <= 0 {
		width = 100
	}

	header := watchTitleStyle.Render("remix-console watch " + m.taskID)

	status := m.statusLine()
	body := []string{header, status}

	if m.snap.CurrentFile != "" {
		body = append(body, fmt.Sprintf("current: %s %s %d%%",
			m.snap.CurrentFile, renderBar(m.snap.Percent, 24), m.snap.Percent))
	}

	if tail := m.logTail(); len(tail) > 0 {
		body = append(body, watchMutedStyle.Render(strings.Repeat("-", minInt(width, 100))))
		body = append(body, tail...)
	}

	body = append(body,
		watchMutedStyle.Render(strings.Repeat("-", minInt(width, 100))),
		watchMutedStyle.Render("q: stop watching (processing continues on the backend)"))
	return strings.Join(body, "\n") + "\n"
}

func (m watchModel) statusLine() string {
	parts := []string{m.spin.View() + statusStyle(m.snap.Status).Render(m.snap.Status)}
	done := m.snap.Completed + m.snap.Failed
	if m.snap.Total > 0 {
		parts = append(parts, fmt.Sprintf("done %d/%d", done, m.snap.Total))
	} else if done > 0 {
		parts = append(parts, fmt.Sprintf("done %d", done))
	}
	if m.snap.Failed > 0 {
		parts = append(parts, watchErrorStyle.Render(fmt.Sprintf("failed %d", m.snap.Failed)))
	}
	if m.snap.Elapsed > 0 {
		parts = append(parts, fmt.Sprintf("elapsed %.1fs", m.snap.Elapsed))
	}
	return strings.Join(parts, " | ")
}

func (m watchModel) logTail() []string {
	logs := m.snap.Logs
	if len(logs) > logTailRows {
		logs = logs[len(logs)-logTailRows:]
	}
	lines := make([]string, 0, len(logs))
	for _, l := range logs {
		lines = append(lines, severityStyle(l.Severity).Render("  "+l.Text))
	}
	return lines
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case model.StatusCompleted:
		return watchOKStyle
	case model.StatusFailed, model.StatusCancelled:
		return watchErrorStyle
	case model.StatusRunning:
		return watchTitleStyle
	default:
		return watchMutedStyle
	}
}

func severityStyle(severity string) lipgloss.Style {
	switch severity {
	case progress.SeverityError:
		return watchErrorStyle
	case progress.SeveritySuccess:
		return watchOKStyle
	case progress.SeverityProgress:
		return watchProgressStyle
	default:
		return watchMutedStyle
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

type TUIOptions struct {
	// URL is the progress socket address for the task.
	URL    string
	TaskID string
	Logger *slog.Logger
}

// RunTUI watches one task in a full-screen view until the task reaches a
// terminal status or the user quits, then returns the last tracked
// snapshot. Quitting the view never cancels the task itself.
func RunTUI(ctx context.Context, opts TUIOptions) (progress.Snapshot, error) {
	tracker := progress.NewTracker(opts.TaskID)

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newWatchModel(opts.TaskID), tea.WithAltScreen(), tea.WithContext(watchCtx))

	watcher, err := progress.NewWatcher(progress.WatcherOptions{
		URL:     opts.URL,
		Tracker: tracker,
		Logger:  opts.Logger,
		OnUpdate: func(snap progress.Snapshot) {
			p.Send(snapshotMsg(snap))
		},
	})
	if err != nil {
		return progress.Snapshot{}, err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if werr := watcher.Run(watchCtx); werr != nil && !errors.Is(werr, context.Canceled) {
			p.Send(watchFinishedMsg{err: werr})
			return
		}
		p.Send(watchFinishedMsg{})
	}()

	finalModel, runErr := p.Run()
	cancel()
	wg.Wait()

	snap := tracker.Snapshot()
	if runErr != nil {
		return snap, runErr
	}
	if fm, ok := finalModel.(watchModel); ok && fm.err != nil {
		return snap, fm.err
	}
	return snap, nil
}
