package model

import "fmt"

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

const (
	FileStatusPending = "pending"
	FileStatusRunning = "running"
	FileStatusDone    = "done"
	FileStatusFailed  = "failed"
)

var allowedTransitions = map[string]map[string]bool{
	"": {
		StatusPending: true,
		StatusRunning: true, // first frame observed mid-run
	},
	StatusPending: {
		StatusPending:   true,
		StatusRunning:   true,
		StatusCancelled: true,
	},
	StatusRunning: {
		StatusRunning:   true,
		StatusCompleted: true,
		StatusFailed:    true,
		StatusCancelled: true,
	},
	StatusCompleted: {
		StatusCompleted: true,
	},
	StatusFailed: {
		StatusFailed: true,
	},
	StatusCancelled: {
		StatusCancelled: true,
	},
}

func IsKnownStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return ok
}

func IsTerminalStatus(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

func CanTransition(from, to string) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

func TransitionStatus(current *string, to string) error {
	from := *current
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid task status transition: %q -> %q", from, to)
	}
	*current = to
	return nil
}
