package progress

import "strings"

const (
	SeverityError    = "error"
	SeveritySuccess  = "success"
	SeverityProgress = "progress"
	SeverityInfo     = "info"
)

// severityMarkers is checked group by group; the first group with any
// marker present wins, so error beats success beats progress.
var severityMarkers = []struct {
	severity string
	markers  []string
}{
	{SeverityError, []string{"error", "failed", "失败", "错误"}},
	{SeveritySuccess, []string{"✓", "success", "完成", "成功"}},
	{SeverityProgress, []string{"time=", "frame=", "速度", "progress"}},
}

// ClassifySeverity buckets a log line by keyword. Matching is
// case-insensitive and independent of where in the line a marker sits.
func ClassifySeverity(line string) string {
	lower := strings.ToLower(line)
	for _, group := range severityMarkers {
		for _, marker := range group.markers {
			if strings.Contains(lower, marker) {
				return group.severity
			}
		}
	}
	return SeverityInfo
}
