package progress

import (
	"math"
	"regexp"
	"strconv"
)

// Processor logs announce the clip duration once ("时长: 12.5秒" from the
// analyzer, "Duration: 00:00:12.50" from raw ffmpeg) and then tick the
// encode clock on ffmpeg progress lines ("time=00:00:06.25").
var (
	reDurationCN = regexp.MustCompile(`时长[:：]\s*([0-9]+(?:\.[0-9]+)?)\s*秒`)
	reDurationFF = regexp.MustCompile(`Duration:\s*(\d+):(\d{2}):(\d{2})\.(\d+)`)
	reClock      = regexp.MustCompile(`time=(\d+):(\d{2}):(\d{2})\.(\d+)`)
)

// estimateTail bounds how far back each scan looks. Markers repeat often
// enough that a short tail always catches up after a resync.
const estimateTail = 5

type estimate struct {
	duration float64
	clock    float64
}

// observe updates the estimate from one log line. Later lines win.
func (e *estimate) observe(line string) {
	if m := reDurationCN.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			e.duration = v
		}
	} else if m := reDurationFF.FindStringSubmatch(line); m != nil {
		if v := clockSeconds(m); v > 0 {
			e.duration = v
		}
	}
	if m := reClock.FindStringSubmatch(line); m != nil {
		e.clock = clockSeconds(m)
	}
}

// rescan replays the most recent lines oldest-first so the newest marker
// ends up in effect.
func (e *estimate) rescan(lines []LogLine) {
	start := len(lines) - estimateTail
	if start < 0 {
		start = 0
	}
	for _, l := range lines[start:] {
		e.observe(l.Text)
	}
}

func (e *estimate) reset() {
	e.duration = 0
	e.clock = 0
}

// percent is the in-flight completion estimate, pinned below 100 so a
// running file never reads as finished. Unknown duration reads as 0.
func (e estimate) percent() int {
	if e.duration <= 0 {
		return 0
	}
	p := int(math.Round(e.clock / e.duration * 100))
	if p > 99 {
		p = 99
	}
	if p < 0 {
		p = 0
	}
	return p
}

func clockSeconds(m []string) float64 {
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	frac, _ := strconv.ParseFloat("0."+m[4], 64)
	return float64(h)*3600 + float64(min)*60 + float64(sec) + frac
}
