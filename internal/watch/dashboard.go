package watch

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"remix-console/internal/upload"
)

// lingerDelay keeps a finished upload row on the board briefly so fast
// uploads are seen reaching 100% before the row disappears.
const lingerDelay = 800 * time.Millisecond

const dashboardTick = 700 * time.Millisecond

type uploadRow struct {
	category string
	name     string
	sent     int64
	total    int64
	done     bool
	failed   bool
	doneAt   time.Time
}

func (r *uploadRow) key() string {
	return r.category + "/" + r.name
}

// UploadDashboard is a live terminal board for one upload batch: one row
// per in-flight file, header totals, finished rows pruned after a short
// linger.
type UploadDashboard struct {
	mu sync.Mutex

	rows  map[string]*uploadRow
	order []string

	uploaded   int
	failed     int
	totalFiles int

	out    io.Writer
	linger time.Duration
	now    func() time.Time

	stop chan struct{}
}

func NewUploadDashboard(totalFiles int) *UploadDashboard {
	return &UploadDashboard{
		rows:       make(map[string]*uploadRow),
		totalFiles: totalFiles,
		out:        os.Stdout,
		linger:     lingerDelay,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
}

func (d *UploadDashboard) Start() {
	go func() {
		t := time.NewTicker(dashboardTick)
		defer t.Stop()
		for {
			select {
			case <-d.stop:
				return
			case <-t.C:
				d.render()
			}
		}
	}()
}

func (d *UploadDashboard) Stop() {
	close(d.stop)
	d.render()
}

// HandleProgress is safe to call from several upload goroutines at once.
func (d *UploadDashboard) HandleProgress(p upload.Progress) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := p.Category + "/" + p.Name
	row, ok := d.rows[key]
	if !ok {
		row = &uploadRow{category: p.Category, name: p.Name}
		d.rows[key] = row
		d.order = append(d.order, key)
	}
	row.sent = p.Sent
	row.total = p.Total
}

func (d *UploadDashboard) HandleOutcome(o upload.FileOutcome) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := o.Category + "/" + o.Name
	row, ok := d.rows[key]
	if !ok {
		row = &uploadRow{category: o.Category, name: o.Name, sent: o.Bytes, total: o.Bytes}
		d.rows[key] = row
		d.order = append(d.order, key)
	}
	row.done = true
	row.doneAt = d.now()
	if o.Err != nil {
		row.failed = true
		d.failed++
		return
	}
	row.sent = row.total
	d.uploaded++
}

// prune drops rows that have lingered long enough. Callers hold the lock.
func (d *UploadDashboard) prune() {
	cutoff := d.now()
	kept := d.order[:0]
	for _, key := range d.order {
		row := d.rows[key]
		if row.done && cutoff.Sub(row.doneAt) >= d.linger {
			delete(d.rows, key)
			continue
		}
		kept = append(kept, key)
	}
	d.order = kept
}

func (d *UploadDashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.prune()

	keys := append([]string(nil), d.order...)
	sort.Strings(keys)

	active := 0
	for _, key := range keys {
		if !d.rows[key].done {
			active++
		}
	}

	var b strings.Builder
	b.WriteString("\033[H\033[2J")
	b.WriteString(fmt.Sprintf("remix-console upload | files %d/%d | failed %d | active %d\n",
		d.uploaded+d.failed, d.totalFiles, d.failed, active))
	b.WriteString(strings.Repeat("-", 100) + "\n")

	if len(keys) == 0 {
		b.WriteString("(no uploads in flight)\n")
	} else {
		for _, key := range keys {
			b.WriteString(d.rows[key].render() + "\n")
		}
	}

	fmt.Fprint(d.out, b.String())
}

func (r *uploadRow) render() string {
	label := r.key()
	if len(label) > 46 {
		label = label[:43] + "..."
	}

	if r.failed {
		return fmt.Sprintf("%-46s %s failed", label, renderBar(0, 24))
	}
	pct := percentOf(r.sent, r.total)
	parts := []string{fmt.Sprintf("%-46s %s %3d%%", label, renderBar(pct, 24), pct)}
	if r.total > 0 {
		parts = append(parts, fmt.Sprintf("%s/%s", formatBytesIEC(r.sent), formatBytesIEC(r.total)))
	}
	return strings.Join(parts, "  ")
}

func percentOf(sent, total int64) int {
	if total <= 0 {
		return 0
	}
	pct := int(sent * 100 / total)
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

func renderBar(pct, width int) string {
	if width <= 0 {
		return ""
	}
	filled := pct * width / 100
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func formatBytesIEC(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for q := n / unit; q >= unit; q /= unit {
		div *= unit
		exp++
	}
	value := float64(n) / float64(div)
	suffix := "KMGTPE"[exp]
	return strconv.FormatFloat(value, 'f', 1, 64) + " " + string(suffix) + "iB"
}
