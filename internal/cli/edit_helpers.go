package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tidwall/gjson"
)

func parseBool(raw string) (bool, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "y", "yes", "true", "1":
		return true, true
	case "n", "no", "false", "0", "":
		return false, true
	default:
		return false, false
	}
}

func boolToYN(v bool) string {
	if v {
		return "y"
	}
	return "n"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func kv(k, v string) string {
	return fmt.Sprintf("%s: %s", k, v)
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}

func wrapOrTrim(s string, width int) string {
	if width <= 0 {
		return s
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	return truncateRunes(s, width)
}

func clampInt(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func defaultIfEmpty(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func resizeEditInput(f *editForm, width int) *editForm {
	if f == nil {
		return nil
	}
	f.Input.Width = clampInt(width-8, 20, 120)
	return f
}

// blobInt reads an integer from the config blob, falling back when the
// path is missing or not a number.
func blobInt(blob []byte, path string, fallback int) int {
	r := gjson.GetBytes(blob, path)
	if !r.Exists() || r.Type != gjson.Number {
		return fallback
	}
	return int(r.Int())
}

func blobString(blob []byte, path, fallback string) string {
	r := gjson.GetBytes(blob, path)
	if !r.Exists() || r.Type != gjson.String {
		return fallback
	}
	return r.String()
}

func blobBool(blob []byte, path string, fallback bool) bool {
	r := gjson.GetBytes(blob, path)
	if !r.Exists() || !r.IsBool() {
		return fallback
	}
	return r.Bool()
}
