package model

import (
	"path/filepath"
	"strings"
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".m4v":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
	".flv":  true,
	".wmv":  true,
}

// IsVideoFile reports whether the file name carries a recognized video
// extension. Hidden files never count.
func IsVideoFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return videoExtensions[strings.ToLower(filepath.Ext(base))]
}
