package upload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"remix-console/internal/model"
)

// FallbackCategory labels files whose inferred category name comes out
// empty after sanitizing.
const FallbackCategory = "default"

var ErrNoVideos = errors.New("no video files found")

type LocalFile struct {
	Path string
	Name string
	Size int64
}

type LocalCategory struct {
	Folder   string
	Strategy string
	Files    []LocalFile
}

// CategoryLabel sanitizes a folder name into a category name: path
// separators are stripped and an empty result falls back to the default
// label.
func CategoryLabel(name string) string {
	cleaned := strings.TrimSpace(name)
	cleaned = strings.ReplaceAll(cleaned, "/", "")
	cleaned = strings.ReplaceAll(cleaned, "\\", "")
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return FallbackCategory
	}
	return cleaned
}

// ScanRoot groups the video files under root into categories: one per
// first-level subfolder that holds videos, plus one named after the root
// itself for videos sitting directly inside it. Files are ordered by
// name within each category.
func ScanRoot(root string) ([]LocalCategory, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", abs, err)
	}

	var categories []LocalCategory
	var rootFiles []LocalFile
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if entry.IsDir() {
			files, err := collectVideos(filepath.Join(abs, name))
			if err != nil {
				return nil, err
			}
			if len(files) == 0 {
				continue
			}
			label := CategoryLabel(name)
			categories = append(categories, LocalCategory{
				Folder:   label,
				Strategy: model.DetectStrategy(label),
				Files:    files,
			})
			continue
		}
		if !model.IsVideoFile(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		rootFiles = append(rootFiles, LocalFile{
			Path: filepath.Join(abs, name),
			Name: name,
			Size: info.Size(),
		})
	}

	if len(rootFiles) > 0 {
		label := CategoryLabel(filepath.Base(abs))
		categories = append(categories, LocalCategory{
			Folder:   label,
			Strategy: model.DetectStrategy(label),
			Files:    rootFiles,
		})
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoVideos, abs)
	}
	return categories, nil
}

func collectVideos(dir string) ([]LocalFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var files []LocalFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !model.IsVideoFile(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		files = append(files, LocalFile{
			Path: filepath.Join(dir, name),
			Name: name,
			Size: info.Size(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Summary totals a scan for display.
func Summary(categories []LocalCategory) (files int, bytes int64) {
	for _, cat := range categories {
		files += len(cat.Files)
		for _, f := range cat.Files {
			bytes += f.Size
		}
	}
	return files, bytes
}
