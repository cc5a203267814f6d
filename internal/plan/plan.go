package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"remix-console/internal/model"
)

var (
	ErrNoCategories = errors.New("plan: no categories")
	ErrNoFiles      = errors.New("plan: category has no files")
)

// Launcher is the slice of the backend client a submission needs.
type Launcher interface {
	Launch(ctx context.Context, req model.LaunchRequest) (model.LaunchResponse, error)
}

// CategoryPlan describes one category's slice of a launch: which files go
// in, which strategy processes them, and which output variants each file
// expands into.
type CategoryPlan struct {
	Folder string
	// Strategy is auto-detected from the folder name when empty.
	Strategy string
	// Config carries per-category parameter overrides verbatim.
	Config map[string]any
	Files  []string
	// Outputs defaults to a single standard-mode variant using the
	// strategy's own preset.
	Outputs []model.OutputSpec
}

type Options struct {
	SessionID  string
	Categories []CategoryPlan
}

// Build expands category plans into the request body the task endpoint
// expects, filling in detected strategies and default output variants.
func Build(opts Options) (model.LaunchRequest, error) {
	if strings.TrimSpace(opts.SessionID) == "" {
		return model.LaunchRequest{}, errors.New("plan: session id is required")
	}
	if len(opts.Categories) == 0 {
		return model.LaunchRequest{}, ErrNoCategories
	}

	req := model.LaunchRequest{
		SessionID:  opts.SessionID,
		Categories: make([]model.LaunchCategory, 0, len(opts.Categories)),
	}
	for _, cat := range opts.Categories {
		built, err := buildCategory(cat)
		if err != nil {
			return model.LaunchRequest{}, err
		}
		req.Categories = append(req.Categories, built)
	}
	return req, nil
}

func buildCategory(cat CategoryPlan) (model.LaunchCategory, error) {
	folder := strings.TrimSpace(cat.Folder)
	if folder == "" {
		return model.LaunchCategory{}, errors.New("plan: category folder is empty")
	}
	if len(cat.Files) == 0 {
		return model.LaunchCategory{}, fmt.Errorf("category %q: %w", folder, ErrNoFiles)
	}

	strategy := cat.Strategy
	if strategy == "" {
		strategy = model.DetectStrategy(folder)
	} else if !model.IsKnownStrategy(strategy) {
		return model.LaunchCategory{}, fmt.Errorf("category %q: unknown strategy %q", folder, strategy)
	}

	outputs := cat.Outputs
	if len(outputs) == 0 {
		outputs = []model.OutputSpec{{Mode: model.DefaultMode, StrategyPreset: model.DefaultPreset(strategy)}}
	}
	for _, out := range outputs {
		if !model.IsKnownMode(out.Mode) {
			return model.LaunchCategory{}, fmt.Errorf("category %q: unknown mixing mode %q", folder, out.Mode)
		}
		if out.StrategyPreset != "" && !model.IsKnownPreset(out.StrategyPreset) {
			return model.LaunchCategory{}, fmt.Errorf("category %q: unknown preset %q", folder, out.StrategyPreset)
		}
	}

	built := model.LaunchCategory{
		Folder:   folder,
		Strategy: strategy,
		Config:   cat.Config,
		Files:    make([]model.LaunchFile, 0, len(cat.Files)),
	}
	for _, name := range cat.Files {
		if strings.TrimSpace(name) == "" {
			return model.LaunchCategory{}, fmt.Errorf("category %q: blank filename", folder)
		}
		built.Files = append(built.Files, model.LaunchFile{
			Filename: name,
			Outputs:  append([]model.OutputSpec(nil), outputs...),
		})
	}
	return built, nil
}

// FromScan seeds category plans from a backend scan, one plan per
// category keeping the scanned strategy and file order. The same output
// variant list applies to every category.
func FromScan(categories []model.ScanCategory, outputs []model.OutputSpec) []CategoryPlan {
	plans := make([]CategoryPlan, 0, len(categories))
	for _, cat := range categories {
		plans = append(plans, CategoryPlan{
			Folder:   cat.Folder,
			Strategy: cat.Strategy,
			Files:    append([]string(nil), cat.Files...),
			Outputs:  append([]model.OutputSpec(nil), outputs...),
		})
	}
	return plans
}

// ExpectedTotal counts the output artifacts a request will produce: one
// per file per output variant.
func ExpectedTotal(req model.LaunchRequest) int {
	total := 0
	for _, cat := range req.Categories {
		for _, f := range cat.Files {
			total += len(f.Outputs)
		}
	}
	return total
}

// Variant is one scheduled work item: a single source file rendered
// through one mode/preset combination.
type Variant struct {
	Folder   string `json:"folder"`
	Strategy string `json:"strategy"`
	Filename string `json:"filename"`
	Mode     string `json:"mode"`
	Preset   string `json:"preset,omitempty"`
}

// Expand flattens a request into the exact work items the backend will
// run, in request order. Used by the dry-run preview.
func Expand(req model.LaunchRequest) []Variant {
	var rows []Variant
	for _, cat := range req.Categories {
		for _, f := range cat.Files {
			for _, out := range f.Outputs {
				rows = append(rows, Variant{
					Folder:   cat.Folder,
					Strategy: cat.Strategy,
					Filename: f.Filename,
					Mode:     out.Mode,
					Preset:   out.StrategyPreset,
				})
			}
		}
	}
	return rows
}

// Submit fires the request once. There is no retry; a failed submission
// is returned to the caller as-is.
func Submit(ctx context.Context, launcher Launcher, req model.LaunchRequest) (model.LaunchResponse, error) {
	if launcher == nil {
		return model.LaunchResponse{}, errors.New("plan: launcher is required")
	}
	if len(req.Categories) == 0 {
		return model.LaunchResponse{}, ErrNoCategories
	}
	resp, err := launcher.Launch(ctx, req)
	if err != nil {
		return model.LaunchResponse{}, fmt.Errorf("launch task: %w", err)
	}
	return resp, nil
}
