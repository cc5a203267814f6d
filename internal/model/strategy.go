package model

import "strings"

const (
	StrategyHandwriting = "handwriting"
	StrategyEmotional   = "emotional"
	StrategyHealth      = "health"
)

// DefaultStrategy is used when a folder name matches no keyword.
const DefaultStrategy = StrategyHandwriting

var StrategyPresets = []string{"gold", "pink", "warm", "cool", "mixed"}

var MixingModes = []string{"standard", "blur_center", "fake_player", "sandwich", "concat"}

// DefaultMode is the mixing mode used when a launch does not pick one.
const DefaultMode = "standard"

var defaultPresets = map[string]string{
	StrategyHandwriting: "gold",
	StrategyEmotional:   "pink",
	StrategyHealth:      "warm",
}

// DefaultPreset returns the color preset a strategy ships with.
func DefaultPreset(strategy string) string {
	if p, ok := defaultPresets[strategy]; ok {
		return p
	}
	return defaultPresets[DefaultStrategy]
}

// strategyKeywords maps folder-name fragments to strategies. Ordered so
// lookups stay deterministic when a name matches more than one fragment.
var strategyKeywords = []struct {
	keyword  string
	strategy string
}{
	{"手写", StrategyHandwriting},
	{"文案", StrategyHandwriting},
	{"handwriting", StrategyHandwriting},
	{"情感", StrategyEmotional},
	{"励志", StrategyEmotional},
	{"emotional", StrategyEmotional},
	{"养生", StrategyHealth},
	{"健康", StrategyHealth},
	{"health", StrategyHealth},
}

// DetectStrategy picks a strategy from a folder name by substring match,
// falling back to the default.
func DetectStrategy(folder string) string {
	lower := strings.ToLower(folder)
	for _, k := range strategyKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.strategy
		}
	}
	return DefaultStrategy
}

func IsKnownStrategy(strategy string) bool {
	switch strategy {
	case StrategyHandwriting, StrategyEmotional, StrategyHealth:
		return true
	}
	return false
}

func IsKnownPreset(preset string) bool {
	for _, p := range StrategyPresets {
		if p == preset {
			return true
		}
	}
	return false
}

func IsKnownMode(mode string) bool {
	for _, m := range MixingModes {
		if m == mode {
			return true
		}
	}
	return false
}
