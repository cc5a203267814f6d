package model

// FileResult is the per-file outcome record carried by file_done frames,
// state resyncs, and history entries.
type FileResult struct {
	Filename string  `json:"filename"`
	Status   string  `json:"status"`
	Elapsed  float64 `json:"elapsed"`
	Error    string  `json:"error,omitempty"`
}

type ScanCategory struct {
	Folder    string   `json:"folder"`
	FileCount int      `json:"file_count"`
	Files     []string `json:"files"`
	Strategy  string   `json:"strategy"`
}

type ScanResult struct {
	SessionID  string         `json:"session_id,omitempty"`
	Path       string         `json:"path,omitempty"`
	Categories []ScanCategory `json:"categories"`
}

type OutputSpec struct {
	Mode           string `json:"mode"`
	StrategyPreset string `json:"strategy_preset,omitempty"`
}

type LaunchFile struct {
	Filename string       `json:"filename"`
	Outputs  []OutputSpec `json:"outputs"`
}

type LaunchCategory struct {
	Folder   string         `json:"folder"`
	Strategy string         `json:"strategy"`
	Config   map[string]any `json:"config,omitempty"`
	Files    []LaunchFile   `json:"files"`
}

type LaunchRequest struct {
	SessionID  string           `json:"session_id"`
	Categories []LaunchCategory `json:"categories"`
}

type LaunchResponse struct {
	TaskID string `json:"task_id"`
	Total  int    `json:"total"`
}

type StrategyDefaults struct {
	StickerCount int    `json:"sticker_count"`
	SparkleCount int    `json:"sparkle_count"`
	Preset       string `json:"strategy_preset"`
}

type StrategyInfo struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Defaults    StrategyDefaults `json:"defaults"`
}

type StrategyCatalog struct {
	Strategies      []StrategyInfo `json:"strategies"`
	StrategyPresets []string       `json:"strategy_presets"`
	MixingModes     []string       `json:"mixing_modes"`
}

type StickerOverview struct {
	Total      int            `json:"total"`
	Categories map[string]int `json:"categories"`
}

type SparkleOverview struct {
	Total  int            `json:"total"`
	Styles map[string]int `json:"styles"`
}

type AssetsOverview struct {
	Stickers StickerOverview `json:"stickers"`
	Sparkles SparkleOverview `json:"sparkles"`
	Effects  map[string]int  `json:"effects"`
}

type ToolCheck struct {
	Installed bool   `json:"installed"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
}

type AssetDirCheck struct {
	Exists bool `json:"exists"`
	Count  int  `json:"count"`
}

type EnvCheck struct {
	FFmpeg  ToolCheck                `json:"ffmpeg"`
	FFprobe ToolCheck                `json:"ffprobe"`
	Assets  map[string]AssetDirCheck `json:"assets"`
}

type UpdateCommit struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
}

type UpdateCheck struct {
	HasUpdate bool           `json:"has_update"`
	Ahead     int            `json:"ahead,omitempty"`
	LocalSHA  string         `json:"local_sha,omitempty"`
	Commits   []UpdateCommit `json:"commits,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type HistoryCategory struct {
	Folder   string `json:"folder"`
	Strategy string `json:"strategy"`
	Count    int    `json:"count"`
}

type HistoryEntry struct {
	ID          string            `json:"id"`
	Timestamp   string            `json:"timestamp"`
	Categories  []HistoryCategory `json:"categories"`
	Total       int               `json:"total"`
	Completed   int               `json:"completed"`
	Failed      int               `json:"failed"`
	Elapsed     float64           `json:"elapsed"`
	Status      string            `json:"status"`
	FileResults []FileResult      `json:"file_results,omitempty"`
}

type History struct {
	Tasks []HistoryEntry `json:"tasks"`
}

// StreamFrame is one message on the env-install and git-pull sockets:
// a run of "output" frames closed by a single "done" frame.
type StreamFrame struct {
	Type    string `json:"type"`
	Line    string `json:"line,omitempty"`
	Success bool   `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

type VideoStatEntry struct {
	ID    string         `json:"id"`
	Stats map[string]any `json:"stats"`
}

type VideoStats struct {
	Videos []VideoStatEntry `json:"videos"`
}
