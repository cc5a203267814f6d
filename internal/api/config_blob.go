package api

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ConfigValue pulls a dotted path out of the config blob and returns its
// raw JSON. The blob has no fixed schema, so lookups are best-effort.
func ConfigValue(blob []byte, path string) (string, bool) {
	if path == "" {
		return string(blob), len(blob) > 0
	}
	result := gjson.GetBytes(blob, path)
	if !result.Exists() {
		return "", false
	}
	return result.Raw, true
}

// WithConfigValue sets a dotted path in the config blob. The value is
// taken as JSON when it parses as JSON and as a plain string otherwise,
// so both `sticker_count 14` and `name "金色"` do what they look like.
func WithConfigValue(blob []byte, path, value string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is required")
	}
	var parsed any
	if err := json.Unmarshal([]byte(value), &parsed); err != nil {
		parsed = value
	}
	updated, err := sjson.SetBytes(blob, path, parsed)
	if err != nil {
		return nil, fmt.Errorf("set config path %q: %w", path, err)
	}
	return updated, nil
}

// ConfigDocument decodes a blob into a generic map for PUT bodies.
func ConfigDocument(blob []byte) (map[string]any, error) {
	doc := map[string]any{}
	if len(blob) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(blob, &doc); err != nil {
		return nil, fmt.Errorf("decode config blob: %w", err)
	}
	return doc, nil
}
