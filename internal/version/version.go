package version

// Value is the release tag baked in at build time via -ldflags.
var Value = "v0.0.0-dev"
