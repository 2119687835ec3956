package version

// Build information set by ldflags
var (
	Version = "dev"     // Set by goreleaser: -X github.com/WASasquatch/ComfyUI-Viewer/internal/version.Version={{.Version}}
	Commit  = "unknown" // Set by goreleaser: -X github.com/WASasquatch/ComfyUI-Viewer/internal/version.Commit={{.Commit}}
	Date    = "unknown" // Set by goreleaser: -X github.com/WASasquatch/ComfyUI-Viewer/internal/version.Date={{.Date}}
)
