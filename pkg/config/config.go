// Package config loads viewer configuration from defaults, an optional
// viewer.toml, and VIEWER_* environment variables, in that order of
// precedence.
package config

import (
	"time"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/assets"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

// Config is the fully merged runtime configuration.
type Config struct {
	// Verbosity is the log level: 0 warn, 1 info, 2 debug, 3+ trace.
	Verbosity int `koanf:"verbosity"`

	Server  ServerConfig  `koanf:"server"`
	Assets  AssetsConfig  `koanf:"assets"`
	Surface SurfaceConfig `koanf:"surface"`
	State   StateConfig   `koanf:"state"`
	Theme   ThemeConfig   `koanf:"theme"`
	Views   ViewsConfig   `koanf:"views"`
}

// ServerConfig configures the HTTP preview API.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8189".
	Addr string `koanf:"addr"`

	// RateLimit caps requests per second per client; 0 disables limiting.
	RateLimit float64 `koanf:"rate_limit"`

	// RateBurst is the token bucket depth when limiting is enabled.
	RateBurst int `koanf:"rate_burst"`
}

// AssetsConfig configures the async dependency loader.
type AssetsConfig struct {
	// Timeout bounds a single asset download.
	Timeout time.Duration `koanf:"timeout"`

	// Highlight, Mermaid and Katex override the built-in CDN URLs.
	Highlight string `koanf:"highlight"`
	Mermaid   string `koanf:"mermaid"`
	Katex     string `koanf:"katex"`
}

// Sources returns the asset source map with any configured overrides
// applied on top of the built-in defaults.
func (a AssetsConfig) Sources() map[string]string {
	sources := assets.DefaultSources()
	if a.Highlight != "" {
		sources[assets.KeyHighlight] = a.Highlight
	}
	if a.Mermaid != "" {
		sources[assets.KeyMermaid] = a.Mermaid
	}
	if a.Katex != "" {
		sources[assets.KeyKatex] = a.Katex
	}
	return sources
}

// SurfaceConfig configures display surface behavior.
type SurfaceConfig struct {
	// ReadyTimeout bounds how long a slot waits for surface-ready
	// before skipping script delivery.
	ReadyTimeout time.Duration `koanf:"ready_timeout"`
}

// StateStore backend names accepted by StateConfig.Store.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// StateConfig selects the host state persistence backend.
type StateConfig struct {
	// Store is "memory" or "sqlite".
	Store string `koanf:"store"`

	// SQLitePath is the database file used when Store is "sqlite".
	// Empty means <XDG state dir>/viewer/state.db.
	SQLitePath string `koanf:"sqlite_path"`
}

// ThemeConfig carries palette overrides for the default dark theme.
type ThemeConfig struct {
	Background string            `koanf:"background"`
	Foreground string            `koanf:"foreground"`
	Surface    string            `koanf:"surface"`
	Border     string            `koanf:"border"`
	Accent     string            `koanf:"accent"`
	Muted      string            `koanf:"muted"`
	Extra      map[string]string `koanf:"extra"`
}

// Theme returns the default palette with any configured overrides
// applied.
func (t ThemeConfig) Theme() types.Theme {
	theme := types.DefaultTheme()
	if t.Background != "" {
		theme.Background = t.Background
	}
	if t.Foreground != "" {
		theme.Foreground = t.Foreground
	}
	if t.Surface != "" {
		theme.Surface = t.Surface
	}
	if t.Border != "" {
		theme.Border = t.Border
	}
	if t.Accent != "" {
		theme.Accent = t.Accent
	}
	if t.Muted != "" {
		theme.Muted = t.Muted
	}
	if len(t.Extra) > 0 {
		theme.Extra = make(map[string]string, len(t.Extra))
		for k, v := range t.Extra {
			theme.Extra[k] = v
		}
	}
	return theme
}

// ViewsConfig restricts and orders the registered views.
type ViewsConfig struct {
	// Manifest lists view ids to register, in order. Empty means all
	// built-in views.
	Manifest []string `koanf:"manifest"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Verbosity: 0,
		Server: ServerConfig{
			Addr:      ":8189",
			RateLimit: 10,
			RateBurst: 20,
		},
		Assets: AssetsConfig{
			Timeout: assets.DefaultTimeout,
		},
		Surface: SurfaceConfig{
			ReadyTimeout: 3 * time.Second,
		},
		State: StateConfig{
			Store: StoreMemory,
		},
	}
}
