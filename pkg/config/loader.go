package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/assets"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
)

// FileName is the configuration file the loader searches for.
const FileName = "viewer.toml"

const envPrefix = "VIEWER_"

// Load merges defaults, the config file and VIEWER_* environment
// variables into a validated Config.
//
// When path is empty the loader searches the working directory and the
// XDG config directory for viewer.toml; a missing file is not an error.
// An explicit path that cannot be read is.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultsMap(), "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "load default configuration")
	}

	explicit := path != ""
	if !explicit {
		path = searchConfigFile()
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if explicit {
				return nil, errors.Wrapf(err, errors.ErrConfigLoad, "read config file %s", path)
			}
		} else if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "parse config file %s", path)
		}
	}

	// Double underscore separates nesting levels so single underscores
	// survive in key names: VIEWER_SERVER__RATE_LIMIT -> server.rate_limit.
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "load environment overrides")
	}

	cfg := &Config{}
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "unmarshal configuration")
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// searchConfigFile returns the first viewer.toml found in the working
// directory or the XDG config directory, or empty.
func searchConfigFile() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}
	if xdg.ConfigHome != "" {
		path := filepath.Join(xdg.ConfigHome, "viewer", FileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// normalize fills derived defaults that zero values cannot express.
func (c *Config) normalize() {
	if c.Assets.Timeout <= 0 {
		c.Assets.Timeout = assets.DefaultTimeout
	}
	if c.Surface.ReadyTimeout <= 0 {
		c.Surface.ReadyTimeout = 3 * time.Second
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst <= 0 {
		c.Server.RateBurst = max(1, int(c.Server.RateLimit))
	}
}

// Validate rejects values no component can act on.
func (c *Config) Validate() error {
	switch c.State.Store {
	case StoreMemory, StoreSQLite:
	default:
		return errors.Newf(errors.ErrConfigParse,
			"invalid state.store %q (expected %q or %q)", c.State.Store, StoreMemory, StoreSQLite)
	}

	if c.Server.RateLimit < 0 {
		return errors.Newf(errors.ErrConfigParse,
			"server.rate_limit must not be negative, got %v", c.Server.RateLimit)
	}

	for _, id := range c.Views.Manifest {
		if strings.TrimSpace(id) == "" {
			return errors.New(errors.ErrConfigParse, "views.manifest contains an empty view id")
		}
	}
	return nil
}

// ResolvedSQLitePath returns the configured database path, or the
// default under the XDG state directory.
func (s StateConfig) ResolvedSQLitePath() string {
	if s.SQLitePath != "" {
		return s.SQLitePath
	}
	if xdg.StateHome == "" {
		return "viewer-state.db"
	}
	return filepath.Join(xdg.StateHome, "viewer", "state.db")
}

func defaultsMap() map[string]interface{} {
	return map[string]interface{}{
		"verbosity": 0,
		"server": map[string]interface{}{
			"addr":       ":8189",
			"rate_limit": 10.0,
			"rate_burst": 20,
		},
		"assets": map[string]interface{}{
			"timeout": assets.DefaultTimeout,
		},
		"surface": map[string]interface{}{
			"ready_timeout": 3 * time.Second,
		},
		"state": map[string]interface{}{
			"store": StoreMemory,
		},
	}
}
