// Package paths resolves the per-system directories (ROMs, gamelist, media)
// for the environment the app runs in. The environment is decided once at
// startup and threaded through as a value, never re-probed mid-session.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"kakehashi/constants"
	"kakehashi/types"
)

// ConfigProvider supplies the current configuration.
type ConfigProvider interface {
	GetConfig() types.AppConfig
}

// SystemPaths is the resolved path triple for one target system.
type SystemPaths struct {
	RomDir       string `json:"rom_dir"`
	GamelistPath string `json:"gamelist_path"`
	MediaDir     string `json:"media_dir"`
}

// DetectEnvironment honors an explicit config override, otherwise picks by OS.
func DetectEnvironment(cfg types.AppConfig) string {
	if cfg.Environment != "" {
		return cfg.Environment
	}
	if runtime.GOOS == constants.OSWindows {
		return constants.EnvWindows
	}
	return constants.EnvSteamDeck
}

// Resolver maps system identifiers to local directories for one environment.
type Resolver struct {
	env    string
	config ConfigProvider
}

// NewResolver creates a resolver pinned to the given environment.
func NewResolver(env string, cfg ConfigProvider) *Resolver {
	return &Resolver{env: env, config: cfg}
}

// Environment returns the environment this resolver was pinned to.
func (r *Resolver) Environment() string {
	return r.env
}

// local returns the path triple for the active environment.
func (r *Resolver) local() types.EnvPaths {
	cfg := r.config.GetConfig()
	if r.env == constants.EnvWindows {
		return cfg.Windows
	}
	return cfg.SteamDeck
}

// Remote returns the destination bases used when pushing to the handheld.
// Missing values fall back to the front-end's conventional locations.
func (r *Resolver) Remote() types.EnvPaths {
	remote := r.config.GetConfig().SteamDeck
	if remote.GamelistBase == "" {
		remote.GamelistBase = constants.DefaultRemoteGamelistBase
	}
	if remote.MediaBase == "" {
		remote.MediaBase = constants.DefaultRemoteMediaBase
	}
	return remote
}

// Resolve returns the local directories for one system.
func (r *Resolver) Resolve(system string) SystemPaths {
	base := r.local()
	return SystemPaths{
		RomDir:       filepath.Join(base.RomBase, system),
		GamelistPath: filepath.Join(base.GamelistBase, system, constants.GamelistFilename),
		MediaDir:     filepath.Join(base.MediaBase, system),
	}
}

// DiscoverSystems lists target systems from the gamelist base directory.
// Falls back to the configured systems list when the scan finds nothing.
func (r *Resolver) DiscoverSystems() []string {
	base := r.local().GamelistBase
	if base != "" {
		if entries, err := os.ReadDir(base); err == nil {
			var dirs []string
			for _, e := range entries {
				if e.IsDir() {
					dirs = append(dirs, e.Name())
				}
			}
			if len(dirs) > 0 {
				sort.Strings(dirs)
				return dirs
			}
		}
	}
	return r.config.GetConfig().Systems
}
