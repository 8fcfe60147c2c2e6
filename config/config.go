package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"kakehashi/constants"
	"kakehashi/types"
)

// Manager handles loading/saving the JSON config file.
type Manager struct {
	Config     *types.AppConfig
	ConfigPath string
	Mu         sync.RWMutex // Thread-safety for UI reads/writes
}

// NewManager initializes the manager and determines the file path
func NewManager() *Manager {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to executable dir if home is not available
		exePath, err := os.Executable()
		if err != nil {
			exePath = "."
		}
		return &Manager{
			ConfigPath: filepath.Join(filepath.Dir(exePath), "config.json"),
			Config:     &types.AppConfig{},
		}
	}

	return &Manager{
		ConfigPath: filepath.Join(home, constants.AppDir, constants.ConfigDir, "config.json"),
		Config:     &types.AppConfig{},
	}
}

// Load reads the config from disk, creating a default file when none exists.
func (m *Manager) Load() error {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if _, err := os.Stat(m.ConfigPath); os.IsNotExist(err) {
		return m.createDefault()
	}

	data, err := os.ReadFile(m.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, m.Config); err != nil {
		return fmt.Errorf("failed to parse config json: %w", err)
	}

	applyDefaults(m.Config)
	return nil
}

// GetConfig returns a copy of the current config (Thread-Safe)
func (m *Manager) GetConfig() types.AppConfig {
	m.Mu.RLock()
	defer m.Mu.RUnlock()
	return *m.Config
}

// Save writes the given config to disk and makes it current.
func (m *Manager) Save(newConfig types.AppConfig) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	applyDefaults(&newConfig)
	*m.Config = newConfig

	return m.write()
}

func (m *Manager) write() error {
	dir := filepath.Dir(m.ConfigPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(m.Config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(m.ConfigPath, data, 0o600)
}

// createDefault generates a starter config file if none exists
func (m *Manager) createDefault() error {
	defaultConfig := types.AppConfig{
		BackupMax: constants.DefaultBackupMax,
		SteamDeck: types.EnvPaths{
			GamelistBase: constants.DefaultRemoteGamelistBase,
			MediaBase:    constants.DefaultRemoteMediaBase,
		},
	}
	applyDefaults(&defaultConfig)
	m.Config = &defaultConfig

	fmt.Println("Config file not found. Creating default at:", m.ConfigPath)
	return m.write()
}

// applyDefaults fills in the conventional sync endpoint values.
func applyDefaults(cfg *types.AppConfig) {
	if cfg.Sync.Port == 0 {
		cfg.Sync.Port = constants.DefaultSyncPort
	}
	if cfg.Sync.Username == "" {
		cfg.Sync.Username = constants.DefaultSyncUser
	}
	if cfg.BackupMax < 0 {
		cfg.BackupMax = 0
	}
}
