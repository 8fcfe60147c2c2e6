package types

// EnvPaths holds the base directories for one environment.
// For the environment the app runs in they are local paths; for the
// sync target they double as the remote destination bases.
type EnvPaths struct {
	RomBase      string `json:"rom_base"`      // ROMs, one subfolder per system
	GamelistBase string `json:"gamelist_base"` // gamelist.xml files, one subfolder per system
	MediaBase    string `json:"media_base"`    // scraped media, one subfolder per system
}

// SyncConfig holds the SSH endpoint used for pushing to the handheld.
type SyncConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`     // 0 means default 22
	Username string `json:"username"` // defaults to "deck"
	Password string `json:"password"`
}

// AppConfig holds all application settings
type AppConfig struct {
	Environment string     `json:"environment,omitempty"` // "windows" / "steam_deck"; empty = auto-detect
	System      string     `json:"system,omitempty"`      // last selected system
	Systems     []string   `json:"systems,omitempty"`     // fallback when gamelist_base cannot be scanned
	BackupMax   int        `json:"backup_max"`
	Windows     EnvPaths   `json:"windows"`
	SteamDeck   EnvPaths   `json:"steam_deck"`
	Sync        SyncConfig `json:"sync"`
}
