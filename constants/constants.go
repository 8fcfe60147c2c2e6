package constants

// OS Names
const (
	OSWindows = "windows"
	OSDarwin  = "darwin"
	OSLinux   = "linux"
)

// Environment Names
const (
	EnvWindows   = "windows"
	EnvSteamDeck = "steam_deck"
)

// Event Names
const (
	EventSyncProgress = "sync-progress"
	EventSyncDone     = "sync-done"
)

// Path Components
const (
	AppDir    = ".kakehashi"
	ConfigDir = "config"
	CacheDir  = "cache"
	ThumbsDir = "thumbs"
	LogsDir   = "logs"
)

// Gamelist Files
const (
	GamelistFilename  = "gamelist.xml"
	BackupExt         = ".bak"
	ReleaseDateLayout = "20060102T150405"
)

// Sync Defaults
const (
	DefaultSyncPort = 22
	DefaultSyncUser = "deck"

	DefaultRemoteGamelistBase = "/home/deck/.emulationstation/gamelists"
	DefaultRemoteMediaBase    = "/home/deck/.emulationstation/downloaded_media"
)

// DefaultBackupMax is the backup rotation cap used when the config omits it.
const DefaultBackupMax = 5

// MediaFolders are the per-system media subdirectories the front-end scrapes into.
var MediaFolders = []string{
	"3dboxes", "backcovers", "covers", "fanart", "manuals",
	"marquees", "miximages", "physicalmedia", "screenshots",
	"titlescreens", "videos",
}

// DefaultSyncMedia are the media folders preselected for transfer.
var DefaultSyncMedia = []string{"covers", "screenshots", "videos"}

// Thumbnail size for the media tab.
const (
	ThumbWidth  = 96
	ThumbHeight = 72
)
