package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"kakehashi/config"
	"kakehashi/constants"
	"kakehashi/gamelist"
	"kakehashi/media"
	"kakehashi/paths"
	"kakehashi/roms"
	"kakehashi/syncer"
	"kakehashi/types"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// App struct
type App struct {
	ctx           context.Context
	log           *logrus.Logger
	configManager *config.Manager
	resolver      *paths.Resolver
	env           string
	syncService   *syncer.Service
	downloader    *media.Downloader

	docMu      sync.Mutex
	doc        *gamelist.Document
	docPath    string
	docSystem  string
	loadFailed bool

	syncMu     sync.Mutex
	syncCancel context.CancelFunc
}

// SyncRequest is the UI's selection for one push job.
type SyncRequest struct {
	System          string   `json:"system"`
	IncludeGamelist bool     `json:"include_gamelist"`
	MediaFolders    []string `json:"media_folders"`
	Overwrite       bool     `json:"overwrite"`
}

// NewApp creates a new App application struct. The environment is resolved
// once here and threaded through, never re-probed.
func NewApp(cm *config.Manager, log *logrus.Logger) *App {
	env := paths.DetectEnvironment(cm.GetConfig())
	app := &App{
		log:           log,
		configManager: cm,
		env:           env,
		resolver:      paths.NewResolver(env, cm),
		downloader:    media.NewDownloader(),
	}
	app.syncService = syncer.New(syncer.SSHDialer{}, app)
	return app
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.log.Infof("started, environment=%s", a.env)
}

// LogInfof implements the logging surface the services expect.
func (a *App) LogInfof(format string, args ...interface{}) {
	a.log.Infof(format, args...)
}

// LogErrorf implements the logging surface the services expect.
func (a *App) LogErrorf(format string, args ...interface{}) {
	a.log.Errorf(format, args...)
}

// eventsEmit forwards to the Wails runtime; nil ctx (tests) is a no-op.
func (a *App) eventsEmit(eventName string, args ...interface{}) {
	if a.ctx != nil {
		wailsRuntime.EventsEmit(a.ctx, eventName, args...)
	}
}

// Environment returns the environment resolved at startup.
func (a *App) Environment() string {
	return a.env
}

// GetConfig returns the current configuration
func (a *App) GetConfig() types.AppConfig {
	return a.configManager.GetConfig()
}

// SaveConfig saves the configuration, preserving fields the form left empty.
func (a *App) SaveConfig(cfg types.AppConfig) string {
	current := a.configManager.GetConfig()

	updateIfNotEmpty(&current.Environment, cfg.Environment)
	updateIfNotEmpty(&current.System, cfg.System)
	if len(cfg.Systems) > 0 {
		current.Systems = cfg.Systems
	}
	if cfg.BackupMax != 0 {
		current.BackupMax = cfg.BackupMax
	}
	mergeEnvPaths(&current.Windows, cfg.Windows)
	mergeEnvPaths(&current.SteamDeck, cfg.SteamDeck)
	mergeSync(&current.Sync, cfg.Sync)

	if err := a.configManager.Save(current); err != nil {
		a.log.Errorf("failed to save config: %v", err)
		return fmt.Sprintf("Error saving config: %s", err.Error())
	}
	return "Configuration saved successfully!"
}

func updateIfNotEmpty(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func mergeEnvPaths(target *types.EnvPaths, value types.EnvPaths) {
	updateIfNotEmpty(&target.RomBase, value.RomBase)
	updateIfNotEmpty(&target.GamelistBase, value.GamelistBase)
	updateIfNotEmpty(&target.MediaBase, value.MediaBase)
}

func mergeSync(target *types.SyncConfig, value types.SyncConfig) {
	updateIfNotEmpty(&target.Host, value.Host)
	updateIfNotEmpty(&target.Username, value.Username)
	updateIfNotEmpty(&target.Password, value.Password)
	if value.Port != 0 {
		target.Port = value.Port
	}
}

// GetSystems lists target systems, scanned from the gamelist base directory.
func (a *App) GetSystems() []string {
	return a.resolver.DiscoverSystems()
}

// GetMediaFolders returns the media subfolder names for the sync checkboxes.
func (a *App) GetMediaFolders() []string {
	return constants.MediaFolders
}

// ResolvePaths returns the local directories for one system.
func (a *App) ResolvePaths(system string) paths.SystemPaths {
	return a.resolver.Resolve(system)
}

// LoadGamelist loads the gamelist of the given system and returns its
// entries. After a parse failure SaveGamelist refuses to run, so a malformed
// file is never overwritten from stale state.
func (a *App) LoadGamelist(system string) ([]gamelist.Entry, error) {
	sp := a.resolver.Resolve(system)

	a.docMu.Lock()
	defer a.docMu.Unlock()

	doc, err := gamelist.Load(sp.GamelistPath)
	if err != nil {
		a.doc = nil
		a.docPath = sp.GamelistPath
		a.docSystem = system
		a.loadFailed = true
		a.log.Errorf("failed to load gamelist: %v", err)
		return nil, err
	}

	a.doc = doc
	a.docPath = sp.GamelistPath
	a.docSystem = system
	a.loadFailed = false
	a.log.Infof("loaded %d entries from %s", len(doc.Entries), sp.GamelistPath)

	a.rememberSystem(system)
	return doc.Entries, nil
}

// rememberSystem persists the last selected system for the next start.
func (a *App) rememberSystem(system string) {
	cfg := a.configManager.GetConfig()
	if cfg.System == system {
		return
	}
	cfg.System = system
	if err := a.configManager.Save(cfg); err != nil {
		a.log.Errorf("failed to remember selected system: %v", err)
	}
}

// UpsertEntry adds or updates one entry in the loaded document. Nothing is
// written to disk until SaveGamelist.
func (a *App) UpsertEntry(e gamelist.Entry) error {
	a.docMu.Lock()
	defer a.docMu.Unlock()
	if a.doc == nil {
		return fmt.Errorf("no gamelist loaded")
	}
	a.doc.Upsert(e)
	return nil
}

// RemoveEntry deletes one entry from the loaded document.
func (a *App) RemoveEntry(path string) error {
	a.docMu.Lock()
	defer a.docMu.Unlock()
	if a.doc == nil {
		return fmt.Errorf("no gamelist loaded")
	}
	if !a.doc.Remove(path) {
		return fmt.Errorf("no entry with path %q", path)
	}
	return nil
}

// SaveGamelist writes the loaded document back, rotating a backup first.
func (a *App) SaveGamelist() error {
	a.docMu.Lock()
	defer a.docMu.Unlock()

	if a.loadFailed {
		return fmt.Errorf("gamelist %s failed to load; refusing to overwrite it", a.docPath)
	}
	if a.doc == nil {
		return fmt.Errorf("no gamelist loaded")
	}

	cfg := a.configManager.GetConfig()
	if err := gamelist.Save(a.doc, a.docPath, cfg.BackupMax); err != nil {
		a.log.Errorf("failed to save gamelist: %v", err)
		return err
	}
	a.log.Infof("saved %d entries to %s", len(a.doc.Entries), a.docPath)
	return nil
}

// EntryRomExists reports whether the ROM behind a gamelist path is on disk.
func (a *App) EntryRomExists(system, entryPath string) bool {
	return roms.Exists(a.resolver.Resolve(system).RomDir, entryPath)
}

// UnlistedRoms lists ROM files of the system that have no gamelist entry.
func (a *App) UnlistedRoms(system string) ([]string, error) {
	a.docMu.Lock()
	defer a.docMu.Unlock()
	if a.doc == nil || a.docSystem != system {
		return nil, fmt.Errorf("gamelist for %s is not loaded", system)
	}
	return roms.Unlisted(a.doc, a.resolver.Resolve(system).RomDir)
}

// MissingRoms lists entry paths whose ROM file no longer exists.
func (a *App) MissingRoms(system string) ([]string, error) {
	a.docMu.Lock()
	defer a.docMu.Unlock()
	if a.doc == nil || a.docSystem != system {
		return nil, fmt.Errorf("gamelist for %s is not loaded", system)
	}
	return roms.Missing(a.doc, a.resolver.Resolve(system).RomDir), nil
}

// ListArchive lists the files inside a ROM archive (.zip/.7z/.rar).
func (a *App) ListArchive(system, romFile string) ([]string, error) {
	return roms.ArchiveContents(filepath.Join(a.resolver.Resolve(system).RomDir, romFile))
}

// MediaStatus reports which media folders have a file for the entry.
func (a *App) MediaStatus(system, entryPath string) map[string]bool {
	return media.Check(a.resolver.Resolve(system).MediaDir, media.RomStem(entryPath))
}

// MediaFiles returns the first media file per folder for the entry.
func (a *App) MediaFiles(system, entryPath string) map[string]string {
	return media.Find(a.resolver.Resolve(system).MediaDir, media.RomStem(entryPath))
}

// MediaThumbnail returns a data URI thumbnail for a media image file.
func (a *App) MediaThumbnail(system, folder, src string) (string, error) {
	return media.ThumbnailDataURI(src, a.thumbCacheDir(system, folder))
}

func (a *App) thumbCacheDir(system, folder string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, constants.AppDir, constants.CacheDir, constants.ThumbsDir, system, folder)
}

// DownloadMedia fetches a media file from a URL into the entry's slot in the
// given media folder.
func (a *App) DownloadMedia(system, folder, entryPath, url string) (string, error) {
	dest, err := a.downloader.Download(url, a.resolver.Resolve(system).MediaDir, folder, media.RomStem(entryPath))
	if err != nil {
		a.log.Errorf("media download failed: %v", err)
		return "", err
	}
	a.log.Infof("downloaded media to %s", dest)
	return dest, nil
}

// DeleteMedia removes one media file. The UI confirms before calling.
func (a *App) DeleteMedia(path string) error {
	if err := os.Remove(path); err != nil {
		a.log.Errorf("failed to delete media file: %v", err)
		return err
	}
	return nil
}

// OpenMedia opens a media file with the OS default application.
func (a *App) OpenMedia(path string) error {
	return media.OpenWithDefaultApp(path)
}

// TestSyncConnection validates the endpoint and persists the credentials on
// success, mirroring the "test & save" flow.
func (a *App) TestSyncConnection(sc types.SyncConfig) error {
	if sc.Host == "" {
		return fmt.Errorf("sync host is not configured")
	}
	if err := a.syncService.TestConnection(endpointFromConfig(sc)); err != nil {
		a.log.Errorf("connection test failed: %v", err)
		return err
	}

	cfg := a.configManager.GetConfig()
	cfg.Sync = sc
	if err := a.configManager.Save(cfg); err != nil {
		return fmt.Errorf("connection ok but saving credentials failed: %w", err)
	}
	a.log.Infof("connection test ok: %s@%s", sc.Username, sc.Host)
	return nil
}

// StartSync builds the task list for the request and launches the push job.
// Progress events are forwarded to the UI in processing order. Returns the
// job ID.
func (a *App) StartSync(req SyncRequest) (string, error) {
	cfg := a.configManager.GetConfig()
	if cfg.Sync.Host == "" {
		return "", fmt.Errorf("sync host is not configured")
	}
	if !req.IncludeGamelist && len(req.MediaFolders) == 0 {
		return "", fmt.Errorf("nothing selected to transfer")
	}

	local := a.resolver.Resolve(req.System)
	tasks, notes := syncer.BuildPushTasks(local, a.resolver.Remote(), req.System, req.IncludeGamelist, req.MediaFolders)

	job := syncer.Job{
		ID:        uuid.NewString(),
		Endpoint:  endpointFromConfig(cfg.Sync),
		Tasks:     tasks,
		Overwrite: req.Overwrite,
	}

	ctx, cancel := context.WithCancel(context.Background())
	events, err := a.syncService.Start(ctx, job)
	if err != nil {
		cancel()
		return "", err
	}

	a.syncMu.Lock()
	a.syncCancel = cancel
	a.syncMu.Unlock()

	for _, note := range notes {
		a.log.Infof("sync %s: %s", job.ID, note)
		a.eventsEmit(constants.EventSyncProgress, syncer.ProgressEvent{JobID: job.ID, Kind: syncer.EventNote, File: note})
	}

	go func() {
		for ev := range events {
			a.eventsEmit(constants.EventSyncProgress, ev)
		}
		a.eventsEmit(constants.EventSyncDone, job.ID)

		a.syncMu.Lock()
		a.syncCancel = nil
		a.syncMu.Unlock()
		cancel()
	}()

	return job.ID, nil
}

// CancelSync stops the running job before its next file, if one is running.
func (a *App) CancelSync() {
	a.syncMu.Lock()
	defer a.syncMu.Unlock()
	if a.syncCancel != nil {
		a.syncCancel()
	}
}

func endpointFromConfig(sc types.SyncConfig) syncer.Endpoint {
	port := sc.Port
	if port == 0 {
		port = constants.DefaultSyncPort
	}
	username := sc.Username
	if username == "" {
		username = constants.DefaultSyncUser
	}
	return syncer.Endpoint{
		Host:     sc.Host,
		Port:     port,
		Username: username,
		Password: sc.Password,
	}
}
