package syncer

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"kakehashi/constants"
	"kakehashi/paths"
	"kakehashi/types"
)

// BuildPushTasks assembles the (local, remote) pairs for one system from the
// selected content: the gamelist file and/or media folders. Missing local
// selections become notes for the job log instead of failing the build;
// transfer direction is local to remote only.
func BuildPushTasks(local paths.SystemPaths, remote types.EnvPaths, system string, includeGamelist bool, mediaFolders []string) (tasks []Task, notes []string) {
	if includeGamelist {
		if _, err := os.Stat(local.GamelistPath); err == nil {
			tasks = append(tasks, Task{
				LocalPath:  local.GamelistPath,
				RemotePath: path.Join(remote.GamelistBase, system, constants.GamelistFilename),
			})
		} else {
			notes = append(notes, fmt.Sprintf("gamelist.xml not found: %s", local.GamelistPath))
		}
	}

	for _, folder := range mediaFolders {
		dir := filepath.Join(local.MediaDir, folder)
		entries, err := os.ReadDir(dir)
		if err != nil {
			// An absent media folder simply has nothing to push.
			continue
		}
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			tasks = append(tasks, Task{
				LocalPath:  filepath.Join(dir, e.Name()),
				RemotePath: path.Join(remote.MediaBase, system, folder, e.Name()),
			})
		}
	}
	return tasks, notes
}
