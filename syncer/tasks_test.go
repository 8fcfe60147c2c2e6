package syncer

import (
	"os"
	"path/filepath"
	"testing"

	"kakehashi/paths"
	"kakehashi/types"
)

func TestBuildPushTasks(t *testing.T) {
	tmpDir, _ := os.MkdirTemp("", "tasks-test")
	defer os.RemoveAll(tmpDir)

	gamelistPath := filepath.Join(tmpDir, "gamelists", "snes", "gamelist.xml")
	os.MkdirAll(filepath.Dir(gamelistPath), 0o755)
	os.WriteFile(gamelistPath, []byte("<gameList></gameList>"), 0o644)

	mediaDir := filepath.Join(tmpDir, "media", "snes")
	os.MkdirAll(filepath.Join(mediaDir, "covers"), 0o755)
	os.WriteFile(filepath.Join(mediaDir, "covers", "a.png"), []byte("img"), 0o644)
	os.WriteFile(filepath.Join(mediaDir, "covers", ".DS_Store"), []byte("junk"), 0o644)

	local := paths.SystemPaths{
		GamelistPath: gamelistPath,
		MediaDir:     mediaDir,
	}
	remote := types.EnvPaths{
		GamelistBase: "/home/deck/.emulationstation/gamelists",
		MediaBase:    "/home/deck/.emulationstation/downloaded_media",
	}

	tasks, notes := BuildPushTasks(local, remote, "snes", true, []string{"covers", "videos"})

	if len(notes) != 0 {
		t.Errorf("Expected no notes, got %v", notes)
	}
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks (gamelist + cover), got %d: %+v", len(tasks), tasks)
	}
	if tasks[0].RemotePath != "/home/deck/.emulationstation/gamelists/snes/gamelist.xml" {
		t.Errorf("Unexpected gamelist remote path: %s", tasks[0].RemotePath)
	}
	if tasks[1].RemotePath != "/home/deck/.emulationstation/downloaded_media/snes/covers/a.png" {
		t.Errorf("Unexpected media remote path: %s", tasks[1].RemotePath)
	}
}

func TestBuildPushTasksMissingGamelist(t *testing.T) {
	tmpDir, _ := os.MkdirTemp("", "tasks-test")
	defer os.RemoveAll(tmpDir)

	local := paths.SystemPaths{
		GamelistPath: filepath.Join(tmpDir, "gamelists", "snes", "gamelist.xml"),
		MediaDir:     filepath.Join(tmpDir, "media", "snes"),
	}
	remote := types.EnvPaths{GamelistBase: "/gl", MediaBase: "/media"}

	tasks, notes := BuildPushTasks(local, remote, "snes", true, []string{"covers"})

	if len(tasks) != 0 {
		t.Errorf("Expected no tasks, got %+v", tasks)
	}
	if len(notes) != 1 {
		t.Errorf("Expected a note about the missing gamelist, got %v", notes)
	}
}

func TestBuildPushTasksGamelistExcluded(t *testing.T) {
	tmpDir, _ := os.MkdirTemp("", "tasks-test")
	defer os.RemoveAll(tmpDir)

	gamelistPath := filepath.Join(tmpDir, "gamelist.xml")
	os.WriteFile(gamelistPath, []byte("<gameList></gameList>"), 0o644)

	local := paths.SystemPaths{GamelistPath: gamelistPath, MediaDir: tmpDir}
	remote := types.EnvPaths{GamelistBase: "/gl", MediaBase: "/media"}

	tasks, notes := BuildPushTasks(local, remote, "snes", false, nil)

	if len(tasks) != 0 || len(notes) != 0 {
		t.Errorf("Deselected content must produce nothing, got %+v / %v", tasks, notes)
	}
}
