// Package roms inventories the ROM files of a system and diffs them against
// the gamelist: entries whose ROM is gone, and ROMs no entry covers.
// Multi-file archives can be peeked into without extraction.
package roms

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"kakehashi/gamelist"
	"kakehashi/utils"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode/v2"
)

// List returns the non-hidden files in the system's ROM directory, sorted.
// A missing directory yields an empty list.
func List(romDir string) ([]string, error) {
	entries, err := os.ReadDir(romDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ROM directory %s: %w", romDir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

// Exists reports whether the ROM referenced by a gamelist <path> value is
// present under romDir.
func Exists(romDir, relPath string) bool {
	rel := strings.TrimPrefix(utils.NormalizeRomPath(relPath), "./")
	if rel == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(romDir, filepath.FromSlash(rel)))
	return err == nil
}

// Missing returns the paths of entries whose ROM file no longer exists,
// in document order. These are flagged for deletion in the editor.
func Missing(doc *gamelist.Document, romDir string) []string {
	var missing []string
	for _, e := range doc.Entries {
		if e.Path != "" && !Exists(romDir, e.Path) {
			missing = append(missing, e.Path)
		}
	}
	return missing
}

// Unlisted returns the ROM files under romDir that no gamelist entry
// references, sorted. These are candidates for new entries.
func Unlisted(doc *gamelist.Document, romDir string) ([]string, error) {
	files, err := List(romDir)
	if err != nil {
		return nil, err
	}

	listed := make(map[string]bool, len(doc.Entries))
	for _, e := range doc.Entries {
		listed[strings.TrimPrefix(e.Path, "./")] = true
	}

	var unlisted []string
	for _, f := range files {
		if !listed[f] {
			unlisted = append(unlisted, f)
		}
	}
	return unlisted, nil
}

// ArchiveContents lists the file names inside a .zip, .7z or .rar archive.
func ArchiveContents(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return zipContents(path)
	case ".7z":
		return sevenZipContents(path)
	case ".rar":
		return rarContents(path)
	default:
		return nil, fmt.Errorf("unsupported archive type: %s", path)
	}
}

func zipContents(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip %s: %w", path, err)
	}
	defer r.Close()

	var names []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names, nil
}

func sevenZipContents(path string) ([]string, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open 7z %s: %w", path, err)
	}
	defer r.Close()

	var names []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names, nil
}

func rarContents(path string) ([]string, error) {
	r, err := rardecode.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rar %s: %w", path, err)
	}
	defer r.Close()

	var names []string
	for {
		hdr, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rar %s: %w", path, err)
		}
		if hdr.IsDir {
			continue
		}
		names = append(names, hdr.Name)
	}
	sort.Strings(names)
	return names, nil
}
