// Package media scans and maintains the per-system media subtree
// (covers, screenshots, videos, ...). Media files are matched to a game by
// the stem of its gamelist <path> value.
package media

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"kakehashi/constants"

	"github.com/disintegration/imaging"
)

// ImageSuffixes are the media file extensions rendered as thumbnails.
var ImageSuffixes = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".webp": true, ".tga": true,
}

// VideoSuffixes are the media file extensions opened with the OS player.
var VideoSuffixes = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".webm": true,
	".mov": true, ".m4v": true,
}

// RomStem returns the extensionless filename of a gamelist <path> value.
// "./Super Mario World.zip" becomes "Super Mario World".
func RomStem(pathVal string) string {
	base := filepath.Base(filepath.FromSlash(pathVal))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Check reports, per media folder, whether any file named <stem>.* exists.
func Check(mediaDir, stem string) map[string]bool {
	result := make(map[string]bool, len(constants.MediaFolders))
	for _, folder := range constants.MediaFolders {
		result[folder] = findIn(filepath.Join(mediaDir, folder), stem) != ""
	}
	return result
}

// Find returns the first matching media file per folder, or "" when none.
func Find(mediaDir, stem string) map[string]string {
	result := make(map[string]string, len(constants.MediaFolders))
	for _, folder := range constants.MediaFolders {
		result[folder] = findIn(filepath.Join(mediaDir, folder), stem)
	}
	return result
}

func findIn(dir, stem string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var matches []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.TrimSuffix(name, filepath.Ext(name)) == stem {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	return filepath.Join(dir, matches[0])
}

// Thumbnail renders a 96x72 fitted thumbnail of src into cacheDir, reusing a
// cached copy when it is newer than the source. Returns the thumbnail path.
func Thumbnail(src, cacheDir string) (string, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create thumbnail cache dir: %w", err)
	}

	stem := RomStem(src)
	dest := filepath.Join(cacheDir, stem+".jpg")

	sinfo, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("failed to stat media file: %w", err)
	}
	if dinfo, err := os.Stat(dest); err == nil && dinfo.ModTime().After(sinfo.ModTime()) {
		return dest, nil
	}

	img, err := imaging.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open image %s: %w", src, err)
	}
	thumb := imaging.Fit(img, constants.ThumbWidth, constants.ThumbHeight, imaging.Lanczos)
	if err := imaging.Save(thumb, dest, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("failed to save thumbnail: %w", err)
	}
	return dest, nil
}

// ThumbnailDataURI renders (or reuses) the thumbnail for src and returns it
// base64-encoded for direct display in the UI.
func ThumbnailDataURI(src, cacheDir string) (string, error) {
	thumb, err := Thumbnail(src, cacheDir)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(thumb)
	if err != nil {
		return "", fmt.Errorf("failed to read thumbnail: %w", err)
	}
	return toDataURI(data, ".jpg"), nil
}

func getMimeType(ext string) string {
	switch strings.ToLower(ext) {
	case ".svg":
		return "image/svg+xml"
	case ".gif":
		return "image/gif"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

func toDataURI(data []byte, ext string) string {
	return fmt.Sprintf("data:%s;base64,%s", getMimeType(ext), base64.StdEncoding.EncodeToString(data))
}
