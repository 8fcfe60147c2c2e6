package media

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kakehashi/utils/fileio"
)

// Downloader fetches media files from the web into a media folder.
type Downloader struct {
	Client *http.Client
}

// NewDownloader creates a downloader with a sane request timeout.
func NewDownloader() *Downloader {
	return &Downloader{Client: &http.Client{Timeout: 60 * time.Second}}
}

// Download fetches rawURL and stores it as <mediaDir>/<folder>/<stem><ext>.
// The extension comes from the URL path, falling back to the response
// Content-Type. Returns the destination path.
func (d *Downloader) Download(rawURL, mediaDir, folder, stem string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to perform download request: %w", err)
	}
	defer fileio.Close(resp.Body, nil, "media download: closing body")

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	ext := extFromURL(rawURL)
	if ext == "" {
		ext = extFromContentType(resp.Header.Get("Content-Type"))
	}
	if ext == "" {
		return "", fmt.Errorf("could not determine file type for %s", rawURL)
	}

	destDir := filepath.Join(mediaDir, folder)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create media folder: %w", err)
	}

	dest := filepath.Join(destDir, stem+ext)
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return "", fmt.Errorf("failed to save media file: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return dest, nil
}

func extFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	ext := strings.ToLower(filepath.Ext(u.Path))
	if ImageSuffixes[ext] || VideoSuffixes[ext] || ext == ".pdf" {
		return ext
	}
	return ""
}

func extFromContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "application/pdf":
		return ".pdf"
	default:
		return ""
	}
}
