// Package backup rotates timestamped copies of a gamelist file.
// Backups live beside the original as <name>.<timestamp>.bak; the timestamp
// is fixed-width so lexicographic order equals chronological order.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"kakehashi/constants"
)

const timestampLayout = "20060102_150405.000000000"

// Rotate copies the file at path to a new timestamped backup and prunes old
// backups so at most max remain. A missing file is a no-op. With max <= 0 no
// copy is made at all; backups are disabled rather than created and
// immediately deleted.
func Rotate(path string, max int) error {
	if max <= 0 {
		return nil
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	bak := path + "." + time.Now().Format(timestampLayout) + constants.BackupExt
	if err := copyFile(path, bak, info.Mode()); err != nil {
		return fmt.Errorf("failed to create backup %s: %w", bak, err)
	}

	return prune(path, max)
}

// List returns the existing backup files for path, oldest first.
// The pattern never matches the live file itself.
func List(path string) ([]string, error) {
	matches, err := filepath.Glob(path + ".*" + constants.BackupExt)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func prune(path string, max int) error {
	backups, err := List(path)
	if err != nil {
		return err
	}
	for len(backups) > max {
		if err := os.Remove(backups[0]); err != nil {
			return fmt.Errorf("failed to prune backup %s: %w", backups[0], err)
		}
		backups = backups[1:]
	}
	return nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
