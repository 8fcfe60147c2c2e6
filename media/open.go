package media

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"kakehashi/constants"
)

// OpenWithDefaultApp hands a media file (video, PDF, full-size image) to the
// OS default application.
func OpenWithDefaultApp(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("media file not found: %w", err)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case constants.OSWindows:
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	case constants.OSDarwin:
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	// Detach; the viewer outlives this call.
	go func() { _ = cmd.Wait() }()
	return nil
}
