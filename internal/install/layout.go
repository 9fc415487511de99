// Package install places verified artifacts into their OS-standard
// locations and registers the background service with the host's
// service manager.
package install

import (
	"os"
	"path/filepath"

	"github.com/luminahq/lumina-install/internal/platform"
)

// Layout names the OS-standard locations one install works against.
// Computed once per run and passed in, never re-derived ad hoc.
type Layout struct {
	Key platform.Key

	// AppDir is the canonical application directory, BundleName the
	// bundle installed inside it.
	AppDir     string
	BundleName string

	// ServicePath is the full path of the installed service binary.
	ServicePath string

	// MountPoint is the deterministic transient mount point used while
	// installing the application bundle.
	MountPoint string
}

// AppPath is where the installed application bundle lives.
func (l Layout) AppPath() string {
	return filepath.Join(l.AppDir, l.BundleName)
}

// LaunchArgv is the command line that opens the installed application.
func (l Layout) LaunchArgv() []string {
	switch l.Key.OS {
	case "darwin":
		return []string{"open", "-a", l.AppPath()}
	case "windows":
		return []string{filepath.Join(l.AppPath(), "Lumina.exe")}
	default:
		return []string{filepath.Join(l.AppPath(), "lumina")}
	}
}

// DefaultLayout returns the standard install locations for a platform.
func DefaultLayout(key platform.Key) Layout {
	layout := Layout{
		Key:        key,
		MountPoint: filepath.Join(os.TempDir(), "lumina-install.mount"),
	}

	switch key.OS {
	case "darwin":
		layout.AppDir = "/Applications"
		layout.BundleName = "Lumina.app"
		layout.ServicePath = "/usr/local/bin/lumina-service"
	case "windows":
		programFiles := os.Getenv("ProgramFiles")
		if programFiles == "" {
			programFiles = `C:\Program Files`
		}
		layout.AppDir = programFiles
		layout.BundleName = "Lumina"
		layout.ServicePath = filepath.Join(programFiles, "Lumina", "lumina-service.exe")
	default:
		layout.AppDir = "/opt"
		layout.BundleName = "Lumina"
		layout.ServicePath = "/usr/local/bin/lumina-service"
	}

	return layout
}
