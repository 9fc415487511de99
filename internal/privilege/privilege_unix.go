//go:build !windows

package privilege

import (
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

// elevated checks write access to the protected directories the
// installers target. unix.Access consults effective credentials
// without touching the filesystem.
func elevated() bool {
	if os.Geteuid() == 0 {
		return true
	}

	dirs := []string{"/usr/local/bin"}
	if runtime.GOOS == "darwin" {
		dirs = append(dirs, "/Applications")
	}
	for _, dir := range dirs {
		if err := unix.Access(dir, unix.W_OK); err != nil {
			return false
		}
	}
	return true
}
