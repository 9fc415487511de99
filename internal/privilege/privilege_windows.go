//go:build windows

package privilege

import (
	"golang.org/x/sys/windows"
)

// elevated reports whether the process token carries an elevated
// administrator session. The token query does not mutate anything.
func elevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}
