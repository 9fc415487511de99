package install

import (
	"context"
	"errors"
	"fmt"

	"github.com/luminahq/lumina-install/internal/sysops"
)

// ErrServiceNotInstalled means a service command was requested but no
// service binary exists at the standard path.
var ErrServiceNotInstalled = errors.New("service is not installed")

// Status reports what is currently installed. It is derived from
// fresh existence checks on every call; installations are externally
// mutable between queries, so nothing is cached.
type Status struct {
	AppInstalled     bool
	ServiceInstalled bool
}

// Query inspects the standard install locations.
func Query(sys sysops.System, layout Layout) Status {
	return Status{
		AppInstalled:     sys.Exists(layout.AppPath()),
		ServiceInstalled: sys.Exists(layout.ServicePath),
	}
}

// RunServiceCommand passes args through to the installed service
// binary with inherited standard streams and returns its exit code.
func RunServiceCommand(ctx context.Context, sys sysops.System, layout Layout, args []string) (int, error) {
	if !sys.Exists(layout.ServicePath) {
		return -1, fmt.Errorf("%w: %s", ErrServiceNotInstalled, layout.ServicePath)
	}
	return sys.RunPassthrough(ctx, layout.ServicePath, args...)
}

// Launch opens the installed application without waiting for it.
func Launch(sys sysops.System, layout Layout) error {
	if !sys.Exists(layout.AppPath()) {
		return fmt.Errorf("application is not installed at %s", layout.AppPath())
	}
	argv := layout.LaunchArgv()
	return sys.StartProcess(argv[0], argv[1:]...)
}
