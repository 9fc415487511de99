package install

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/luminahq/lumina-install/internal/sysops"
)

var (
	// ErrMountConflict means another install attempt holds the mount
	// point.
	ErrMountConflict = errors.New("mount point already in use")
	// ErrBundleNotFound means the mounted image contains no
	// application bundle.
	ErrBundleNotFound = errors.New("application bundle not found in image")
)

// AppState tracks the application installer through its lifecycle.
// Any failure at or past Mounted owes a best-effort unmount before the
// error propagates; Done and Failed are terminal.
type AppState int

const (
	StateIdle AppState = iota
	StateMounted
	StateCopied
	StateUnmounted
	StateDone
	StateFailed
)

// AppInstaller installs the application bundle from a verified image
// into the OS-standard application directory. One installer handles
// one install attempt.
type AppInstaller struct {
	Sys    sysops.System
	Layout Layout

	state AppState
}

// State returns the installer's current lifecycle state.
func (in *AppInstaller) State() AppState { return in.state }

// Install mounts image, copies the bundle over any prior installation
// and unmounts. Re-running is idempotent: exactly one installed copy
// exists afterwards. The mount point is always released before an
// error is returned.
func (in *AppInstaller) Install(ctx context.Context, image string) error {
	if in.state != StateIdle {
		return fmt.Errorf("installer already used")
	}

	if in.Sys.Exists(in.Layout.MountPoint) {
		in.state = StateFailed
		return fmt.Errorf("%w: %s", ErrMountConflict, in.Layout.MountPoint)
	}

	if err := in.Sys.Mount(ctx, image, in.Layout.MountPoint); err != nil {
		in.state = StateFailed
		return fmt.Errorf("mount image: %w", err)
	}
	in.state = StateMounted

	bundle, err := in.locateBundle()
	if err != nil {
		return in.fail(ctx, err)
	}

	dest := in.Layout.AppPath()
	if err := in.Sys.RemoveAll(dest); err != nil {
		return in.fail(ctx, fmt.Errorf("remove previous installation: %w", err))
	}
	if err := in.Sys.CopyTree(bundle, dest); err != nil {
		return in.fail(ctx, fmt.Errorf("copy bundle: %w", err))
	}
	in.state = StateCopied

	// The copy already succeeded; a failed detach is worth a log line
	// but not a failed install.
	if err := in.Sys.Unmount(ctx, in.Layout.MountPoint); err != nil {
		slog.Warn("unmount failed after successful copy", "mountpoint", in.Layout.MountPoint, "error", err)
	}
	in.state = StateUnmounted

	in.state = StateDone
	return nil
}

// fail transitions to Failed, releasing the mount point first. The
// mount point must never be left dangling, whatever went wrong.
func (in *AppInstaller) fail(ctx context.Context, err error) error {
	if uerr := in.Sys.Unmount(ctx, in.Layout.MountPoint); uerr != nil {
		slog.Error("cleanup unmount failed", "mountpoint", in.Layout.MountPoint, "error", uerr)
	}
	in.state = StateFailed
	return err
}

// locateBundle finds the application root inside the mounted volume.
// The canonical name is tried first, then the top level is scanned for
// anything following the bundle convention.
func (in *AppInstaller) locateBundle() (string, error) {
	canonical := filepath.Join(in.Layout.MountPoint, in.Layout.BundleName)
	if in.Sys.Exists(canonical) {
		return canonical, nil
	}

	entries, err := in.Sys.List(in.Layout.MountPoint)
	if err != nil {
		return "", fmt.Errorf("list mounted volume: %w", err)
	}
	for _, name := range entries {
		if matchesBundleConvention(in.Layout, name) {
			return filepath.Join(in.Layout.MountPoint, name), nil
		}
	}

	return "", ErrBundleNotFound
}

func matchesBundleConvention(layout Layout, name string) bool {
	if layout.Key.OS == "darwin" {
		return strings.HasSuffix(name, ".app")
	}
	return strings.EqualFold(strings.TrimSuffix(name, ".exe"), layout.BundleName)
}
