// Package sysops isolates filesystem and process mutation behind a
// narrow capability interface, with a real implementation for the host
// OS and an in-memory fake for tests.
package sysops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// System is the set of OS operations the installers need. Nothing in
// the install pipeline touches the OS except through this interface.
type System interface {
	// Mount makes the contents of a downloaded bundle image available
	// under mountPoint. On macOS this attaches the disk image; on
	// other systems the archive is unpacked into the directory.
	Mount(ctx context.Context, image string, mountPoint string) error
	// Unmount releases a mount point created by Mount.
	Unmount(ctx context.Context, mountPoint string) error

	CopyTree(src string, dst string) error
	CopyFile(src string, dst string, mode os.FileMode) error
	RemoveAll(path string) error
	SetExecutable(path string) error
	Exists(path string) bool
	MkdirAll(path string) error
	List(dir string) ([]string, error)

	// RunProcess runs a program to completion and returns its exit
	// code. A non-zero exit code is not an error.
	RunProcess(ctx context.Context, name string, args ...string) (int, error)
	// RunPassthrough is RunProcess with the parent's standard streams
	// attached; terminal signals reach the child directly.
	RunPassthrough(ctx context.Context, name string, args ...string) (int, error)
	// StartProcess launches a program without waiting for it.
	StartProcess(name string, args ...string) error
}

// OS is the real-host implementation of System.
type OS struct{}

var _ System = (*OS)(nil)

func (OS) Mount(ctx context.Context, image string, mountPoint string) error {
	if runtime.GOOS == "darwin" {
		cmd := exec.CommandContext(ctx, "hdiutil", "attach", image, "-nobrowse", "-quiet", "-mountpoint", mountPoint)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("hdiutil attach: %w: %s", err, out)
		}
		return nil
	}

	if err := os.MkdirAll(mountPoint, 0755); err != nil {
		return fmt.Errorf("create mount point: %w", err)
	}
	if err := unpack(image, mountPoint); err != nil {
		_ = os.RemoveAll(mountPoint)
		return err
	}
	return nil
}

func (OS) Unmount(ctx context.Context, mountPoint string) error {
	if runtime.GOOS == "darwin" {
		cmd := exec.CommandContext(ctx, "hdiutil", "detach", mountPoint, "-quiet")
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("hdiutil detach: %w: %s", err, out)
		}
		return nil
	}
	return os.RemoveAll(mountPoint)
}

func (o OS) CopyTree(src string, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		default:
			return o.CopyFile(path, target, info.Mode().Perm())
		}
	})
}

// CopyFile writes src to a temporary sibling of dst and moves it into
// place, renaming any existing file aside first so the swap works on
// Windows too.
func (OS) CopyFile(src string, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	dstDir := filepath.Dir(dst)
	dstName := filepath.Base(dst)

	dstNew := filepath.Join(dstDir, fmt.Sprintf(".%s.new", dstName))
	out, err := os.OpenFile(dstNew, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	// close before rename, windows won't move an open file
	if err := out.Close(); err != nil {
		return err
	}

	if _, err := os.Stat(dst); err == nil {
		dstOld := filepath.Join(dstDir, fmt.Sprintf(".%s.old", dstName))
		_ = os.Remove(dstOld)
		if err := os.Rename(dst, dstOld); err != nil {
			return err
		}
	}

	return os.Rename(dstNew, dst)
}

func (OS) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (OS) SetExecutable(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, 0755)
}

func (OS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OS) MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func (OS) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}

func (OS) RunProcess(ctx context.Context, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return runExitCode(cmd)
}

func (OS) RunPassthrough(ctx context.Context, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return runExitCode(cmd)
}

func (OS) StartProcess(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

func runExitCode(cmd *exec.Cmd) (int, error) {
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
