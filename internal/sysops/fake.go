package sysops

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Fake is an in-memory System for tests. Paths are tracked as a flat
// existence set; mounting an image materializes the entries configured
// in ImageContents under the mount point.
type Fake struct {
	mu sync.Mutex

	files  map[string]bool
	mounts map[string]string

	// ImageContents lists the top-level entries a mounted image
	// exposes, keyed by image path.
	ImageContents map[string][]string
	// ExitCodes overrides the exit code of recorded process runs,
	// keyed by program path.
	ExitCodes map[string]int

	MountErr   error
	UnmountErr error
	CopyErr    error
	RunErr     error

	// Commands records every process invocation, argv style.
	Commands [][]string
	// Unmounts records every unmounted mount point, including the
	// best-effort unmounts on failure paths.
	Unmounts []string
	// Executables records paths marked executable.
	Executables []string
}

var _ System = (*Fake)(nil)

func NewFake() *Fake {
	return &Fake{
		files:         make(map[string]bool),
		mounts:        make(map[string]string),
		ImageContents: make(map[string][]string),
		ExitCodes:     make(map[string]int),
	}
}

// AddFile marks a path as existing.
func (f *Fake) AddFile(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = true
}

func (f *Fake) Mount(ctx context.Context, image string, mountPoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.MountErr != nil {
		return f.MountErr
	}
	f.mounts[mountPoint] = image
	f.files[mountPoint] = true
	for _, name := range f.ImageContents[image] {
		f.files[filepath.Join(mountPoint, name)] = true
	}
	return nil
}

func (f *Fake) Unmount(ctx context.Context, mountPoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Unmounts = append(f.Unmounts, mountPoint)
	if f.UnmountErr != nil {
		return f.UnmountErr
	}
	delete(f.mounts, mountPoint)
	f.removeLocked(mountPoint)
	return nil
}

// Mounted reports whether a mount point is still attached.
func (f *Fake) Mounted(mountPoint string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.mounts[mountPoint]
	return ok
}

func (f *Fake) CopyTree(src string, dst string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CopyErr != nil {
		return f.CopyErr
	}
	if !f.files[src] {
		return os.ErrNotExist
	}
	f.files[dst] = true
	return nil
}

func (f *Fake) CopyFile(src string, dst string, mode os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CopyErr != nil {
		return f.CopyErr
	}
	if !f.files[src] {
		return os.ErrNotExist
	}
	f.files[dst] = true
	return nil
}

func (f *Fake) RemoveAll(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeLocked(path)
	return nil
}

func (f *Fake) SetExecutable(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Executables = append(f.Executables, path)
	return nil
}

func (f *Fake) Exists(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.files[path]
}

func (f *Fake) MkdirAll(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = true
	return nil
}

func (f *Fake) List(dir string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.files[dir] {
		return nil, os.ErrNotExist
	}
	var names []string
	prefix := dir + string(os.PathSeparator)
	for path := range f.files {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := strings.TrimPrefix(path, prefix)
		if !strings.Contains(rest, string(os.PathSeparator)) {
			names = append(names, rest)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (f *Fake) RunProcess(ctx context.Context, name string, args ...string) (int, error) {
	return f.record(name, args)
}

func (f *Fake) RunPassthrough(ctx context.Context, name string, args ...string) (int, error) {
	return f.record(name, args)
}

func (f *Fake) StartProcess(name string, args ...string) error {
	_, err := f.record(name, args)
	return err
}

func (f *Fake) record(name string, args []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Commands = append(f.Commands, append([]string{name}, args...))
	if f.RunErr != nil {
		return -1, f.RunErr
	}
	return f.ExitCodes[name], nil
}

func (f *Fake) removeLocked(path string) {
	delete(f.files, path)
	prefix := path + string(os.PathSeparator)
	for p := range f.files {
		if strings.HasPrefix(p, prefix) {
			delete(f.files, p)
		}
	}
}
