// Package platform maps raw OS/architecture signals to the canonical
// platform keys used to index the release manifest.
package platform

import (
	"fmt"
	"runtime"
)

// Key identifies a supported target platform, e.g. `darwin-universal`
// or `windows-amd64`.
type Key struct {
	OS   string
	Arch string
}

func (k Key) String() string {
	return k.OS + "-" + k.Arch
}

// ErrUnsupported is returned for operating systems the manifest never
// carries artifacts for.
var ErrUnsupported = fmt.Errorf("unsupported platform")

// archAliases normalizes the architecture names seen across release
// tooling to Go's GOARCH conventions.
var archAliases = map[string]string{
	"x64":     "amd64",
	"x86_64":  "amd64",
	"amd64":   "amd64",
	"arm64":   "arm64",
	"aarch64": "arm64",
	"ia32":    "386",
	"x86":     "386",
	"386":     "386",
}

// Identify derives the canonical key for the given raw OS and
// architecture signals.
//
// macOS builds ship as universal binaries, so any darwin architecture
// collapses to the single `darwin-universal` key. Architectures missing
// from the alias table pass through unchanged; whether such a key is
// actually supported is decided by the manifest lookup, not here.
func Identify(rawOS, rawArch string) (Key, error) {
	switch rawOS {
	case "darwin":
		return Key{OS: "darwin", Arch: "universal"}, nil
	case "windows", "linux":
		arch, ok := archAliases[rawArch]
		if !ok {
			arch = rawArch
		}
		return Key{OS: rawOS, Arch: arch}, nil
	}
	return Key{}, fmt.Errorf("%w: %s", ErrUnsupported, rawOS)
}

// Current identifies the platform the process is running on.
func Current() (Key, error) {
	return Identify(runtime.GOOS, runtime.GOARCH)
}
