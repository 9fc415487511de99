package manifest

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/luminahq/lumina-install/internal/platform"
)

const validManifest = `
version: 1.4.2
installer:
  darwin-universal:
    url: https://releases.lumina.dev/1.4.2/Lumina.dmg
    hash: sha256:6a6f8f9c0d4f4bd42a1c917b13c78b5e53c1f7e3e9b8f15a2ed4b9d2a53b0c11
  windows-amd64:
    url: https://releases.lumina.dev/1.4.2/Lumina.zip
    hash: 6A6F8F9C0D4F4BD42A1C917B13C78B5E53C1F7E3E9B8F15A2ED4B9D2A53B0C11
service:
  darwin-universal:
    url: https://releases.lumina.dev/1.4.2/lumina-service-darwin
    hash: sha256:0e2f1c7b9a8d6e5f4c3b2a1908f7e6d5c4b3a2918b7c6d5e4f3a2b1c0d9e8f7a
release:
  feedUrl: https://api.github.com/repos/luminahq/lumina/releases
  jsonPath: "$[*].tag_name"
  prefix: v
`

func TestParse(t *testing.T) {
	tests := []struct {
		testName string // description of this test case
		// Named input parameters for target function.
		data    string
		wantErr bool
	}{
		{
			testName: "valid manifest",
			data:     validManifest,
			wantErr:  false,
		},
		{
			testName: "missing url",
			data: `
installer:
  darwin-universal:
    hash: sha256:6a6f8f9c0d4f4bd42a1c917b13c78b5e53c1f7e3e9b8f15a2ed4b9d2a53b0c11
`,
			wantErr: true,
		},
		{
			testName: "malformed hash",
			data: `
installer:
  darwin-universal:
    url: https://releases.lumina.dev/1.4.2/Lumina.dmg
    hash: not-a-digest
`,
			wantErr: true,
		},
		{
			testName: "unknown top-level field",
			data: `
artifacts:
  darwin-universal: {}
`,
			wantErr: true,
		},
		{
			testName: "not yaml",
			data:     "{{{",
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			_, gotErr := Parse([]byte(tt.data))
			if gotErr != nil {
				if !tt.wantErr {
					t.Errorf("Parse() failed: %v", gotErr)
				}
				return
			}
			if tt.wantErr {
				t.Fatal("Parse() succeeded unexpectedly")
			}
		})
	}
}

func TestParseNormalizesDigests(t *testing.T) {
	m, err := Parse([]byte(validManifest))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	// the windows entry carries an uppercase digest without a prefix
	want := "sha256:6a6f8f9c0d4f4bd42a1c917b13c78b5e53c1f7e3e9b8f15a2ed4b9d2a53b0c11"
	if got := m.Installer["windows-amd64"].Hash; got != want {
		t.Errorf("Parse() hash = %v, want %v", got, want)
	}
}

func TestResolve(t *testing.T) {
	m, err := Parse([]byte(validManifest))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	tests := []struct {
		testName      string
		key           platform.Key
		wantInstaller bool
		wantService   bool
	}{
		{
			testName:      "fully supported platform",
			key:           platform.Key{OS: "darwin", Arch: "universal"},
			wantInstaller: true,
			wantService:   true,
		},
		{
			testName:      "installer only",
			key:           platform.Key{OS: "windows", Arch: "amd64"},
			wantInstaller: true,
			wantService:   false,
		},
		{
			testName:      "unsupported platform",
			key:           platform.Key{OS: "linux", Arch: "arm64"},
			wantInstaller: false,
			wantService:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			entry := Resolve(m, tt.key)
			if got := entry.Installer != nil; got != tt.wantInstaller {
				t.Errorf("Resolve() installer present = %t, want %t", got, tt.wantInstaller)
			}
			if got := entry.Service != nil; got != tt.wantService {
				t.Errorf("Resolve() service present = %t, want %t", got, tt.wantService)
			}
		})
	}
}

func TestResolveDescriptor(t *testing.T) {
	m, err := Parse([]byte(validManifest))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	entry := Resolve(m, platform.Key{OS: "darwin", Arch: "universal"})
	want := &Descriptor{
		URL:  "https://releases.lumina.dev/1.4.2/Lumina.dmg",
		Hash: "sha256:6a6f8f9c0d4f4bd42a1c917b13c78b5e53c1f7e3e9b8f15a2ed4b9d2a53b0c11",
	}
	if d := cmp.Diff(want, entry.Installer); d != "" {
		t.Errorf("Resolve() installer mismatch (-want/+got): %v", d)
	}
}

func TestLoad(t *testing.T) {
	if _, err := Load(strings.NewReader(validManifest)); err != nil {
		t.Errorf("Load() failed: %v", err)
	}
}
