package verify

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestVerifyRoundTrip(t *testing.T) {
	path := writeTempFile(t, "lumina release artifact bytes")

	digest, err := FileDigest(path)
	if err != nil {
		t.Fatalf("FileDigest() failed: %v", err)
	}
	if !strings.HasPrefix(digest, Prefix) {
		t.Errorf("FileDigest() = %v, want %s prefix", digest, Prefix)
	}

	if err := Verify(path, digest); err != nil {
		t.Errorf("Verify() with own digest failed: %v", err)
	}
}

func TestVerifyMismatch(t *testing.T) {
	path := writeTempFile(t, "lumina release artifact bytes")

	other := Prefix + strings.Repeat("a", 64)
	err := Verify(path, other)
	if err == nil {
		t.Fatal("Verify() succeeded unexpectedly")
	}

	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Verify() error = %T, want *MismatchError", err)
	}
	if mismatch.Expected != other {
		t.Errorf("MismatchError.Expected = %v, want %v", mismatch.Expected, other)
	}
	if mismatch.Actual == "" || mismatch.Actual == other {
		t.Errorf("MismatchError.Actual = %v, want the file's digest", mismatch.Actual)
	}

	// the caller decides what happens to the bad artifact
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Verify() removed the artifact: %v", err)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		testName string
		digest   string
		want     string
	}{
		{
			testName: "already canonical",
			digest:   "sha256:" + strings.Repeat("ab", 32),
			want:     "sha256:" + strings.Repeat("ab", 32),
		},
		{
			testName: "uppercase hex",
			digest:   "SHA256:" + strings.Repeat("AB", 32),
			want:     "sha256:" + strings.Repeat("ab", 32),
		},
		{
			testName: "missing prefix",
			digest:   strings.Repeat("ab", 32),
			want:     "sha256:" + strings.Repeat("ab", 32),
		},
		{
			testName: "surrounding whitespace",
			digest:   " " + strings.Repeat("ab", 32) + "\n",
			want:     "sha256:" + strings.Repeat("ab", 32),
		},
	}
	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			if got := Normalize(tt.digest); got != tt.want {
				t.Errorf("Normalize() = %v, want %v", got, tt.want)
			}
		})
	}
}
