// Package verify computes and checks artifact digests. Nothing may be
// installed unless its digest matches the manifest's expectation.
package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Prefix tags digests with the algorithm they were computed with.
const Prefix = "sha256:"

// MismatchError reports a digest that did not match the manifest.
type MismatchError struct {
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("integrity mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// Normalize returns the canonical form of a digest string: lowercase
// hex with the algorithm prefix.
func Normalize(digest string) string {
	digest = strings.ToLower(strings.TrimSpace(digest))
	if !strings.HasPrefix(digest, Prefix) {
		digest = Prefix + digest
	}
	return digest
}

// FileDigest streams the file at path through sha256 and returns the
// normalized digest. The file is never loaded into memory at once;
// artifacts may be multi-gigabyte bundle images.
func FileDigest(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	return Digest(file)
}

// Digest computes the normalized sha256 digest of everything read
// from in.
func Digest(in io.Reader) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, in); err != nil {
		return "", err
	}
	return Prefix + hex.EncodeToString(hash.Sum(nil)), nil
}

// Verify checks the file at path against the expected digest. On
// mismatch it returns a *MismatchError and leaves the file in place;
// deciding whether to delete or retry is the caller's policy.
func Verify(path string, expected string) error {
	actual, err := FileDigest(path)
	if err != nil {
		return err
	}
	expected = Normalize(expected)
	if actual != expected {
		return &MismatchError{Expected: expected, Actual: actual}
	}
	return nil
}
