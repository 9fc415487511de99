package sysops

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// unpack extracts the archive into dir. Bundle images on non-macOS
// platforms ship as tarballs or zip files.
func unpack(archive string, dir string) error {
	switch {
	case strings.HasSuffix(archive, ".tar.gz") || strings.HasSuffix(archive, ".tgz"):
		return unpackTarGz(archive, dir)
	case strings.HasSuffix(archive, ".zip"):
		return unpackZip(archive, dir)
	}
	return fmt.Errorf("unsupported archive: %s", filepath.Base(archive))
}

func unpackTarGz(archive string, dir string) error {
	in, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	gzReader, err := gzip.NewReader(in)
	if err != nil {
		return err
	}
	tarReader := tar.NewReader(gzReader)

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := securePath(dir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := secureLinkTarget(dir, target, header.Linkname); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := os.Symlink(header.Linkname, target); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tarReader, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}
		}
	}
}

func unpackZip(archive string, dir string) error {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer func() {
		_ = reader.Close()
	}()

	for _, file := range reader.File {
		target, err := securePath(dir, file.Name)
		if err != nil {
			return err
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, file.Mode().Perm()); err != nil {
				return err
			}
			continue
		}

		in, err := file.Open()
		if err != nil {
			return err
		}
		err = writeEntry(target, in, file.Mode().Perm())
		_ = in.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// securePath rejects entries that would escape dir. An entry that
// cleans to the destination root itself (the `./` directory entry of a
// `tar -C dir .` style archive) is legitimate and maps to dir.
func securePath(dir string, name string) (string, error) {
	base := filepath.Clean(dir)
	target := filepath.Join(dir, filepath.Clean(name))
	if target == base {
		return target, nil
	}
	if !strings.HasPrefix(target, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes destination: %s", name)
	}
	return target, nil
}

// secureLinkTarget rejects symlinks whose target points outside dir.
// Archive contents are untrusted until unpacked, link targets included.
func secureLinkTarget(dir string, linkPath string, linkname string) error {
	if filepath.IsAbs(linkname) {
		return fmt.Errorf("archive symlink has absolute target: %s", linkname)
	}
	base := filepath.Clean(dir)
	resolved := filepath.Join(filepath.Dir(linkPath), linkname)
	if resolved != base && !strings.HasPrefix(resolved, base+string(os.PathSeparator)) {
		return fmt.Errorf("archive symlink escapes destination: %s", linkname)
	}
	return nil
}

func writeEntry(target string, in io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
