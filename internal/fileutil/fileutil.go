// Package fileutil holds small filesystem helpers shared by the mover and the
// history undo path.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Exists reports whether anything (file, directory, or dangling symlink) is
// present at path.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

// DirExists reports whether path is an existing directory, following symlinks.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// CopyVerified streams src to a temporary file next to dst, verifying size and
// SHA-256 of what was written, carries over the source's permission bits and
// modification time, then renames it over dst. A failed copy leaves dst, new
// or pre-existing, untouched.
func CopyVerified(src, dst string) (int64, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".copy-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	written, err := copyHashed(src, tmp, srcInfo)
	if err != nil {
		return written, err
	}
	if err := os.Chmod(tmpPath, srcInfo.Mode().Perm()); err != nil {
		return written, fmt.Errorf("preserve mode: %w", err)
	}
	if err := os.Chtimes(tmpPath, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
		return written, fmt.Errorf("preserve mtime: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return written, fmt.Errorf("replace destination: %w", err)
	}
	committed = true
	return written, nil
}

// copyHashed fills out from src and closes it.
func copyHashed(src string, out *os.File, srcInfo fs.FileInfo) (int64, error) {
	defer func() {
		_ = out.Close()
	}()
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(out, dstHasher), io.TeeReader(in, srcHasher))
	if err != nil {
		return written, err
	}
	if err := out.Sync(); err != nil {
		return written, err
	}
	if err := out.Close(); err != nil {
		return written, err
	}
	if written != srcInfo.Size() {
		return written, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		return written, errors.New("copy hash mismatch: file corrupted during copy")
	}
	return written, nil
}
