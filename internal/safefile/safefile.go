// Package safefile reads and writes the local files reportlane is pointed
// at (config, report batches) without following symlinks or loading
// unbounded input.
package safefile

import (
	"fmt"
	"os"
	"path/filepath"
)

// RejectSymlink returns an error if path is a symbolic link. Lstat keeps the
// check from following the link.
func RejectSymlink(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("%s is a symbolic link", path)
	}
	return nil
}

// ReadFileMax reads a regular, non-symlink file of at most maxBytes.
func ReadFileMax(path string, maxBytes int64) ([]byte, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return nil, fmt.Errorf("%s is a symbolic link", path)
	case !info.Mode().IsRegular():
		return nil, fmt.Errorf("%s is not a regular file", path)
	case info.Size() > maxBytes:
		return nil, fmt.Errorf("%s is too large (%d bytes, max %d)", path, info.Size(), maxBytes)
	}
	return os.ReadFile(path)
}

// WriteAtomic replaces path with data via a synced temp file in the same
// directory, so readers never see a partial file. An existing symlink at
// path is refused.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	if err := RejectSymlink(path); err != nil && !os.IsNotExist(err) {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer os.Remove(name) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(name, perm); err != nil {
		return err
	}
	return os.Rename(name, path)
}
