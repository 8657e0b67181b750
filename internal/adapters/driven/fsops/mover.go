// Package fsops implements the filesystem mutation port. It is the
// only place docfold touches files outside its own state directory.
package fsops

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"syscall"

	"github.com/docfold/docfold/internal/core/ports/driven"
)

// Ensure Mover implements the interface.
var _ driven.FileMover = (*Mover)(nil)

// Mover moves files with os.Rename, falling back to copy-then-delete
// when source and destination live on different devices.
type Mover struct{}

// NewMover creates a mover.
func NewMover() *Mover {
	return &Mover{}
}

// Move relocates a file. The source is deleted only after the copy
// has been written and synced, so a failure mid-move never loses the
// original.
func (m *Mover) Move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	var linkErr *os.LinkError
	if errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
		return m.copyThenDelete(src, dst)
	}
	return err
}

// copyThenDelete handles cross-device moves.
func (m *Mover) copyThenDelete(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	// O_EXCL keeps the no-overwrite guarantee across the device gap.
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copy: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("sync destination: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("close destination: %w", err)
	}

	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}

// MkdirAll creates a directory and any missing ancestors.
func (m *Mover) MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

// Exists reports whether a path exists.
func (m *Mover) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// IsRegular reports whether a path exists and is a regular file.
func (m *Mover) IsRegular(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}
