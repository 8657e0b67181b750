package driven

// FileMover is the filesystem mutation capability used by the
// executor. It is the only port through which docfold moves files.
type FileMover interface {
	// Move relocates a file. Implementations rename when possible and
	// fall back to copy-then-delete for cross-device moves, deleting
	// the source only after the copy is confirmed.
	Move(src, dst string) error

	// MkdirAll creates a directory and any missing ancestors.
	// Idempotent.
	MkdirAll(path string) error

	// Exists reports whether a path exists.
	Exists(path string) (bool, error)

	// IsRegular reports whether a path exists and is a regular file.
	IsRegular(path string) (bool, error)
}
