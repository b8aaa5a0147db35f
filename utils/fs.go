package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
)

// ErrNotADirectory is returned by EnsureDirectory if path exists but is not a directory.
var ErrNotADirectory = errors.New("not a directory")

// EnsureDirectory ensures that the given directory exists and has the given
// permissions. Missing parent directories are created with the same
// permissions. Existing files are never replaced.
func EnsureDirectory(path string, perm os.FileMode) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		err = os.MkdirAll(path, perm)
		if err != nil {
			return fmt.Errorf("could not create dir %s: %w", path, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to access %s: %w", path, err)
	case !info.IsDir():
		return fmt.Errorf("%s: %w", path, ErrNotADirectory)
	}

	// Windows does not support unix permissions.
	if info.Mode().Perm() != perm && runtime.GOOS != "windows" {
		return os.Chmod(path, perm)
	}
	return nil
}
