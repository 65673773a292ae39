package predicate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileExists reports whether the presence of a regular file at path matches
// expected. When expected is false, any entry at path (file, directory,
// symlink) fails the check; only absence passes.
func FileExists(_ context.Context, expected bool, path string) (bool, error) {
	return probe(path, expected, fs.FileMode.IsRegular)
}

// DirExists is the directory counterpart of FileExists.
func DirExists(_ context.Context, expected bool, path string) (bool, error) {
	return probe(path, expected, fs.FileMode.IsDir)
}

func probe(path string, expected bool, isKind func(fs.FileMode) bool) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return !expected, nil
		}
		return false, fmt.Errorf("probing %s: %w", path, err)
	}
	if !expected {
		return false, nil
	}
	return isKind(info.Mode()), nil
}
