package merge

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/agentx-labs/projinit/internal/logging"
	"go.uber.org/zap"
)

// Policy decides what happens when a staged file already exists in the
// destination.
type Policy string

const (
	// Skip keeps the existing destination file.
	Skip Policy = "skip"
	// Replace overwrites the destination file.
	Replace Policy = "replace"
)

// ParsePolicy converts a string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case Skip, Replace:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unknown merge policy %q: must be %q or %q", s, Skip, Replace)
	}
}

// Result counts what a merge did.
type Result struct {
	Copied  []string // destination-relative paths written
	Skipped []string // destination-relative paths left untouched
	Ignored []string // source entries that are not regular files or directories
}

// Merger copies trees. The zero value is usable and logs nothing.
type Merger struct {
	Log *zap.Logger
}

// Merge copies src into dst. dst is created if it does not exist. Any
// filesystem failure other than an expected exists/not-exists condition
// aborts the merge and is returned.
func (m *Merger) Merge(src, dst string, policy Policy) (*Result, error) {
	if _, err := ParsePolicy(string(policy)); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dst, 0755); err != nil {
		return nil, fmt.Errorf("creating destination %s: %w", dst, err)
	}

	res := &Result{}
	if err := m.mergeDir(src, dst, "", policy, res); err != nil {
		return res, err
	}
	return res, nil
}

func (m *Merger) mergeDir(srcDir, dstDir, rel string, policy Policy, res *Result) error {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", srcDir, err)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(srcDir, entry.Name())
		dstPath := filepath.Join(dstDir, entry.Name())
		relPath := filepath.Join(rel, entry.Name())

		switch {
		case entry.Type().IsRegular():
			copied, err := m.mergeFile(srcPath, dstPath, policy)
			if err != nil {
				return err
			}
			if copied {
				res.Copied = append(res.Copied, relPath)
			} else {
				res.Skipped = append(res.Skipped, relPath)
			}

		case entry.IsDir():
			if err := os.Mkdir(dstPath, 0755); err != nil && !errors.Is(err, fs.ErrExist) {
				return fmt.Errorf("creating directory %s: %w", dstPath, err)
			}
			if err := m.mergeDir(srcPath, dstPath, relPath, policy, res); err != nil {
				return err
			}

		default:
			m.logger().Warn("skipping non-regular entry", zap.String("path", relPath), zap.Stringer("mode", entry.Type()))
			res.Ignored = append(res.Ignored, relPath)
		}
	}
	return nil
}

// mergeFile copies one file and reports whether it was written.
func (m *Merger) mergeFile(src, dst string, policy Policy) (bool, error) {
	if policy == Skip {
		_, err := os.Lstat(dst)
		switch {
		case err == nil:
			m.logger().Debug("keeping existing file", zap.String("path", dst))
			return false, nil
		case !errors.Is(err, fs.ErrNotExist):
			return false, fmt.Errorf("probing %s: %w", dst, err)
		}
	}

	if err := copyFile(src, dst); err != nil {
		return false, fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return true, nil
}

func (m *Merger) logger() *zap.Logger {
	return logging.OrNop(m.Log)
}

// copyFile copies a single file from src to dst, preserving permissions.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
