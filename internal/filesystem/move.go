package filesystem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// MoveDir moves the directory src to dst, replacing anything already at dst.
// A rename is attempted first; when src and dst live on different devices the
// tree is copied and src removed afterwards.
func MoveDir(src, dst string) error {
	start := time.Now()
	volume := defaultResolver.Resolve(dst)
	err := moveDir(src, dst)
	if obs := observe(); obs != nil {
		obs.ObserveOperation(volume, "move", time.Since(start).Seconds(), err)
	}
	return err
}

func moveDir(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", dst, err)
	}
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("clear %s: %w", dst, err)
	}

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("rename %s to %s: %w", src, dst, err)
	}

	if err := copyTree(src, dst); err != nil {
		_ = os.RemoveAll(dst)
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return os.RemoveAll(src)
}

// MoveFile moves a single file, creating dst's parent directory as needed.
func MoveFile(src, dst string) error {
	start := time.Now()
	volume := defaultResolver.Resolve(dst)
	err := moveFile(src, dst)
	if obs := observe(); obs != nil {
		obs.ObserveOperation(volume, "move", time.Since(start).Seconds(), err)
	}
	return err
}

func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", dst, err)
	}
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("rename %s to %s: %w", src, dst, err)
	}
	if err := copyFile(src, dst, 0o644); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, info.Mode().Perm())
	})
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := OpenWithRetry(src, DefaultRetryConfig())
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// RemoveDir removes path and everything below it. A missing path is not an error.
func RemoveDir(path string) error {
	start := time.Now()
	err := os.RemoveAll(path)
	if obs := observe(); obs != nil {
		obs.ObserveOperation(defaultResolver.Resolve(path), "remove", time.Since(start).Seconds(), err)
	}
	return err
}

// RemoveFile removes a single file. A missing file is not an error.
func RemoveFile(path string) error {
	start := time.Now()
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	if obs := observe(); obs != nil {
		obs.ObserveOperation(defaultResolver.Resolve(path), "remove", time.Since(start).Seconds(), err)
	}
	return err
}
