// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package remote

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/toeirei/wp-deploy/internal/logging"
)

// FileInfo describes one remote file found by ListRecursive.
type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Upload copies a local file to the remote path, creating remote parent
// directories as needed, and returns the number of bytes written. File mode
// is carried over best effort; some servers reject chmod.
func (c *Client) Upload(localPath, remotePath string) (int64, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", localPath, err)
	}
	defer src.Close()

	if dir := path.Dir(remotePath); dir != "" && dir != "." {
		if err := c.sftp.MkdirAll(dir); err != nil {
			return 0, fmt.Errorf("create remote directory %s: %w", dir, err)
		}
	}

	dst, err := c.sftp.Create(remotePath)
	if err != nil {
		return 0, fmt.Errorf("create remote file %s: %w", remotePath, err)
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = c.sftp.Remove(remotePath)
		return n, fmt.Errorf("upload %s: %w", remotePath, err)
	}

	if info, statErr := os.Stat(localPath); statErr == nil {
		_ = c.sftp.Chmod(remotePath, info.Mode())
	}

	logging.Debugf("uploaded %s -> %s (%d bytes)", localPath, remotePath, n)
	return n, nil
}

// Download copies a remote file to the local path, creating local parent
// directories as needed, and returns the number of bytes written.
func (c *Client) Download(remotePath, localPath string) (int64, error) {
	src, err := c.sftp.Open(remotePath)
	if err != nil {
		return 0, fmt.Errorf("open remote file %s: %w", remotePath, err)
	}
	defer src.Close()

	if dir := filepath.Dir(localPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create local directory %s: %w", dir, err)
		}
	}

	dst, err := os.Create(localPath)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", localPath, err)
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("download %s: %w", remotePath, err)
	}

	logging.Debugf("downloaded %s -> %s (%d bytes)", remotePath, localPath, n)
	return n, nil
}

// Exists reports whether a remote path exists.
func (c *Client) Exists(remotePath string) (bool, error) {
	_, err := c.sftp.Stat(remotePath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", remotePath, err)
}

// Mtime returns the modification time of a remote file, or the zero time
// when the file does not exist.
func (c *Client) Mtime(remotePath string) (time.Time, error) {
	info, err := c.sftp.Stat(remotePath)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("stat %s: %w", remotePath, err)
	}
	return info.ModTime(), nil
}

// ListRecursive walks a remote directory tree and returns every regular
// file whose modification time falls within [start, end]. Zero bounds
// disable that side of the filter.
func (c *Client) ListRecursive(root string, start, end time.Time) ([]FileInfo, error) {
	var files []FileInfo
	walker := c.sftp.Walk(root)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			logging.Warnf("error listing %s: %v", walker.Path(), err)
			continue
		}
		info := walker.Stat()
		if info == nil || !info.Mode().IsRegular() {
			continue
		}
		mod := info.ModTime()
		if !start.IsZero() && mod.Before(start) {
			continue
		}
		if !end.IsZero() && mod.After(end) {
			continue
		}
		files = append(files, FileInfo{Path: walker.Path(), Size: info.Size(), ModTime: mod})
	}
	logging.Debugf("found %d file(s) under %s", len(files), root)
	return files, nil
}

// Remove deletes a remote file.
func (c *Client) Remove(remotePath string) error {
	return c.sftp.Remove(remotePath)
}

// ReadFile reads a whole remote file into memory (wp-config.php discovery).
func (c *Client) ReadFile(remotePath string) ([]byte, error) {
	f, err := c.sftp.Open(remotePath)
	if err != nil {
		return nil, fmt.Errorf("open remote file %s: %w", remotePath, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}
