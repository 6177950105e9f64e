package ssh

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"hypedeploy/internal/logger"

	"github.com/pkg/sftp"
)

const tmpSuffix = ".hypedeploy-tmp"

// Mirror copies localPath to remotePath over an SFTP connection.
//
// A regular file is copied to exactly remotePath. A directory has its
// contents copied into remotePath, creating it when needed. Files whose
// remote size and modification time already match are left alone, and
// nothing that exists only on the remote side is removed.
func Mirror(client *sftp.Client, localPath string, remotePath string) (SyncStats, error) {
	var stats SyncStats

	info, err := os.Stat(localPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stats, fmt.Errorf("%w: %s", ErrLocalPathMissing, localPath)
		}
		return stats, err
	}

	if !info.IsDir() {
		if err := client.MkdirAll(path.Dir(remotePath)); err != nil {
			return stats, fmt.Errorf("create %s: %w", path.Dir(remotePath), err)
		}
		return stats, mirrorFile(client, localPath, info, remotePath, &stats)
	}

	root := filepath.Clean(localPath)

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}

		target := remotePath
		if rel != "." {
			target = path.Join(remotePath, filepath.ToSlash(rel))
		}

		if d.IsDir() {
			stats.Dirs++
			if err := client.MkdirAll(target); err != nil {
				return fmt.Errorf("create %s: %w", target, err)
			}
			return nil
		}

		fileInfo, err := os.Stat(p)
		if err != nil {
			return err
		}

		if fileInfo.IsDir() {
			logger.Warn("skipping symlinked directory %s", p)
			return nil
		}

		return mirrorFile(client, p, fileInfo, target, &stats)
	})

	return stats, err
}

func unchanged(local fs.FileInfo, remote fs.FileInfo) bool {
	return remote.Mode().IsRegular() &&
		remote.Size() == local.Size() &&
		remote.ModTime().Unix() == local.ModTime().Unix()
}

func mirrorFile(client *sftp.Client, localPath string, local fs.FileInfo, remotePath string, stats *SyncStats) error {
	remote, err := client.Stat(remotePath)

	switch {
	case err == nil:
		if remote.IsDir() {
			return fmt.Errorf("remote path %s is a directory", remotePath)
		}
		if unchanged(local, remote) {
			stats.Skipped++
			return nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("stat %s: %w", remotePath, err)
	}

	if err := uploadFile(client, localPath, local, remotePath); err != nil {
		return err
	}

	stats.Uploaded++
	return nil
}

// uploadFile writes to a sibling temp file and renames it over remotePath so
// a binary that is currently executing can be replaced.
func uploadFile(client *sftp.Client, localPath string, local fs.FileInfo, remotePath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer src.Close()

	tmp := remotePath + tmpSuffix

	dst, err := client.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	if _, err := dst.ReadFrom(src); err != nil {
		dst.Close()
		_ = client.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}

	if err := dst.Close(); err != nil {
		_ = client.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	if err := client.Chmod(tmp, local.Mode().Perm()); err != nil {
		_ = client.Remove(tmp)
		return fmt.Errorf("chmod %s: %w", tmp, err)
	}

	if err := client.Chtimes(tmp, local.ModTime(), local.ModTime()); err != nil {
		_ = client.Remove(tmp)
		return fmt.Errorf("chtimes %s: %w", tmp, err)
	}

	if err := client.PosixRename(tmp, remotePath); err != nil {
		_ = client.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}

	logger.Debug("uploaded %s -> %s", localPath, remotePath)

	return nil
}
