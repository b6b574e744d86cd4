// Package blobsync copies the events file to and from remote object storage.
package blobsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/bobuk/yewcal/internal/logging"
)

var (
	// ErrRemoteOlder aborts a pull that would replace newer local data.
	ErrRemoteOlder = errors.New("remote is older than local")
	// ErrNotFound is returned when the remote object does not exist.
	ErrNotFound = errors.New("remote object not found")
)

// ObjectInfo describes a remote object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Store is a remote blob store.
type Store interface {
	Put(ctx context.Context, key string, body io.ReadSeeker) error
	Get(ctx context.Context, key string, w io.Writer) error
	Stat(ctx context.Context, key string) (ObjectInfo, error)
}

// RemoteKey is the object key for a user's file.
func RemoteKey(user, filename string) string {
	return path.Join(user, filename)
}

// Push uploads the local file to key.
func Push(ctx context.Context, store Store, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	logging.FromContext(ctx).Debug("pushing events", slog.String("path", localPath), slog.String("key", key))
	if err := store.Put(ctx, key, f); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// PullResult reports the timestamps compared by Pull.
type PullResult struct {
	Remote time.Time
	Local  time.Time
}

// Pull replaces the local file with the remote object. It refuses when the
// remote object was modified before the local file. The download goes to a
// temporary file which then replaces localPath; its mtime is set to the
// remote timestamp.
func Pull(ctx context.Context, store Store, key, localPath string) (PullResult, error) {
	var res PullResult
	info, err := store.Stat(ctx, key)
	if err != nil {
		return res, fmt.Errorf("stat %s: %w", key, err)
	}
	res.Remote = info.LastModified

	st, err := os.Stat(localPath)
	switch {
	case err == nil:
		res.Local = st.ModTime()
		if res.Remote.Before(res.Local) {
			return res, ErrRemoteOlder
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return res, fmt.Errorf("stat %s: %w", localPath, err)
	}

	dir := filepath.Dir(localPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return res, fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(localPath)+".pull.*")
	if err != nil {
		return res, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := store.Get(ctx, key, tmp); err != nil {
		tmp.Close()
		return res, fmt.Errorf("download %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return res, fmt.Errorf("sync download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return res, fmt.Errorf("close download: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return res, fmt.Errorf("chmod download: %w", err)
	}
	if !res.Remote.IsZero() {
		if err := os.Chtimes(tmpName, res.Remote, res.Remote); err != nil {
			return res, fmt.Errorf("set mtime: %w", err)
		}
	}
	if err := os.Rename(tmpName, localPath); err != nil {
		return res, fmt.Errorf("replace %s: %w", localPath, err)
	}
	logging.FromContext(ctx).Debug("pulled events", slog.String("key", key), slog.Time("remote", res.Remote))
	return res, nil
}
