package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Local stores media files under a root directory on the local filesystem.
// Uploads and downloads go through the server itself under /media/.
type Local struct {
	root string
}

func NewLocal(root string) *Local {
	return &Local{root: root}
}

// resolve maps a storage key to a filesystem path, rejecting keys that
// would escape the media root. Rejected keys behave like missing files.
func (l *Local) resolve(key string) (string, error) {
	cleaned := path.Clean("/" + key)
	if cleaned == "/" {
		return "", fmt.Errorf("invalid storage key %q: %w", key, fs.ErrNotExist)
	}
	return filepath.Join(l.root, filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))), nil
}

func (l *Local) Save(ctx context.Context, key string, r io.Reader) error {
	p, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (l *Local) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

func (l *Local) PresignUpload(ctx context.Context) (string, string, error) {
	key := RandomKey()
	return key, l.URL(key), nil
}

func (l *Local) PresignDownload(ctx context.Context, key string) (string, error) {
	if _, err := l.resolve(key); err != nil {
		return "", err
	}
	return l.URL(key), nil
}

func (l *Local) URL(key string) string {
	return "/media/" + strings.TrimPrefix(key, "/")
}
