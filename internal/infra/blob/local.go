package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalProvider 把文件放在本地目录下，key 即文件名。
type LocalProvider struct {
	RootPath string
}

// NewLocalProvider 创建目录并返回 provider
func NewLocalProvider(root string) (*LocalProvider, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create upload dir %s: %w", root, err)
	}
	return &LocalProvider{RootPath: root}, nil
}

// path 只取 key 的文件名部分，防止路径穿越
func (l *LocalProvider) path(key string) (string, error) {
	name := filepath.Base(filepath.Clean("/" + key))
	if name == "/" || name == "." || strings.HasPrefix(name, "..") {
		return "", fmt.Errorf("blob: invalid key %q", key)
	}
	return filepath.Join(l.RootPath, name), nil
}

func (l *LocalProvider) Put(_ context.Context, key string, body io.Reader, _ string) error {
	path, err := l.path(key)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("blob: create %s: %w", path, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("blob: write %s: %w", path, err)
	}
	return f.Close()
}

func (l *LocalProvider) Get(_ context.Context, key string) (*FileObject, error) {
	path, err := l.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("blob: open %s: %w", path, err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("blob: stat %s: %w", path, err)
	}
	return &FileObject{
		Body:          f,
		ContentLength: stat.Size(),
		ContentType:   "application/octet-stream", // 本地文件不保存类型，以记录中的 mime 为准
		LastModified:  stat.ModTime(),
	}, nil
}

// Delete 文件不存在时返回 ErrNotExist
func (l *LocalProvider) Delete(_ context.Context, key string) error {
	path, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotExist
		}
		return fmt.Errorf("blob: remove %s: %w", path, err)
	}
	return nil
}
