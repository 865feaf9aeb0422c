// Package blob 保存照片文件本体，记录本身在 repository 中。
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotExist 表示对象不存在（记录还在，但文件丢了）。
var ErrNotExist = errors.New("blob: object does not exist")

// Provider 定义照片存储后端的行为。
type Provider interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Get(ctx context.Context, key string) (*FileObject, error)
	Delete(ctx context.Context, key string) error
}

// FileObject 是与后端无关的文件表示。调用方负责关闭 Body。
type FileObject struct {
	Body          io.ReadCloser
	ContentLength int64
	ContentType   string
	LastModified  time.Time
}
