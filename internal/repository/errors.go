package repository

import "errors"

// 通用的存储库错误
var (
	// ErrNotFound 表示请求的记录未找到
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry 表示尝试插入的数据违反了唯一约束
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
	// ErrQuotaExceeded 表示条件写入时用户的照片数量会超过上限
	ErrQuotaExceeded = errors.New("repository: photo quota exceeded")
	// ErrSlotTaken 表示该用户的同名槽位已有照片
	ErrSlotTaken = errors.New("repository: photo slot already taken")
)

// 特定资源的错误
var (
	ErrUserNotFound  = ErrNotFound
	ErrPhotoNotFound = ErrNotFound
)
