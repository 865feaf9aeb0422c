package service

import (
	"errors"
)

// Kind 是对外稳定的错误分类，HTTP 层据此决定状态码。
type Kind string

const (
	KindValidation    Kind = "validation"
	KindConflict      Kind = "conflict"
	KindNotFound      Kind = "not_found"
	KindForbidden     Kind = "forbidden"
	KindQuotaExceeded Kind = "quota_exceeded"
	KindGone          Kind = "gone"
	KindStorage       Kind = "storage"
)

// Error 是业务错误。每个哨兵错误都是唯一的指针，可以直接用 errors.Is 比较。
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

var (
	ErrNameRequired      = newError(KindValidation, "name and color are required")
	ErrInvalidCredential = newError(KindValidation, "invalid color for this user")
	ErrCallerRequired    = newError(KindValidation, "userId query required")
	ErrNoFiles           = newError(KindValidation, "no files")
	ErrInvalidTipo       = newError(KindValidation, "unknown photo slot")
	ErrEmptyFile         = newError(KindValidation, "empty file")
	ErrInvalidImage      = newError(KindValidation, "file is not a decodable image")
	ErrInvalidID         = newError(KindValidation, "invalid id")
	ErrInvalidInput      = newError(KindValidation, "invalid input")

	ErrUserExists = newError(KindConflict, "user already exists, please login")
	ErrSlotTaken  = newError(KindConflict, "photo slot already used")

	ErrUserNotFound  = newError(KindNotFound, "user not found")
	ErrPhotoNotFound = newError(KindNotFound, "photo not found")

	ErrAdminOnly      = newError(KindForbidden, "admin only")
	ErrNotPhotoOwner  = newError(KindForbidden, "only the owner or an admin can do this")
	ErrGameNotRunning = newError(KindForbidden, "game not running")

	ErrQuotaExceeded = newError(KindQuotaExceeded, "max 2 photos per user")

	ErrFileMissing  = newError(KindGone, "file missing")
	ErrPhotoRemoved = newError(KindGone, "photo was deleted after the game started")

	ErrInternalServer = newError(KindStorage, "internal server error")
)

// KindOf 返回错误的分类，非业务错误一律视为存储错误。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}
