package user

import (
	apperrors "github.com/xiebiao/bookstore-admin/pkg/errors"
)

var (
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = apperrors.ErrUserNotFound

	// ErrEmailDuplicate 邮箱已被注册
	ErrEmailDuplicate = apperrors.New(apperrors.ErrCodeBusinessError, "邮箱已被注册")
)
