package client

import (
	apperrors "github.com/xiebiao/bookstore-admin/pkg/errors"
)

// ErrClientDuplicate 客户邮箱已存在
var ErrClientDuplicate = apperrors.New(apperrors.ErrCodeConflict, "客户邮箱已存在")
