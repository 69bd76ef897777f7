package errors

import (
	"context"
	"errors"
	"strconv"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// errorDomain gRPC ErrorInfo中的domain字段
const errorDomain = "bookstore-admin"

// GRPCCode 业务错误码映射为gRPC状态码
func GRPCCode(code int) codes.Code {
	switch {
	case code == ErrCodeUnauthorized, code == ErrCodeInvalidToken, code == ErrCodeTokenExpired, code == ErrCodeInvalidPassword:
		return codes.Unauthenticated
	case code == ErrCodeForbidden:
		return codes.PermissionDenied
	case code == ErrCodeInsufficientStock:
		return codes.FailedPrecondition
	case code >= 40400 && code < 40500:
		return codes.NotFound
	case code >= 40900 && code < 41000:
		return codes.Aborted
	case code >= 40000 && code < 40100:
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

// ToGRPCStatus 将错误转换为gRPC Status
// 业务错误码放在ErrorInfo.Metadata中，客户端可据此还原AppError
func ToGRPCStatus(err error) *status.Status {
	if err == nil {
		return status.New(codes.OK, "")
	}
	if errors.Is(err, context.Canceled) {
		return status.New(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.New(codes.DeadlineExceeded, err.Error())
	}

	appErr := GetAppError(err)
	st := status.New(GRPCCode(appErr.Code), appErr.Message)

	detailed, detailErr := st.WithDetails(&errdetails.ErrorInfo{
		Reason: strconv.Itoa(appErr.Code),
		Domain: errorDomain,
		Metadata: map[string]string{
			"code": strconv.Itoa(appErr.Code),
		},
	})
	if detailErr != nil {
		return st
	}
	return detailed
}

// FromGRPCStatus 从gRPC Status中还原AppError
func FromGRPCStatus(st *status.Status) *AppError {
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != errorDomain {
			continue
		}
		if code, err := strconv.Atoi(info.GetMetadata()["code"]); err == nil {
			return New(code, st.Message())
		}
	}
	return New(ErrCodeInternal, st.Message())
}
