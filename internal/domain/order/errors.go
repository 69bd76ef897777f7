package order

import (
	"github.com/shopspring/decimal"

	apperrors "github.com/xiebiao/bookstore-admin/pkg/errors"
)

// 订单领域错误定义
// 预定义错误用于errors.Is判断类型,带具体信息的错误由下方构造函数生成(错误码相同)
var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = apperrors.New(apperrors.ErrCodeOrderNotFound, "订单不存在")

	// ErrInvalidReference 引用的客户/用户/图书不存在
	ErrInvalidReference = apperrors.New(apperrors.ErrCodeInvalidReference, "引用的数据不存在")

	// ErrInvalidOrder 订单结构不合法
	ErrInvalidOrder = apperrors.New(apperrors.ErrCodeInvalidOrder, "订单不合法")

	// ErrEmptyOrderLines 订单明细为空
	ErrEmptyOrderLines = apperrors.New(apperrors.ErrCodeInvalidOrder, "订单明细不能为空")

	// ErrInsufficientStock 库存不足
	ErrInsufficientStock = apperrors.New(apperrors.ErrCodeInsufficientStock, "库存不足")

	// ErrPriceMismatch 单价与当前售价不一致
	ErrPriceMismatch = apperrors.New(apperrors.ErrCodePriceMismatch, "商品价格已变动")

	// ErrStockConflict 库存并发修改重试耗尽
	ErrStockConflict = apperrors.New(apperrors.ErrCodeConflict, "库存繁忙，请稍后重试")

	// ErrOrderConflict 订单已被并发修改或删除(版本号不匹配)
	ErrOrderConflict = apperrors.New(apperrors.ErrCodeConflict, "订单已被其他请求修改，请重试")

	// ErrInvalidPageQuery 分页参数不合法
	ErrInvalidPageQuery = apperrors.New(apperrors.ErrCodeInvalidParams, "分页参数不合法")
)

// OrderNotFound 订单不存在(带订单ID)
func OrderNotFound(id string) error {
	return apperrors.Newf(apperrors.ErrCodeOrderNotFound, "订单[%s]不存在", id)
}

// ClientNotFound 客户不存在
func ClientNotFound(id string) error {
	return apperrors.Newf(apperrors.ErrCodeInvalidReference, "客户[%s]不存在", id)
}

// UserNotFound 用户不存在
func UserNotFound(id string) error {
	return apperrors.Newf(apperrors.ErrCodeInvalidReference, "用户[%s]不存在", id)
}

// ProductNotFound 图书不存在
func ProductNotFound(id string) error {
	return apperrors.Newf(apperrors.ErrCodeInvalidReference, "图书[%s]不存在", id)
}

// InvalidQuantity 购买数量不合法
func InvalidQuantity(productID string, quantity int) error {
	return apperrors.Newf(apperrors.ErrCodeInvalidOrder, "图书[%s]购买数量必须大于0，当前为%d", productID, quantity)
}

// InsufficientStock 库存不足
func InsufficientStock(productID string, requested, available int) error {
	return apperrors.Newf(apperrors.ErrCodeInsufficientStock,
		"图书[%s]库存不足，需要%d，可用%d", productID, requested, available)
}

// PriceMismatch 价格不一致
func PriceMismatch(productID string, claimed, current decimal.Decimal) error {
	return apperrors.Newf(apperrors.ErrCodePriceMismatch,
		"图书[%s]价格已变动，提交价格%s，当前价格%s", productID, claimed.StringFixed(2), current.StringFixed(2))
}
