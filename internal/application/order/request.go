package order

import (
	"github.com/shopspring/decimal"

	"github.com/xiebiao/bookstore-admin/internal/domain/order"
)

// OrderRequest 创建/更新订单请求
type OrderRequest struct {
	UserID     string
	ClientID   string
	OrderLines []OrderLineRequest
}

// OrderLineRequest 订单明细请求
// Total会被忽略,由Price×Quantity重新计算
type OrderLineRequest struct {
	ProductID string
	Price     decimal.Decimal
	Quantity  int
	Total     decimal.Decimal
}

// toOrder 请求映射为候选订单
func (r OrderRequest) toOrder() *order.Order {
	lines := make([]order.OrderLine, 0, len(r.OrderLines))
	for _, l := range r.OrderLines {
		lines = append(lines, order.OrderLine{
			ProductID: l.ProductID,
			Price:     l.Price,
			Quantity:  l.Quantity,
			Total:     l.Total,
		})
	}
	return order.NewOrder(r.UserID, r.ClientID, lines)
}
