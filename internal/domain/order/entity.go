package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order 订单实体(聚合根)
// 设计要点:
// 1. OrderLines是聚合内的值对象,没有独立ID,只能通过Order访问
// 2. Total和TotalItems是冗余字段,每次创建/更新时由Recalculate重新计算
// 3. UserID/ClientID只保存引用,删除订单不会影响用户和客户
// 4. IsDeleted保留在文档结构中,删除操作为物理删除,该字段恒为false
// 5. Version是订单文档的乐观锁版本号,创建时为1,每次更新加1
type Order struct {
	ID         string
	UserID     string
	ClientID   string
	OrderLines []OrderLine
	TotalItems int
	Total      decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
	IsDeleted  bool
	Version    int64
}

// OrderLine 订单明细
// Price是调用方提交的单价,校验时必须与图书当前售价一致
type OrderLine struct {
	ProductID string
	Price     decimal.Decimal
	Quantity  int
	Total     decimal.Decimal // Price × Quantity
}

// NewOrder 根据请求创建候选订单(尚未校验、未持久化)
func NewOrder(userID, clientID string, lines []OrderLine) *Order {
	return &Order{
		UserID:     userID,
		ClientID:   clientID,
		OrderLines: lines,
		Total:      decimal.Zero,
	}
}

// Recalculate 重新计算明细小计、订单总额和总件数
// 调用方传入的line.Total会被覆盖
func (o *Order) Recalculate() {
	total := decimal.Zero
	items := 0
	for i := range o.OrderLines {
		line := &o.OrderLines[i]
		line.Total = line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(line.Total)
		items += line.Quantity
	}
	o.Total = total
	o.TotalItems = items
}

// Quantities 按图书汇总数量(同一本书出现在多行时合并)
func (o *Order) Quantities() map[string]int {
	result := make(map[string]int, len(o.OrderLines))
	for _, line := range o.OrderLines {
		result[line.ProductID] += line.Quantity
	}
	return result
}

// HasLines 是否包含订单明细
func (o *Order) HasLines() bool {
	return len(o.OrderLines) > 0
}

// IsOwnedBy 检查订单是否属于指定用户
func (o *Order) IsOwnedBy(userID string) bool {
	return o.UserID == userID
}

// Touch 刷新更新时间,首次调用时同时设置创建时间
func (o *Order) Touch(now time.Time) {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
}
