package book

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book 图书实体(聚合根)
// 订单流程只关心Price和Stock两个字段:
// 1. Price用decimal存储,比较时统一保留两位小数
// 2. Stock由订单预留/归还修改,任何成功操作之后都不能为负
// 3. Version为乐观锁版本号,每次保存递增
type Book struct {
	ID        string
	ISBN      string
	Title     string
	Author    string
	Price     decimal.Decimal
	Stock     int
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBook 创建新图书(工厂方法)
func NewBook(id, isbn, title, author string, price decimal.Decimal, stock int) *Book {
	now := time.Now()
	return &Book{
		ID:        id,
		ISBN:      isbn,
		Title:     title,
		Author:    author,
		Price:     price,
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// PriceMatches 判断调用方提交的单价是否与当前售价一致(两位小数精度)
func (b *Book) PriceMatches(price decimal.Decimal) bool {
	return b.Price.Round(2).Equal(price.Round(2))
}

// HasStock 判断可用库存是否满足数量
// credit为当前订单已占用、即将释放的数量(更新订单时使用)
func (b *Book) HasStock(quantity, credit int) bool {
	return b.Stock+credit >= quantity
}

// DecrStock 扣减库存(订单预留)
// 业务规则:扣减后库存不能为负数
func (b *Book) DecrStock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if b.Stock < quantity {
		return ErrInsufficientStock
	}
	b.Stock -= quantity
	b.UpdatedAt = time.Now()
	return nil
}

// IncrStock 增加库存(订单归还)
func (b *Book) IncrStock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	b.Stock += quantity
	b.UpdatedAt = time.Now()
	return nil
}

// AdjustStock 按差值调整库存,delta<0为扣减,delta>0为归还
func (b *Book) AdjustStock(delta int) error {
	switch {
	case delta < 0:
		return b.DecrStock(-delta)
	case delta > 0:
		return b.IncrStock(delta)
	default:
		return nil
	}
}
