package order

import (
	"context"
	"time"

	"github.com/xiebiao/bookstore-admin/internal/domain/order"
)

// Transactor 关系库事务
// fn内部通过ctx取得事务句柄,返回错误时回滚
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Cache 订单详情缓存(cache-aside)
// Get未命中时返回(nil, nil)
// Invalidate删除缓存并记下最低版本号,此后Version低于该值的订单不会被Set写回
type Cache interface {
	Get(ctx context.Context, id string) (*order.Order, error)
	Set(ctx context.Context, o *order.Order) error
	Invalidate(ctx context.Context, id string, minVersion int64) error
}

// EventPublisher 订单变更事件发布
type EventPublisher interface {
	Publish(ctx context.Context, event order.Event) error
}

// Options 订单流程参数
type Options struct {
	StockRetry  int           // 库存乐观锁冲突最大尝试次数
	SagaTimeout time.Duration // 单次写流程超时
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{StockRetry: 3, SagaTimeout: 15 * time.Second}
}
