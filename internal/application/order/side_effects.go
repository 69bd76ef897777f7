package order

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-admin/internal/domain/order"
	"github.com/xiebiao/bookstore-admin/pkg/logger"
)

// notify 发布订单事件
// 订单已经提交,发布失败只记录日志,不影响请求结果
func notify(ctx context.Context, events EventPublisher, l *zap.Logger, t order.EventType, o *order.Order) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, order.NewEvent(t, o, time.Now())); err != nil {
		logger.Warn(ctx, l, "订单事件发布失败",
			zap.String("event", string(t)),
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}
}

// invalidate 删除订单详情缓存,minVersion之前的旧订单不再回填
// 失败时缓存会在TTL到期后自然失效
func invalidate(ctx context.Context, cache Cache, l *zap.Logger, id string, minVersion int64) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, id, minVersion); err != nil {
		logger.Error(ctx, l, "订单缓存删除失败",
			zap.String("order_id", id),
			zap.Error(err),
		)
	}
}
