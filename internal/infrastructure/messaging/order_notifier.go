// Package messaging 订单变更事件发布
package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-admin/internal/domain/order"
	apperrors "github.com/xiebiao/bookstore-admin/pkg/errors"
	"github.com/xiebiao/bookstore-admin/pkg/metrics"
)

const breakerName = "order-events"

// MessagePublisher 消息发布(由pkg/mq.Publisher实现)
type MessagePublisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
	Exchange() string
}

// OrderNotifier 通过RabbitMQ发布订单事件
// 发布外面包一层熔断器:Broker连续失败时直接快速失败,不拖慢订单请求
type OrderNotifier struct {
	publisher MessagePublisher
	breaker   *gobreaker.CircuitBreaker
	logger    *zap.Logger
}

// BreakerSettings 熔断参数
type BreakerSettings struct {
	MaxRequests         uint32        // 半开状态允许的探测请求数
	Interval            time.Duration // 关闭状态下计数清零周期
	Timeout             time.Duration // 打开状态持续时间
	ConsecutiveFailures uint32        // 连续失败多少次后熔断
}

// DefaultBreakerSettings 默认熔断参数
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:         1,
		Interval:            30 * time.Second,
		Timeout:             15 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// NewOrderNotifier 创建订单事件发布者
func NewOrderNotifier(publisher MessagePublisher, bs BreakerSettings, l *zap.Logger) *OrderNotifier {
	if l == nil {
		l = zap.NewNop()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: bs.MaxRequests,
		Interval:    bs.Interval,
		Timeout:     bs.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bs.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetBreakerState(name, int(to))
			l.Warn("熔断器状态变化",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	metrics.SetBreakerState(breakerName, int(gobreaker.StateClosed))

	return &OrderNotifier{publisher: publisher, breaker: breaker, logger: l}
}

// Publish 发布订单事件,路由键即事件类型
// 熔断打开时返回ErrCodeBrokerError,调用方只记录日志
func (n *OrderNotifier) Publish(ctx context.Context, e order.Event) error {
	key := string(e.Type)

	_, err := n.breaker.Execute(func() (interface{}, error) {
		return nil, n.publisher.Publish(ctx, key, e)
	})
	metrics.RecordPublish(n.publisher.Exchange(), key, err)

	switch {
	case err == nil:
		metrics.RecordBreakerRequest(breakerName, "success")
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordBreakerRequest(breakerName, "rejected")
		return &apperrors.AppError{Code: apperrors.ErrCodeBrokerError, Message: "消息服务暂不可用", Err: err}
	default:
		metrics.RecordBreakerRequest(breakerName, "failure")
		return &apperrors.AppError{Code: apperrors.ErrCodeBrokerError, Message: "订单事件发布失败", Err: err}
	}
}

// State 熔断器当前状态
func (n *OrderNotifier) State() gobreaker.State {
	return n.breaker.State()
}

// NopNotifier 未启用RabbitMQ时使用,丢弃所有事件
type NopNotifier struct {
	logger *zap.Logger
}

// NewNopNotifier 创建空实现
func NewNopNotifier(l *zap.Logger) *NopNotifier {
	if l == nil {
		l = zap.NewNop()
	}
	return &NopNotifier{logger: l}
}

// Publish 只输出Debug日志
func (n *NopNotifier) Publish(ctx context.Context, e order.Event) error {
	n.logger.Debug("RabbitMQ未启用，丢弃订单事件",
		zap.String("event", string(e.Type)),
		zap.String("order_id", e.OrderID),
	)
	return nil
}
