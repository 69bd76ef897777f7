package order

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-admin/internal/domain/order"
	"github.com/xiebiao/bookstore-admin/pkg/logger"
	"github.com/xiebiao/bookstore-admin/pkg/metrics"
	"github.com/xiebiao/bookstore-admin/pkg/saga"
	"github.com/xiebiao/bookstore-admin/pkg/tracing"
)

// UpdateOrderUseCase 更新订单用例
//
// 先校验后改库存:
//  1. 读取旧订单
//  2. 校验新明细,旧订单占用的数量计入可用库存
//  3. 按图书计算新旧差值,一次性调整库存(差值为0的图书不动)
//  4. 按读取时的版本号保存订单,失败时按相反差值补偿
//
// 校验失败时库存和旧订单都保持不变
// 同一订单的并发更新只有一个能保存成功,其余返回ErrOrderConflict且库存已补偿
type UpdateOrderUseCase struct {
	workflow *Workflow
	orders   order.Repository
	cache    Cache
	events   EventPublisher
	opts     Options
	logger   *zap.Logger
}

// NewUpdateOrderUseCase 创建更新订单用例
func NewUpdateOrderUseCase(
	workflow *Workflow,
	orders order.Repository,
	cache Cache,
	events EventPublisher,
	opts Options,
	l *zap.Logger,
) *UpdateOrderUseCase {
	if l == nil {
		l = zap.NewNop()
	}
	return &UpdateOrderUseCase{
		workflow: workflow,
		orders:   orders,
		cache:    cache,
		events:   events,
		opts:     opts,
		logger:   l,
	}
}

// Execute 执行更新
func (uc *UpdateOrderUseCase) Execute(ctx context.Context, id string, req OrderRequest) (result *order.Order, err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, tracerName, "UpdateOrder")
	defer func() {
		tracing.EndSpan(span, err)
		metrics.RecordOrderOperation("update", err, time.Since(start))
	}()
	span.SetAttributes(attribute.String("order.id", id))

	// 1. 旧订单
	existing, err := uc.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	candidate := req.toOrder()
	candidate.ID = existing.ID
	candidate.CreatedAt = existing.CreatedAt
	candidate.Version = existing.Version

	// 2. 校验
	if err = uc.workflow.Validate(ctx, candidate, existing.Quantities()); err != nil {
		return nil, err
	}

	// 3. 库存差值 + 4. 保存
	deltas := netDeltas(existing, candidate)

	s := saga.NewSaga(uc.opts.SagaTimeout, saga.WithName("更新订单"), saga.WithLogger(uc.logger))
	s.AddStep("调整库存",
		func(ctx context.Context) error { return uc.workflow.ApplyDeltas(ctx, deltas) },
		func(ctx context.Context) error { return uc.workflow.ApplyDeltas(ctx, negate(deltas)) },
	)
	s.AddStep("保存订单",
		func(ctx context.Context) error {
			candidate.Recalculate()
			candidate.Touch(time.Now())
			updated, err := uc.orders.UpdateByID(ctx, id, candidate)
			if err != nil {
				return err
			}
			result = updated
			return nil
		},
		nil,
	)
	if err = s.Execute(ctx); err != nil {
		return nil, err
	}

	invalidate(ctx, uc.cache, uc.logger, id, result.Version)

	logger.Info(ctx, uc.logger, "订单更新成功",
		zap.String("order_id", id),
		zap.String("total", result.Total.StringFixed(2)),
		zap.Int("total_items", result.TotalItems),
	)

	notify(ctx, uc.events, uc.logger, order.EventUpdated, result)

	return result, nil
}
