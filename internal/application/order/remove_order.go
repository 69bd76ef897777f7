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

// RemoveOrderUseCase 删除订单用例
// 流程:读取订单 → 归还库存 → 物理删除 → 清理缓存 → 发布order.removed
// 删除以读取时的版本号为条件,失败(含并发修改)时重新扣减已归还的库存
type RemoveOrderUseCase struct {
	workflow *Workflow
	orders   order.Repository
	cache    Cache
	events   EventPublisher
	opts     Options
	logger   *zap.Logger
}

// NewRemoveOrderUseCase 创建删除订单用例
func NewRemoveOrderUseCase(
	workflow *Workflow,
	orders order.Repository,
	cache Cache,
	events EventPublisher,
	opts Options,
	l *zap.Logger,
) *RemoveOrderUseCase {
	if l == nil {
		l = zap.NewNop()
	}
	return &RemoveOrderUseCase{
		workflow: workflow,
		orders:   orders,
		cache:    cache,
		events:   events,
		opts:     opts,
		logger:   l,
	}
}

// Execute 执行删除
func (uc *RemoveOrderUseCase) Execute(ctx context.Context, id string) (err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, tracerName, "RemoveOrder")
	defer func() {
		tracing.EndSpan(span, err)
		metrics.RecordOrderOperation("remove", err, time.Since(start))
	}()
	span.SetAttributes(attribute.String("order.id", id))

	existing, err := uc.orders.FindByID(ctx, id)
	if err != nil {
		return err
	}

	s := saga.NewSaga(uc.opts.SagaTimeout, saga.WithName("删除订单"), saga.WithLogger(uc.logger))
	s.AddStep("归还库存",
		func(ctx context.Context) error { return uc.workflow.ReturnStock(ctx, existing) },
		func(ctx context.Context) error { return uc.workflow.ApplyDeltas(ctx, negate(existing.Quantities())) },
	)
	s.AddStep("删除订单",
		func(ctx context.Context) error { return uc.orders.DeleteByID(ctx, id, existing.Version) },
		nil,
	)
	if err = s.Execute(ctx); err != nil {
		return err
	}

	invalidate(ctx, uc.cache, uc.logger, id, existing.Version+1)

	logger.Info(ctx, uc.logger, "订单已删除", zap.String("order_id", id))

	notify(ctx, uc.events, uc.logger, order.EventRemoved, existing)

	return nil
}
