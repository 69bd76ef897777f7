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

// CreateOrderUseCase 创建订单用例
// 流程:校验 → 预留库存 → 保存订单 → 发布order.created
// 库存在MySQL、订单在MongoDB,两步之间用Saga补偿:保存订单失败时归还已预留的库存
type CreateOrderUseCase struct {
	workflow *Workflow
	orders   order.Repository
	events   EventPublisher
	opts     Options
	logger   *zap.Logger
}

// NewCreateOrderUseCase 创建下单用例
func NewCreateOrderUseCase(
	workflow *Workflow,
	orders order.Repository,
	events EventPublisher,
	opts Options,
	l *zap.Logger,
) *CreateOrderUseCase {
	if l == nil {
		l = zap.NewNop()
	}
	return &CreateOrderUseCase{
		workflow: workflow,
		orders:   orders,
		events:   events,
		opts:     opts,
		logger:   l,
	}
}

// Execute 执行下单
// 校验失败时不修改任何库存、不保存订单
func (uc *CreateOrderUseCase) Execute(ctx context.Context, req OrderRequest) (result *order.Order, err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, tracerName, "CreateOrder")
	defer func() {
		tracing.EndSpan(span, err)
		metrics.RecordOrderOperation("create", err, time.Since(start))
	}()
	span.SetAttributes(
		attribute.String("order.user_id", req.UserID),
		attribute.String("order.client_id", req.ClientID),
	)

	candidate := req.toOrder()

	// 1. 校验(不修改任何数据)
	if err = uc.workflow.Validate(ctx, candidate, nil); err != nil {
		return nil, err
	}

	// 2. 预留库存 + 保存订单
	s := saga.NewSaga(uc.opts.SagaTimeout, saga.WithName("创建订单"), saga.WithLogger(uc.logger))
	s.AddStep("预留库存",
		func(ctx context.Context) error { return uc.workflow.Reserve(ctx, candidate) },
		func(ctx context.Context) error { return uc.workflow.ReturnStock(ctx, candidate) },
	)
	s.AddStep("保存订单",
		func(ctx context.Context) error {
			candidate.Touch(time.Now())
			return uc.orders.Create(ctx, candidate)
		},
		nil,
	)
	if err = s.Execute(ctx); err != nil {
		return nil, err
	}

	logger.Info(ctx, uc.logger, "订单创建成功",
		zap.String("order_id", candidate.ID),
		zap.String("total", candidate.Total.StringFixed(2)),
		zap.Int("total_items", candidate.TotalItems),
	)

	// 3. 通知(尽力而为)
	notify(ctx, uc.events, uc.logger, order.EventCreated, candidate)

	return candidate, nil
}
