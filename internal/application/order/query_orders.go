package order

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-admin/internal/domain/order"
	"github.com/xiebiao/bookstore-admin/pkg/logger"
	"github.com/xiebiao/bookstore-admin/pkg/metrics"
	"github.com/xiebiao/bookstore-admin/pkg/tracing"
)

// GetOrderUseCase 订单详情(cache-aside)
// 先查Redis,未命中再查MongoDB并回填;缓存故障时直接读库
type GetOrderUseCase struct {
	orders order.Repository
	cache  Cache
	logger *zap.Logger
}

// NewGetOrderUseCase 创建订单详情用例
func NewGetOrderUseCase(orders order.Repository, cache Cache, l *zap.Logger) *GetOrderUseCase {
	if l == nil {
		l = zap.NewNop()
	}
	return &GetOrderUseCase{orders: orders, cache: cache, logger: l}
}

// Execute 查询订单,不存在返回ErrOrderNotFound
func (uc *GetOrderUseCase) Execute(ctx context.Context, id string) (result *order.Order, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "FindOneOrder")
	defer func() { tracing.EndSpan(span, err) }()

	if uc.cache != nil {
		cached, cacheErr := uc.cache.Get(ctx, id)
		switch {
		case cacheErr != nil:
			logger.Warn(ctx, uc.logger, "读取订单缓存失败", zap.String("order_id", id), zap.Error(cacheErr))
		case cached != nil:
			metrics.RecordCacheLookup(true)
			return cached, nil
		default:
			metrics.RecordCacheLookup(false)
		}
	}

	result, err = uc.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if setErr := uc.cache.Set(ctx, result); setErr != nil {
			logger.Warn(ctx, uc.logger, "写入订单缓存失败", zap.String("order_id", id), zap.Error(setErr))
		}
	}
	return result, nil
}

// ListOrdersUseCase 订单列表查询
type ListOrdersUseCase struct {
	orders order.Repository
}

// NewListOrdersUseCase 创建订单列表用例
func NewListOrdersUseCase(orders order.Repository) *ListOrdersUseCase {
	return &ListOrdersUseCase{orders: orders}
}

// ListQuery 分页查询参数(原始值,由order.NewPageQuery规范化)
type ListQuery struct {
	Page          int
	Limit         int
	SortField     string
	SortDirection string
}

// FindAll 分页查询全部订单
func (uc *ListOrdersUseCase) FindAll(ctx context.Context, q ListQuery) (*order.PageResult, error) {
	pq, err := order.NewPageQuery(q.Page, q.Limit, q.SortField, q.SortDirection)
	if err != nil {
		return nil, err
	}
	return uc.orders.Paginate(ctx, order.Filter{}, pq)
}

// FindByUserID 查询用户的全部订单,按创建时间倒序
func (uc *ListOrdersUseCase) FindByUserID(ctx context.Context, userID string) ([]*order.Order, error) {
	return uc.orders.FindByFilter(ctx, order.Filter{UserID: userID})
}
