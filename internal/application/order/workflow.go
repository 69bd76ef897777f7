package order

import (
	"context"
	"errors"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-admin/internal/domain/book"
	"github.com/xiebiao/bookstore-admin/internal/domain/client"
	"github.com/xiebiao/bookstore-admin/internal/domain/order"
	"github.com/xiebiao/bookstore-admin/internal/domain/user"
	"github.com/xiebiao/bookstore-admin/pkg/logger"
	"github.com/xiebiao/bookstore-admin/pkg/metrics"
	"github.com/xiebiao/bookstore-admin/pkg/tracing"
)

const tracerName = "order-workflow"

// Workflow 订单校验与库存预留/归还
//
// 并发控制:
// 1. 校验只是时间点检查,不加锁
// 2. 库存变更在一个MySQL事务内完成,每本书按版本号条件更新(乐观锁)
// 3. 版本冲突时整个事务回滚并重新读取,最多尝试StockRetry次
// 4. 多本书按ID排序后依次更新,同一订单内的多行要么全部生效要么全部回滚
type Workflow struct {
	books   book.Repository
	clients client.Repository
	users   user.Repository
	tx      Transactor
	retry   int
	logger  *zap.Logger
}

// NewWorkflow 创建订单流程
func NewWorkflow(
	books book.Repository,
	clients client.Repository,
	users user.Repository,
	tx Transactor,
	opts Options,
	l *zap.Logger,
) *Workflow {
	if opts.StockRetry < 1 {
		opts.StockRetry = 1
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Workflow{
		books:   books,
		clients: clients,
		users:   users,
		tx:      tx,
		retry:   opts.StockRetry,
		logger:  l,
	}
}

// Validate 校验候选订单
//
// 校验顺序:
// 1. 客户存在
// 2. 用户存在
// 3. 订单明细非空
// 4. 逐行:图书存在 → 数量>0且库存充足 → 单价与当前售价一致
//
// credit为即将释放的旧占用(按图书汇总),更新订单时旧订单的数量计入可用库存;创建时传nil
func (w *Workflow) Validate(ctx context.Context, candidate *order.Order, credit map[string]int) (err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "ValidateOrder")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int("order.lines", len(candidate.OrderLines)))

	// 1. 客户
	ok, err := w.clients.ExistsByID(ctx, candidate.ClientID)
	if err != nil {
		return err
	}
	if !ok {
		return order.ClientNotFound(candidate.ClientID)
	}

	// 2. 用户
	ok, err = w.users.ExistsByID(ctx, candidate.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return order.UserNotFound(candidate.UserID)
	}

	// 3. 明细
	if !candidate.HasLines() {
		return order.ErrEmptyOrderLines
	}

	// 4. 逐行校验,同一本书出现在多行时按合计数量检查库存
	requested := candidate.Quantities()
	products := make(map[string]*book.Book, len(requested))
	for _, line := range candidate.OrderLines {
		b, ok := products[line.ProductID]
		if !ok {
			b, err = w.books.FindByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, book.ErrBookNotFound) {
					return order.ProductNotFound(line.ProductID)
				}
				return err
			}
			products[line.ProductID] = b
		}

		if line.Quantity <= 0 {
			return order.InvalidQuantity(line.ProductID, line.Quantity)
		}

		need := requested[line.ProductID]
		if !b.HasStock(need, credit[line.ProductID]) {
			return order.InsufficientStock(line.ProductID, need, b.Stock+credit[line.ProductID])
		}

		if !b.PriceMatches(line.Price) {
			return order.PriceMismatch(line.ProductID, line.Price, b.Price)
		}
	}

	return nil
}

// Reserve 按订单明细扣减库存,并重新计算订单金额
// 不持久化订单;任意一行失败时已扣减的库存随事务回滚
func (w *Workflow) Reserve(ctx context.Context, o *order.Order) error {
	if !o.HasLines() {
		return order.ErrEmptyOrderLines
	}

	deltas := make(map[string]int, len(o.OrderLines))
	for id, qty := range o.Quantities() {
		deltas[id] = -qty
	}
	if err := w.ApplyDeltas(ctx, deltas); err != nil {
		return err
	}

	o.Recalculate()
	return nil
}

// ReturnStock 归还订单占用的库存,明细为空时不做任何操作
func (w *Workflow) ReturnStock(ctx context.Context, o *order.Order) error {
	if !o.HasLines() {
		return nil
	}
	return w.ApplyDeltas(ctx, o.Quantities())
}

// ApplyDeltas 批量调整库存,delta<0扣减,delta>0归还,0忽略
func (w *Workflow) ApplyDeltas(ctx context.Context, deltas map[string]int) (err error) {
	ids := make([]string, 0, len(deltas))
	for id, delta := range deltas {
		if delta != 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)

	ctx, span := tracing.StartSpan(ctx, tracerName, "ApplyStockDeltas")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int("stock.products", len(ids)))

	for attempt := 1; attempt <= w.retry; attempt++ {
		err = w.tx.Transaction(ctx, func(txCtx context.Context) error {
			for _, id := range ids {
				if err := w.adjust(txCtx, id, deltas[id]); err != nil {
					return err
				}
			}
			return nil
		})
		if !errors.Is(err, book.ErrStockConflict) {
			return err
		}

		metrics.RecordStockConflict()
		logger.Warn(ctx, w.logger, "库存版本冲突，重新读取后重试",
			zap.Int("attempt", attempt),
			zap.Strings("products", ids),
		)
	}

	return order.ErrStockConflict
}

// adjust 读取图书、调整库存并按版本号保存
func (w *Workflow) adjust(ctx context.Context, productID string, delta int) error {
	b, err := w.books.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, book.ErrBookNotFound) {
			return order.ProductNotFound(productID)
		}
		return err
	}

	if err := b.AdjustStock(delta); err != nil {
		if errors.Is(err, book.ErrInsufficientStock) {
			return order.InsufficientStock(productID, -delta, b.Stock)
		}
		return err
	}

	if err := w.books.Save(ctx, b); err != nil {
		return err
	}

	metrics.RecordStockAdjustment(delta)
	return nil
}

// netDeltas 计算从旧订单切换到新订单的库存差值
// 结果为正表示归还,为负表示追加扣减
func netDeltas(previous, next *order.Order) map[string]int {
	deltas := previous.Quantities()
	for id, qty := range next.Quantities() {
		deltas[id] -= qty
	}
	return deltas
}

// negate 取反,用于补偿
func negate(deltas map[string]int) map[string]int {
	out := make(map[string]int, len(deltas))
	for id, d := range deltas {
		out[id] = -d
	}
	return out
}
