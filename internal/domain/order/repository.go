package order

import (
	"context"
	"math"
)

// Repository 订单仓储接口
// 订单存储在文档库中,ID由仓储在Create时分配
type Repository interface {
	// Create 创建订单,成功后回填order.ID,Version置为1
	Create(ctx context.Context, order *Order) error

	// FindByID 根据ID查找订单,不存在返回ErrOrderNotFound
	FindByID(ctx context.Context, id string) (*Order, error)

	// FindByFilter 按条件查询订单,按创建时间倒序
	FindByFilter(ctx context.Context, filter Filter) ([]*Order, error)

	// ExistsByFilter 是否存在满足条件的订单
	ExistsByFilter(ctx context.Context, filter Filter) (bool, error)

	// UpdateByID 整体替换订单内容(保留ID和CreatedAt)
	// order.Version为读取时的版本号,仅当库中版本一致时写入,成功后版本号加1
	// 订单不存在返回ErrOrderNotFound,版本不一致返回ErrOrderConflict
	UpdateByID(ctx context.Context, id string, order *Order) (*Order, error)

	// DeleteByID 物理删除指定版本的订单
	// 订单不存在返回ErrOrderNotFound,版本不一致返回ErrOrderConflict
	DeleteByID(ctx context.Context, id string, version int64) error

	// Paginate 分页查询
	Paginate(ctx context.Context, filter Filter, query PageQuery) (*PageResult, error)
}

// Filter 订单查询条件,空字段表示不限制
type Filter struct {
	UserID   string
	ClientID string
}

// 排序字段
const (
	SortByCreatedAt  = "createdAt"
	SortByUpdatedAt  = "updatedAt"
	SortByTotal      = "total"
	SortByTotalItems = "totalItems"
)

// 分页默认值
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	MaxPage      = 100000
)

// PageQuery 分页参数
type PageQuery struct {
	Page      int
	Limit     int
	SortField string
	SortDesc  bool
}

// NewPageQuery 规范化分页参数
// page<1取1,page>MaxPage取MaxPage,limit<1取10,limit>100取100;sortField为空取createdAt;direction为空取desc
// 非法的排序字段或方向返回ErrInvalidPageQuery
func NewPageQuery(page, limit int, sortField, direction string) (PageQuery, error) {
	q := PageQuery{Page: page, Limit: limit, SortField: sortField, SortDesc: true}

	switch {
	case q.Page < 1:
		q.Page = DefaultPage
	case q.Page > MaxPage:
		q.Page = MaxPage
	}
	switch {
	case q.Limit < 1:
		q.Limit = DefaultLimit
	case q.Limit > MaxLimit:
		q.Limit = MaxLimit
	}

	switch q.SortField {
	case "":
		q.SortField = SortByCreatedAt
	case SortByCreatedAt, SortByUpdatedAt, SortByTotal, SortByTotalItems:
	default:
		return PageQuery{}, ErrInvalidPageQuery
	}

	switch direction {
	case "", "desc", "DESC":
		q.SortDesc = true
	case "asc", "ASC":
		q.SortDesc = false
	default:
		return PageQuery{}, ErrInvalidPageQuery
	}

	return q, nil
}

// Skip 跳过的记录数
func (q PageQuery) Skip() int64 {
	if q.Page < 1 {
		return 0
	}
	return int64(q.Page-1) * int64(q.Limit)
}

// PageResult 分页结果
type PageResult struct {
	Items      []*Order
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// NewPageResult 创建分页结果并计算总页数
func NewPageResult(items []*Order, total int64, q PageQuery) *PageResult {
	pages := 0
	if q.Limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(q.Limit)))
	}
	return &PageResult{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: pages,
	}
}
