package redis

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/xiebiao/bookstore-admin/internal/domain/order"
	apperrors "github.com/xiebiao/bookstore-admin/pkg/errors"
)

const (
	orderKeyPrefix   = "order:detail:"
	orderFloorPrefix = "order:floor:"
	defaultOrderTTL  = 10 * time.Minute
)

//go:embed set_order.lua
var setOrderLua string

//go:embed invalidate_order.lua
var invalidateOrderLua string

var (
	setOrderScript        = redis.NewScript(setOrderLua)
	invalidateOrderScript = redis.NewScript(invalidateOrderLua)
)

// OrderCache 订单详情缓存
// key为order:detail:{id},值为JSON;更新/删除订单时由应用层调用Invalidate
//
// Invalidate同时写入order:floor:{id}(版本下限,与缓存同TTL),
// Set通过Lua脚本比较版本,低于下限的旧订单不会写回缓存
type OrderCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOrderCache 创建订单缓存,ttl<=0时取10分钟
func NewOrderCache(client *redis.Client, ttl time.Duration) *OrderCache {
	if ttl <= 0 {
		ttl = defaultOrderTTL
	}
	return &OrderCache{client: client, ttl: ttl}
}

type cachedOrder struct {
	ID         string            `json:"id"`
	UserID     string            `json:"userId"`
	ClientID   string            `json:"clientId"`
	OrderLines []cachedOrderLine `json:"orderLines"`
	TotalItems int               `json:"totalItems"`
	Total      decimal.Decimal   `json:"total"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	IsDeleted  bool              `json:"isDeleted"`
	Version    int64             `json:"version"`
}

type cachedOrderLine struct {
	ProductID string          `json:"productId"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

// Get 读取缓存,未命中返回(nil, nil)
func (c *OrderCache) Get(ctx context.Context, id string) (*order.Order, error) {
	data, err := c.client.Get(ctx, orderKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "读取订单缓存失败")
	}

	var v cachedOrder
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, apperrors.Wrap(err, "订单缓存格式错误")
	}

	lines := make([]order.OrderLine, 0, len(v.OrderLines))
	for _, l := range v.OrderLines {
		lines = append(lines, order.OrderLine(l))
	}
	return &order.Order{
		ID:         v.ID,
		UserID:     v.UserID,
		ClientID:   v.ClientID,
		OrderLines: lines,
		TotalItems: v.TotalItems,
		Total:      v.Total,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
		IsDeleted:  v.IsDeleted,
		Version:    v.Version,
	}, nil
}

// Set 写入缓存,订单版本低于版本下限时静默跳过
func (c *OrderCache) Set(ctx context.Context, o *order.Order) error {
	lines := make([]cachedOrderLine, 0, len(o.OrderLines))
	for _, l := range o.OrderLines {
		lines = append(lines, cachedOrderLine(l))
	}
	data, err := json.Marshal(cachedOrder{
		ID:         o.ID,
		UserID:     o.UserID,
		ClientID:   o.ClientID,
		OrderLines: lines,
		TotalItems: o.TotalItems,
		Total:      o.Total,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
		IsDeleted:  o.IsDeleted,
		Version:    o.Version,
	})
	if err != nil {
		return apperrors.Wrap(err, "序列化订单失败")
	}

	keys := []string{orderKeyPrefix + o.ID, orderFloorPrefix + o.ID}
	err = setOrderScript.Run(ctx, c.client, keys, data, o.Version, c.ttl.Milliseconds()).Err()
	if err != nil {
		return apperrors.Wrap(err, "写入订单缓存失败")
	}
	return nil
}

// Invalidate 删除缓存并把版本下限提高到minVersion
func (c *OrderCache) Invalidate(ctx context.Context, id string, minVersion int64) error {
	keys := []string{orderKeyPrefix + id, orderFloorPrefix + id}
	err := invalidateOrderScript.Run(ctx, c.client, keys, minVersion, c.ttl.Milliseconds()).Err()
	if err != nil {
		return apperrors.Wrap(err, "删除订单缓存失败")
	}
	return nil
}
