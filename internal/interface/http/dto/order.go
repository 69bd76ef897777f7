package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	apporder "github.com/xiebiao/bookstore-admin/internal/application/order"
	"github.com/xiebiao/bookstore-admin/internal/domain/order"
)

// OrderRequest 创建/更新订单请求
// 引用是否存在、数量和价格等业务校验由订单流程完成,这里只做格式绑定
type OrderRequest struct {
	UserID     string             `json:"userId" example:"3f1c2a9e-8d7b-4c1a-9f3e-2b6d5c4a1e90"`
	ClientID   string             `json:"clientId" example:"a7e4d2c1-5b3f-4e8a-9c1d-0f2e3b4a5c6d"`
	OrderLines []OrderLineRequest `json:"orderLines"`
}

// OrderLineRequest 订单明细请求,total会被忽略并重新计算
type OrderLineRequest struct {
	ProductID string          `json:"productId"`
	Price     decimal.Decimal `json:"price" swaggertype:"number" example:"20.00"`
	Quantity  int             `json:"quantity" example:"2"`
	Total     decimal.Decimal `json:"total" swaggertype:"number" example:"40.00"`
}

// ToApp 转换为应用层请求
func (r *OrderRequest) ToApp() apporder.OrderRequest {
	lines := make([]apporder.OrderLineRequest, 0, len(r.OrderLines))
	for _, l := range r.OrderLines {
		lines = append(lines, apporder.OrderLineRequest{
			ProductID: l.ProductID,
			Price:     l.Price,
			Quantity:  l.Quantity,
			Total:     l.Total,
		})
	}
	return apporder.OrderRequest{
		UserID:     r.UserID,
		ClientID:   r.ClientID,
		OrderLines: lines,
	}
}

// OrderListQuery 订单分页查询参数
type OrderListQuery struct {
	Page          int    `form:"page" example:"1"`
	Limit         int    `form:"limit" example:"10"`
	SortField     string `form:"sortField" example:"createdAt"`
	SortDirection string `form:"sortDirection" example:"desc"`
}

// OrderResponse 订单响应
// 金额固定输出两位小数的数字
type OrderResponse struct {
	ID         string              `json:"id"`
	UserID     string              `json:"userId"`
	ClientID   string              `json:"clientId"`
	OrderLines []OrderLineResponse `json:"orderLines"`
	TotalItems int                 `json:"totalItems"`
	Total      json.Number         `json:"total" swaggertype:"number"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
	IsDeleted  bool                `json:"isDeleted"`
}

// OrderLineResponse 订单明细响应
type OrderLineResponse struct {
	ProductID string      `json:"productId"`
	Price     json.Number `json:"price" swaggertype:"number"`
	Quantity  int         `json:"quantity"`
	Total     json.Number `json:"total" swaggertype:"number"`
}

// NewOrderResponse 领域实体 → HTTP响应
func NewOrderResponse(o *order.Order) *OrderResponse {
	lines := make([]OrderLineResponse, 0, len(o.OrderLines))
	for _, l := range o.OrderLines {
		lines = append(lines, OrderLineResponse{
			ProductID: l.ProductID,
			Price:     money(l.Price),
			Quantity:  l.Quantity,
			Total:     money(l.Total),
		})
	}
	return &OrderResponse{
		ID:         o.ID,
		UserID:     o.UserID,
		ClientID:   o.ClientID,
		OrderLines: lines,
		TotalItems: o.TotalItems,
		Total:      money(o.Total),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
		IsDeleted:  o.IsDeleted,
	}
}

// NewOrderResponses 批量转换
func NewOrderResponses(orders []*order.Order) []*OrderResponse {
	out := make([]*OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrderResponse(o))
	}
	return out
}

// ClientReferenceResponse 客户引用检查结果
type ClientReferenceResponse struct {
	ClientID  string `json:"clientId"`
	Exists    bool   `json:"exists"`
	HasOrders bool   `json:"hasOrders"`
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}
