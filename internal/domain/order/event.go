package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType 订单变更事件类型,同时作为消息路由键
type EventType string

const (
	EventCreated EventType = "order.created"
	EventUpdated EventType = "order.updated"
	EventRemoved EventType = "order.removed"
)

// Event 订单变更事件
// 只携带摘要信息,订阅方需要完整数据时按OrderID回查
type Event struct {
	Type       EventType       `json:"type"`
	OrderID    string          `json:"orderId"`
	UserID     string          `json:"userId"`
	ClientID   string          `json:"clientId"`
	TotalItems int             `json:"totalItems"`
	Total      decimal.Decimal `json:"total"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// NewEvent 根据订单生成事件
func NewEvent(t EventType, o *Order, at time.Time) Event {
	return Event{
		Type:       t,
		OrderID:    o.ID,
		UserID:     o.UserID,
		ClientID:   o.ClientID,
		TotalItems: o.TotalItems,
		Total:      o.Total,
		OccurredAt: at,
	}
}
