package client

import (
	"time"
)

// Client 客户实体
// 订单通过ClientID引用客户,订单流程只需要判断客户是否存在
type Client struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewClient 创建客户(工厂方法)
func NewClient(id, name, email string) *Client {
	now := time.Now()
	return &Client{
		ID:        id,
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
