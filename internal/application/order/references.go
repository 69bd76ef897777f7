package order

import (
	"context"

	"github.com/xiebiao/bookstore-admin/internal/domain/client"
	"github.com/xiebiao/bookstore-admin/internal/domain/order"
	"github.com/xiebiao/bookstore-admin/internal/domain/user"
)

// ReferenceChecker 引用检查
// 供外部模块使用,例如删除客户前确认没有订单引用该客户
type ReferenceChecker struct {
	users   user.Repository
	clients client.Repository
	orders  order.Repository
}

// NewReferenceChecker 创建引用检查
func NewReferenceChecker(users user.Repository, clients client.Repository, orders order.Repository) *ReferenceChecker {
	return &ReferenceChecker{users: users, clients: clients, orders: orders}
}

// UserExists 用户是否存在
func (c *ReferenceChecker) UserExists(ctx context.Context, userID string) (bool, error) {
	return c.users.ExistsByID(ctx, userID)
}

// ClientExists 客户是否存在
func (c *ReferenceChecker) ClientExists(ctx context.Context, clientID string) (bool, error) {
	return c.clients.ExistsByID(ctx, clientID)
}

// HasOrdersForClient 是否存在引用该客户的订单
func (c *ReferenceChecker) HasOrdersForClient(ctx context.Context, clientID string) (bool, error) {
	return c.orders.ExistsByFilter(ctx, order.Filter{ClientID: clientID})
}
