package client

import (
	"context"
)

// Repository 客户仓储接口
type Repository interface {
	// Create 创建客户
	Create(ctx context.Context, client *Client) error

	// ExistsByID 判断客户是否存在
	ExistsByID(ctx context.Context, id string) (bool, error)
}
