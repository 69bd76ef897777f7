package book

import (
	"context"
)

// Repository 图书仓储接口(依赖倒置原则)
// 由domain层定义接口,infrastructure层实现
type Repository interface {
	// Create 创建图书
	Create(ctx context.Context, book *Book) error

	// FindByID 根据ID查找图书,不存在返回ErrBookNotFound
	FindByID(ctx context.Context, id string) (*Book, error)

	// Save 保存库存变更(乐观锁)
	// 条件更新 WHERE id=? AND version=?,成功后book.Version递增
	// 版本号不匹配(被并发修改)时返回ErrStockConflict,调用方需重新读取后重试
	Save(ctx context.Context, book *Book) error
}
