package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/bookstore-admin/internal/domain/client"
	apperrors "github.com/xiebiao/bookstore-admin/pkg/errors"
)

type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository 创建客户仓储
func NewClientRepository(db *gorm.DB) client.Repository {
	return &clientRepository{db: db}
}

// Create 创建客户
func (r *clientRepository) Create(ctx context.Context, c *client.Client) error {
	model := &ClientModel{ID: c.ID, Name: c.Name, Email: c.Email}
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return client.ErrClientDuplicate
		}
		return apperrors.Wrap(err, "创建客户失败")
	}

	c.CreatedAt = model.CreatedAt
	c.UpdatedAt = model.UpdatedAt
	return nil
}

// ExistsByID 判断客户是否存在
func (r *clientRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := getDB(ctx, r.db).Model(&ClientModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(err, "查询客户失败")
	}
	return count > 0, nil
}
