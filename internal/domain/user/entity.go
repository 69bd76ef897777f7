package user

import (
	"time"
)

// 角色定义
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User 用户实体（聚合根）
// 设计说明：
// 1. 订单通过UserID引用下单用户（订单归属）
// 2. 密码以bcrypt哈希存储，不提供任何返回明文的方法
// 3. Role决定接口权限，删除订单需要admin
type User struct {
	ID        string
	Email     string
	Password  string // bcrypt哈希值
	Nickname  string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser 创建新用户（工厂方法）
// hashedPassword必须是bcrypt加密后的密码，role为空时默认为普通用户
func NewUser(id, email, hashedPassword, nickname, role string) *User {
	if role == "" {
		role = RoleUser
	}
	now := time.Now()
	return &User{
		ID:        id,
		Email:     email,
		Password:  hashedPassword,
		Nickname:  nickname,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
