package mysql

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/bookstore-admin/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 1. GORM v2 + MySQL驱动
// 2. 配置连接池参数(MaxOpenConns、MaxIdleConns、ConnMaxLifetime)
// 3. debug模式打印SQL
// 4. 自动迁移图书、客户、用户表
func NewDB(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}
	l.Info("数据库连接成功", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))

	// 生产环境应使用版本化的迁移脚本
	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return db, nil
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&ClientModel{},
		&BookModel{},
	)
}

// UserModel GORM用户模型
// 主键为UUID字符串,与订单文档中的userId保持一致
type UserModel struct {
	ID        string         `gorm:"primaryKey;size:36"`
	Email     string         `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password  string         `gorm:"size:255;not null;comment:密码(bcrypt加密)"`
	Nickname  string         `gorm:"size:50;not null;comment:昵称"`
	Role      string         `gorm:"size:20;not null;default:user;comment:角色(admin|user)"`
	CreatedAt time.Time      `gorm:"comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt `gorm:"index;comment:删除时间(软删除)"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// ClientModel GORM客户模型
type ClientModel struct {
	ID        string         `gorm:"primaryKey;size:36"`
	Name      string         `gorm:"size:100;not null;comment:客户名称"`
	Email     string         `gorm:"uniqueIndex;size:100;not null;comment:联系邮箱"`
	CreatedAt time.Time      `gorm:"comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt `gorm:"index;comment:删除时间(软删除)"`
}

// TableName 指定表名
func (ClientModel) TableName() string {
	return "clients"
}

// BookModel GORM图书模型
// 1. Price用DECIMAL(10,2)存储,映射为decimal.Decimal
// 2. Version为乐观锁版本号,库存更新时作为条件
// 3. 不做软删除,库存条件更新只看id和version
type BookModel struct {
	ID        string          `gorm:"primaryKey;size:36"`
	ISBN      string          `gorm:"uniqueIndex;size:20;not null;comment:ISBN号"`
	Title     string          `gorm:"size:200;not null;comment:书名"`
	Author    string          `gorm:"size:100;not null;comment:作者"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:售价"`
	Stock     int             `gorm:"not null;default:0;comment:库存数量"`
	Version   int64           `gorm:"not null;default:0;comment:乐观锁版本号"`
	CreatedAt time.Time       `gorm:"comment:创建时间"`
	UpdatedAt time.Time       `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}
