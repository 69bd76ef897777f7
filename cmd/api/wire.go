//go:build wireinject
// +build wireinject

// Wire依赖注入配置
//
// 运行 `wire gen ./cmd/api` 生成wire_gen.go。
// Provider集合与main.go中的buildApp一一对应,修改依赖时两处同步。

package main

import (
	"context"

	"github.com/google/wire"

	apporder "github.com/xiebiao/bookstore-admin/internal/application/order"
	"github.com/xiebiao/bookstore-admin/internal/domain/user"
	"github.com/xiebiao/bookstore-admin/internal/infrastructure/config"
	mongostore "github.com/xiebiao/bookstore-admin/internal/infrastructure/persistence/mongo"
	"github.com/xiebiao/bookstore-admin/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookstore-admin/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookstore-admin/internal/interface/http/handler"
	"github.com/xiebiao/bookstore-admin/internal/interface/http/middleware"
)

// infrastructureSet 日志、追踪、存储连接、消息发布
var infrastructureSet = wire.NewSet(
	provideLogger,
	provideTelemetry,
	provideDB,
	provideMongo,
	provideOrderCollection,
	provideRedis,
	provideEventPublisher,
)

// repositorySet 仓储、事务、缓存、会话
var repositorySet = wire.NewSet(
	mysql.NewBookRepository,
	mysql.NewClientRepository,
	mysql.NewUserRepository,
	mysql.NewTxManager,
	wire.Bind(new(apporder.Transactor), new(*mysql.TxManager)),
	mongostore.NewOrderRepository,
	provideOrderCache,
	wire.Bind(new(apporder.Cache), new(*redis.OrderCache)),
	redis.NewSessionStore,
)

var domainSet = wire.NewSet(
	user.NewService,
)

// applicationSet 订单流程与用例
var applicationSet = wire.NewSet(
	provideOrderOptions,
	apporder.NewWorkflow,
	apporder.NewCreateOrderUseCase,
	apporder.NewUpdateOrderUseCase,
	apporder.NewRemoveOrderUseCase,
	apporder.NewGetOrderUseCase,
	apporder.NewListOrdersUseCase,
	apporder.NewReferenceChecker,
	provideLoginUseCase,
	provideLogoutUseCase,
)

var middlewareSet = wire.NewSet(
	provideJWTManager,
	middleware.NewAuthMiddleware,
	wire.Bind(new(middleware.TokenBlacklist), new(*redis.SessionStore)),
)

var handlerSet = wire.NewSet(
	handler.NewOrderHandler,
	handler.NewAuthHandler,
)

// InitializeApp 构建完整应用,cleanup按创建的逆序释放连接
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		middlewareSet,
		handlerSet,
		provideRouter,
		provideGRPCServer,
		newApp,
	)
	return nil, nil, nil
}
