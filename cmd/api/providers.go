package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apporder "github.com/xiebiao/bookstore-admin/internal/application/order"
	appuser "github.com/xiebiao/bookstore-admin/internal/application/user"
	"github.com/xiebiao/bookstore-admin/internal/domain/user"
	"github.com/xiebiao/bookstore-admin/internal/infrastructure/config"
	"github.com/xiebiao/bookstore-admin/internal/infrastructure/messaging"
	mongostore "github.com/xiebiao/bookstore-admin/internal/infrastructure/persistence/mongo"
	"github.com/xiebiao/bookstore-admin/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookstore-admin/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookstore-admin/internal/interface/grpcserver"
	"github.com/xiebiao/bookstore-admin/internal/interface/http/handler"
	"github.com/xiebiao/bookstore-admin/internal/interface/http/middleware"
	"github.com/xiebiao/bookstore-admin/internal/interface/http/router"
	"github.com/xiebiao/bookstore-admin/pkg/jwt"
	"github.com/xiebiao/bookstore-admin/pkg/logger"
	"github.com/xiebiao/bookstore-admin/pkg/metrics"
	"github.com/xiebiao/bookstore-admin/pkg/mq"
	"github.com/xiebiao/bookstore-admin/pkg/tracing"
)

// healthCheckInterval gRPC健康状态刷新周期
const healthCheckInterval = 10 * time.Second

// App 运行中的服务
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	http   *http.Server
	grpc   *grpcserver.Server
}

// telemetry 指标和链路追踪已初始化的标记
type telemetry struct{}

func newApp(cfg *config.Config, l *zap.Logger, _ telemetry, engine *gin.Engine, grpcServer *grpcserver.Server) *App {
	return &App{
		cfg:    cfg,
		logger: l,
		http: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		grpc: grpcServer,
	}
}

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	l, err := logger.New(logger.Config{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	zap.ReplaceGlobals(l)
	return l, func() { _ = l.Sync() }, nil
}

// provideTelemetry 注册Prometheus指标,按配置启用OTLP链路追踪
func provideTelemetry(cfg *config.Config) (telemetry, func(), error) {
	metrics.InitMetrics()
	if !cfg.Tracing.Enabled {
		return telemetry{}, func() {}, nil
	}
	shutdown, err := tracing.InitTracer(tracing.Config{
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
	})
	if err != nil {
		return telemetry{}, nil, fmt.Errorf("初始化链路追踪失败: %w", err)
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}
	return telemetry{}, cleanup, nil
}

func provideDB(cfg *config.Config, l *zap.Logger) (*gorm.DB, func(), error) {
	db, err := mysql.NewDB(cfg, l)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

func provideMongo(ctx context.Context, cfg *config.Config, l *zap.Logger) (*mongo.Client, func(), error) {
	client, err := mongostore.NewClient(ctx, cfg.Mongo, l)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
		defer cancel()
		_ = client.Disconnect(ctx)
	}
	return client, cleanup, nil
}

// provideOrderCollection 订单集合,启动时创建索引
func provideOrderCollection(ctx context.Context, client *mongo.Client, cfg *config.Config) (*mongo.Collection, error) {
	coll := mongostore.OrderCollection(client, cfg.Mongo)
	if err := mongostore.EnsureIndexes(ctx, coll); err != nil {
		return nil, err
	}
	return coll, nil
}

func provideRedis(ctx context.Context, cfg *config.Config, l *zap.Logger) (*goredis.Client, func(), error) {
	client, err := redis.NewClient(ctx, cfg.Redis, l)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

func provideOrderOptions(cfg *config.Config) apporder.Options {
	return apporder.Options{
		StockRetry:  cfg.Order.StockRetry,
		SagaTimeout: cfg.Order.SagaTimeout,
	}
}

func provideOrderCache(client *goredis.Client, cfg *config.Config) *redis.OrderCache {
	return redis.NewOrderCache(client, cfg.Order.CacheTTL)
}

// provideEventPublisher RabbitMQ启用时通过熔断器发布,否则丢弃事件
func provideEventPublisher(cfg *config.Config, l *zap.Logger) (apporder.EventPublisher, func(), error) {
	if !cfg.RabbitMQ.Enabled {
		return messaging.NewNopNotifier(l), func() {}, nil
	}

	pub, err := mq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.ExchangeType, l)
	if err != nil {
		return nil, nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}
	cleanup := func() {
		if err := pub.Close(); err != nil {
			l.Warn("关闭RabbitMQ连接失败", zap.Error(err))
		}
	}
	return messaging.NewOrderNotifier(pub, messaging.DefaultBreakerSettings(), l), cleanup, nil
}

// provideLoginUseCase 会话有效期与Refresh Token一致
func provideLoginUseCase(cfg *config.Config, svc user.Service, jwtManager *jwt.Manager, store *redis.SessionStore, l *zap.Logger) *appuser.LoginUseCase {
	return appuser.NewLoginUseCase(svc, jwtManager, store, cfg.JWT.RefreshTokenExpire, l)
}

// provideLogoutUseCase 黑名单有效期与Access Token一致
func provideLogoutUseCase(store *redis.SessionStore, jwtManager *jwt.Manager) *appuser.LogoutUseCase {
	return appuser.NewLogoutUseCase(store, jwtManager.AccessTokenTTL())
}

func provideRouter(
	cfg *config.Config,
	l *zap.Logger,
	orderHandler *handler.OrderHandler,
	authHandler *handler.AuthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *gin.Engine {
	return router.New(router.Options{
		Mode:          cfg.Server.Mode,
		EnableSwagger: cfg.Server.Mode != gin.ReleaseMode,
	}, l, orderHandler, authHandler, authMiddleware)
}

// provideGRPCServer 健康检查探测MySQL和MongoDB
func provideGRPCServer(cfg *config.Config, db *gorm.DB, mongoClient *mongo.Client, l *zap.Logger) (*grpcserver.Server, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return grpcserver.NewServer(l, cfg.Mongo.Timeout,
		grpcserver.Check{Name: "mysql", Ping: sqlDB.PingContext},
		grpcserver.Check{Name: "mongo", Ping: func(ctx context.Context) error {
			return mongoClient.Ping(ctx, nil)
		}},
	), nil
}
