// @title           Bookstore Admin API
// @version         1.0
// @description     书店后台订单服务：下单校验、库存预留与归还、订单查询
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/xiebiao/bookstore-admin/docs"
	apporder "github.com/xiebiao/bookstore-admin/internal/application/order"
	"github.com/xiebiao/bookstore-admin/internal/domain/user"
	"github.com/xiebiao/bookstore-admin/internal/infrastructure/config"
	mongostore "github.com/xiebiao/bookstore-admin/internal/infrastructure/persistence/mongo"
	"github.com/xiebiao/bookstore-admin/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookstore-admin/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookstore-admin/internal/interface/http/handler"
	"github.com/xiebiao/bookstore-admin/internal/interface/http/middleware"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := buildApp(ctx, cfg)
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}
	defer cleanup()

	if err := app.Run(ctx); err != nil {
		app.logger.Error("服务异常退出", zap.Error(err))
		cleanup()
		os.Exit(1)
	}
}

// buildApp 手动组装依赖,与wire.go中的InitializeApp保持一致
// Repository ← Workflow ← UseCase ← Handler ← Router
func buildApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		cleanups = nil
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	l, logCleanup, err := provideLogger(cfg)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, logCleanup)

	tel, telCleanup, err := provideTelemetry(cfg)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, telCleanup)

	// 存储
	db, dbCleanup, err := provideDB(cfg, l)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, dbCleanup)

	mongoClient, mongoCleanup, err := provideMongo(ctx, cfg, l)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, mongoCleanup)

	orderColl, err := provideOrderCollection(ctx, mongoClient, cfg)
	if err != nil {
		return fail(err)
	}

	redisClient, redisCleanup, err := provideRedis(ctx, cfg, l)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, redisCleanup)

	events, eventsCleanup, err := provideEventPublisher(cfg, l)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, eventsCleanup)

	// 仓储
	bookRepo := mysql.NewBookRepository(db)
	clientRepo := mysql.NewClientRepository(db)
	userRepo := mysql.NewUserRepository(db)
	txManager := mysql.NewTxManager(db)
	orderRepo := mongostore.NewOrderRepository(orderColl)
	orderCache := provideOrderCache(redisClient, cfg)
	sessionStore := redis.NewSessionStore(redisClient)
	jwtManager := provideJWTManager(cfg)

	// 用例
	opts := provideOrderOptions(cfg)
	workflow := apporder.NewWorkflow(bookRepo, clientRepo, userRepo, txManager, opts, l)
	orderHandler := handler.NewOrderHandler(
		apporder.NewCreateOrderUseCase(workflow, orderRepo, events, opts, l),
		apporder.NewUpdateOrderUseCase(workflow, orderRepo, orderCache, events, opts, l),
		apporder.NewRemoveOrderUseCase(workflow, orderRepo, orderCache, events, opts, l),
		apporder.NewGetOrderUseCase(orderRepo, orderCache, l),
		apporder.NewListOrdersUseCase(orderRepo),
		apporder.NewReferenceChecker(userRepo, clientRepo, orderRepo),
	)
	authHandler := handler.NewAuthHandler(
		provideLoginUseCase(cfg, user.NewService(userRepo), jwtManager, sessionStore, l),
		provideLogoutUseCase(sessionStore, jwtManager),
	)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, sessionStore)

	// 接口
	engine := provideRouter(cfg, l, orderHandler, authHandler, authMiddleware)
	grpcServer, err := provideGRPCServer(cfg, db, mongoClient, l)
	if err != nil {
		return fail(err)
	}

	return newApp(cfg, l, tel, engine, grpcServer), cleanup, nil
}

// Run 启动HTTP和gRPC服务,ctx取消后优雅关闭
func (a *App) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Server.GRPCPort))
	if err != nil {
		return fmt.Errorf("监听gRPC端口失败: %w", err)
	}

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	go a.grpc.Watch(watchCtx, healthCheckInterval)

	errCh := make(chan error, 2)
	go func() {
		a.logger.Info("gRPC服务启动", zap.Int("port", a.cfg.Server.GRPCPort))
		if err := a.grpc.Serve(lis); err != nil {
			errCh <- fmt.Errorf("gRPC服务异常: %w", err)
		}
	}()
	go func() {
		a.logger.Info("HTTP服务启动",
			zap.String("addr", a.http.Addr),
			zap.String("mode", a.cfg.Server.Mode),
		)
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP服务异常: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("收到关闭信号，开始优雅关闭")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("HTTP服务关闭超时", zap.Error(err))
	}
	a.grpc.Stop()

	a.logger.Info("服务已关闭")
	return runErr
}
