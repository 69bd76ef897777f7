// Package grpcserver 提供gRPC健康检查服务
//
// 健康状态由依赖探测决定:MySQL和MongoDB任一不可达时,
// 整体服务("")以及对应依赖名都报告NOT_SERVING。
package grpcserver

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	apperrors "github.com/xiebiao/bookstore-admin/pkg/errors"
	"github.com/xiebiao/bookstore-admin/pkg/logger"
)

// Check 依赖探测
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Server gRPC服务
type Server struct {
	srv     *grpc.Server
	health  *health.Server
	checks  []Check
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.Mutex
	status map[string]healthpb.HealthCheckResponse_ServingStatus
}

// NewServer 创建gRPC服务并注册健康检查和反射
// timeout为单个依赖探测的超时时间
func NewServer(l *zap.Logger, timeout time.Duration, checks ...Check) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	s := &Server{
		health:  health.NewServer(),
		checks:  checks,
		timeout: timeout,
		logger:  l,
		status:  make(map[string]healthpb.HealthCheckResponse_ServingStatus),
	}
	s.srv = grpc.NewServer(grpc.ChainUnaryInterceptor(UnaryErrorInterceptor(l)))
	healthpb.RegisterHealthServer(s.srv, s.health)
	reflection.Register(s.srv)

	// 首次探测之前不对外提供服务
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Refresh 执行一轮依赖探测并更新健康状态
func (s *Server) Refresh(ctx context.Context) {
	overall := healthpb.HealthCheckResponse_SERVING
	for _, c := range s.checks {
		st := healthpb.HealthCheckResponse_SERVING
		pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := c.Ping(pingCtx)
		cancel()
		if err != nil {
			st = healthpb.HealthCheckResponse_NOT_SERVING
			overall = st
		}
		s.set(ctx, c.Name, st, err)
	}
	s.set(ctx, "", overall, nil)
}

func (s *Server) set(ctx context.Context, name string, st healthpb.HealthCheckResponse_ServingStatus, cause error) {
	s.mu.Lock()
	prev, seen := s.status[name]
	s.status[name] = st
	s.mu.Unlock()

	s.health.SetServingStatus(name, st)
	if seen && prev == st {
		return
	}
	if st == healthpb.HealthCheckResponse_SERVING {
		logger.Info(ctx, s.logger, "依赖健康状态变更", zap.String("service", name), zap.String("status", st.String()))
		return
	}
	logger.Warn(ctx, s.logger, "依赖健康状态变更", zap.String("service", name), zap.String("status", st.String()), zap.Error(cause))
}

// Watch 按interval周期探测,ctx结束时返回
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	s.Refresh(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Serve 在lis上提供服务,直到Stop
func (s *Server) Serve(lis net.Listener) error {
	return s.srv.Serve(lis)
}

// Stop 将状态置为NOT_SERVING并等待进行中的调用结束
func (s *Server) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}

// UnaryErrorInterceptor 将处理器返回的AppError转换为gRPC Status
func UnaryErrorInterceptor(l *zap.Logger) grpc.UnaryServerInterceptor {
	if l == nil {
		l = zap.NewNop()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		st := apperrors.ToGRPCStatus(err)
		logger.Debug(ctx, l, "gRPC调用失败",
			zap.String("method", info.FullMethod),
			zap.String("code", st.Code().String()),
			zap.Error(err),
		)
		return nil, st.Err()
	}
}
