package grpcserver

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	apperrors "github.com/xiebiao/bookstore-admin/pkg/errors"
)

func dial(t *testing.T, s *Server) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func TestServer_HealthFollowsDependencies(t *testing.T) {
	var mongoDown atomic.Bool
	s := NewServer(nil, time.Second,
		Check{Name: "mysql", Ping: func(ctx context.Context) error { return nil }},
		Check{Name: "mongo", Ping: func(ctx context.Context) error {
			if mongoDown.Load() {
				return errors.New("server selection timeout")
			}
			return nil
		}},
	)
	client := dial(t, s)
	ctx := context.Background()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status, "首次探测前不提供服务")

	s.Refresh(ctx)
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	mongoDown.Store(true)
	s.Refresh(ctx)
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)

	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: "mysql"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: "mongo"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)

	_, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: "unknown"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestServer_CheckTimeout(t *testing.T) {
	s := NewServer(nil, 10*time.Millisecond, Check{Name: "mysql", Ping: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	client := dial(t, s)

	s.Refresh(context.Background())
	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "mysql"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestUnaryErrorInterceptor(t *testing.T) {
	interceptor := UnaryErrorInterceptor(nil)
	info := &grpc.UnaryServerInfo{FullMethod: "/bookstore.Orders/Create"}

	tests := []struct {
		name     string
		err      error
		wantCode codes.Code
		wantApp  int
	}{
		{"库存不足", apperrors.New(apperrors.ErrCodeInsufficientStock, "库存不足"), codes.FailedPrecondition, apperrors.ErrCodeInsufficientStock},
		{"订单不存在", apperrors.New(apperrors.ErrCodeOrderNotFound, "订单不存在"), codes.NotFound, apperrors.ErrCodeOrderNotFound},
		{"引用不存在", apperrors.New(apperrors.ErrCodeInvalidReference, "客户不存在"), codes.InvalidArgument, apperrors.ErrCodeInvalidReference},
		{"内部错误", errors.New("boom"), codes.Internal, apperrors.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return nil, tt.err
			})
			st, ok := status.FromError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, st.Code())
			assert.Equal(t, tt.wantApp, apperrors.FromGRPCStatus(st).Code)
		})
	}

	resp, err := interceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}
