package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookstore-admin/internal/domain/user"
	apperrors "github.com/xiebiao/bookstore-admin/pkg/errors"
	"github.com/xiebiao/bookstore-admin/pkg/jwt"
)

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) Login(ctx context.Context, email, password string) (*user.User, error) {
	args := m.Called(ctx, email, password)
	if u := args.Get(0); u != nil {
		return u.(*user.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserService) ValidatePassword(hashedPassword, plainPassword string) error {
	return m.Called(hashedPassword, plainPassword).Error(0)
}

type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) SaveSession(ctx context.Context, userID string, data map[string]interface{}, ttl time.Duration) error {
	return m.Called(ctx, userID, data, ttl).Error(0)
}

func (m *mockSessionStore) DeleteSession(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockSessionStore) AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error {
	return m.Called(ctx, token, ttl).Error(0)
}

func TestLoginUseCase(t *testing.T) {
	ctx := context.Background()
	manager := jwt.NewManager("test-secret", time.Hour, 24*time.Hour)
	admin := user.NewUser("u-1", "admin@bookstore.com", "hash", "管理员", user.RoleAdmin)

	t.Run("登录成功并签发带角色的Token", func(t *testing.T) {
		svc := new(mockUserService)
		svc.On("Login", ctx, "admin@bookstore.com", "secret").Return(admin, nil)
		sessions := new(mockSessionStore)
		sessions.On("SaveSession", ctx, "u-1", mock.Anything, 24*time.Hour).Return(nil)

		resp, err := NewLoginUseCase(svc, manager, sessions, 24*time.Hour, nil).
			Execute(ctx, LoginRequest{Email: "admin@bookstore.com", Password: "secret", ClientIP: "10.0.0.1"})
		require.NoError(t, err)

		assert.Equal(t, "u-1", resp.User.ID)
		assert.Equal(t, user.RoleAdmin, resp.User.Role)
		assert.Equal(t, int64(3600), resp.ExpiresIn)

		claims, err := manager.ParseToken(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.RoleAdmin, claims.Role)
		sessions.AssertExpectations(t)
	})

	t.Run("会话保存失败不影响登录", func(t *testing.T) {
		svc := new(mockUserService)
		svc.On("Login", ctx, "admin@bookstore.com", "secret").Return(admin, nil)
		sessions := new(mockSessionStore)
		sessions.On("SaveSession", ctx, "u-1", mock.Anything, mock.Anything).Return(errors.New("redis down"))

		resp, err := NewLoginUseCase(svc, manager, sessions, time.Hour, nil).
			Execute(ctx, LoginRequest{Email: "admin@bookstore.com", Password: "secret"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("密码错误", func(t *testing.T) {
		svc := new(mockUserService)
		svc.On("Login", ctx, "admin@bookstore.com", "bad").Return(nil, apperrors.ErrInvalidPassword)
		sessions := new(mockSessionStore)

		_, err := NewLoginUseCase(svc, manager, sessions, time.Hour, nil).
			Execute(ctx, LoginRequest{Email: "admin@bookstore.com", Password: "bad"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)
		sessions.AssertNotCalled(t, "SaveSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestLogoutUseCase(t *testing.T) {
	ctx := context.Background()

	sessions := new(mockSessionStore)
	sessions.On("DeleteSession", ctx, "u-1").Return(nil)
	sessions.On("AddToBlacklist", ctx, "token-abc", 2*time.Hour).Return(nil)

	require.NoError(t, NewLogoutUseCase(sessions, 2*time.Hour).Execute(ctx, "u-1", "token-abc"))
	sessions.AssertExpectations(t)

	failing := new(mockSessionStore)
	failing.On("DeleteSession", ctx, "u-1").Return(apperrors.ErrRedisError)
	err := NewLogoutUseCase(failing, time.Hour).Execute(ctx, "u-1", "token-abc")
	assert.ErrorIs(t, err, apperrors.ErrRedisError)
	failing.AssertNotCalled(t, "AddToBlacklist", mock.Anything, mock.Anything, mock.Anything)
}
