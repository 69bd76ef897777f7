package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/bookstore-admin/pkg/errors"
)

func TestManager_GenerateAndParse(t *testing.T) {
	m := NewManager("secret", time.Hour, 24*time.Hour)

	pair, err := m.GenerateToken(Identity{UserID: "u-1", Email: "a@b.com", Nickname: "张三", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), pair.ExpiresIn)

	claims, err := m.ParseToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "a@b.com", claims.Email)

	refreshed, err := m.RefreshAccessToken(pair.RefreshToken)
	require.NoError(t, err)
	claims, err = m.ParseToken(refreshed)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
}

func TestManager_ParseToken_Errors(t *testing.T) {
	m := NewManager("secret", time.Hour, time.Hour)

	t.Run("签名不匹配", func(t *testing.T) {
		other := NewManager("other", time.Hour, time.Hour)
		pair, err := other.GenerateToken(Identity{UserID: "u-1", Role: "user"})
		require.NoError(t, err)

		_, err = m.ParseToken(pair.AccessToken)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("已过期", func(t *testing.T) {
		expired := NewManager("secret", -time.Minute, time.Hour)
		pair, err := expired.GenerateToken(Identity{UserID: "u-1", Role: "user"})
		require.NoError(t, err)

		_, err = m.ParseToken(pair.AccessToken)
		assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
	})

	t.Run("格式错误", func(t *testing.T) {
		_, err := m.ParseToken("not-a-token")
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})
}
