package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
server:
  port: 8081
  grpc_port: 9091
  mode: test
database:
  host: db
  port: 3306
  user: u
  password: p
  dbname: bookstore
  charset: utf8mb4
  parse_time: true
  loc: Asia/Shanghai
mongo:
  uri: mongodb://mongo:27017
jwt:
  secret: test-secret
order:
  stock_retry: 2
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeConfig(t, testYAML)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 9091, cfg.Server.GRPCPort)
	assert.Equal(t, "mongodb://mongo:27017", cfg.Mongo.URI)
	assert.Equal(t, 2, cfg.Order.StockRetry)

	// 未配置的项使用默认值
	assert.Equal(t, "orders", cfg.Mongo.Collection)
	assert.Equal(t, 10*time.Minute, cfg.Order.CacheTTL)
	assert.Equal(t, "bookstore.events", cfg.RabbitMQ.Exchange)
	assert.Equal(t, "u:p@tcp(db:3306)/bookstore?charset=utf8mb4&parseTime=true&loc=Asia%2FShanghai", cfg.Database.DSN())
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := writeConfig(t, testYAML)
	t.Setenv("BOOKSTORE_ORDER_STOCK_RETRY", "5")
	t.Setenv("BOOKSTORE_MONGO_URI", "mongodb://other:27017")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Order.StockRetry)
	assert.Equal(t, "mongodb://other:27017", cfg.Mongo.URI)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: 8080, GRPCPort: 9090, Mode: "debug"},
			Mongo:  MongoConfig{URI: "mongodb://localhost:27017"},
			Order:  OrderConfig{StockRetry: 3},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"合法配置", func(c *Config) {}, false},
		{"端口越界", func(c *Config) { c.Server.Port = 70000 }, true},
		{"端口冲突", func(c *Config) { c.Server.GRPCPort = 8080 }, true},
		{"生产环境默认密钥", func(c *Config) {
			c.Server.Mode = "release"
			c.JWT.Secret = "your-secret-key-change-in-production"
		}, true},
		{"缺少mongo地址", func(c *Config) { c.Mongo.URI = "" }, true},
		{"重试次数为0", func(c *Config) { c.Order.StockRetry = 0 }, true},
		{"启用MQ缺少地址", func(c *Config) { c.RabbitMQ.Enabled = true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
