// Package router 注册HTTP路由
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-admin/internal/domain/user"
	"github.com/xiebiao/bookstore-admin/internal/interface/http/handler"
	"github.com/xiebiao/bookstore-admin/internal/interface/http/middleware"
)

// Options 路由选项
type Options struct {
	Mode          string // debug | release | test
	EnableSwagger bool
}

// New 创建Gin引擎并注册全部路由
//
//	/ping                                   健康检查
//	/metrics                                Prometheus
//	/swagger/*any                           API文档
//	POST   /api/v1/auth/login               登录
//	POST   /api/v1/auth/logout              登出(需登录)
//	/api/v1/orders                          订单(需登录,删除需admin)
//	GET    /api/v1/users/:userId/orders     用户订单
//	GET    /api/v1/clients/:clientId/references
func New(
	opts Options,
	l *zap.Logger,
	orderHandler *handler.OrderHandler,
	authHandler *handler.AuthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *gin.Engine {
	if l == nil {
		l = zap.NewNop()
	}
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(l),
		middleware.AccessLog(l),
		middleware.Metrics(),
	)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.EnableSwagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authMiddleware.RequireAuth(), authHandler.Logout)
		}

		authorized := v1.Group("")
		authorized.Use(authMiddleware.RequireAuth())
		{
			orders := authorized.Group("/orders")
			{
				orders.POST("", orderHandler.CreateOrder)
				orders.GET("", orderHandler.ListOrders)
				orders.GET("/:id", orderHandler.GetOrder)
				orders.PUT("/:id", orderHandler.UpdateOrder)
				orders.DELETE("/:id", authMiddleware.RequireRole(user.RoleAdmin), orderHandler.RemoveOrder)
			}

			authorized.GET("/users/:userId/orders", orderHandler.ListUserOrders)
			authorized.GET("/clients/:clientId/references", orderHandler.ClientReferences)
		}
	}

	return r
}
