package handler

import (
	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/bookstore-admin/internal/application/order"
	"github.com/xiebiao/bookstore-admin/internal/interface/http/dto"
	apperrors "github.com/xiebiao/bookstore-admin/pkg/errors"
	"github.com/xiebiao/bookstore-admin/pkg/response"
)

// OrderHandler 订单HTTP处理器
// 只做参数绑定和响应转换,库存与校验由订单流程完成
type OrderHandler struct {
	createOrder *apporder.CreateOrderUseCase
	updateOrder *apporder.UpdateOrderUseCase
	removeOrder *apporder.RemoveOrderUseCase
	getOrder    *apporder.GetOrderUseCase
	listOrders  *apporder.ListOrdersUseCase
	references  *apporder.ReferenceChecker
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(
	createOrder *apporder.CreateOrderUseCase,
	updateOrder *apporder.UpdateOrderUseCase,
	removeOrder *apporder.RemoveOrderUseCase,
	getOrder *apporder.GetOrderUseCase,
	listOrders *apporder.ListOrdersUseCase,
	references *apporder.ReferenceChecker,
) *OrderHandler {
	return &OrderHandler{
		createOrder: createOrder,
		updateOrder: updateOrder,
		removeOrder: removeOrder,
		getOrder:    getOrder,
		listOrders:  listOrders,
		references:  references,
	}
}

// CreateOrder 创建订单
// @Summary      创建订单
// @Description  校验客户、用户、图书、数量和价格后扣减库存并保存订单
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.OrderRequest true "订单信息"
// @Success      201 {object} response.Response{data=dto.OrderResponse} "创建成功"
// @Failure      400 {object} response.Response "引用不存在/订单非法/库存不足/价格不一致"
// @Failure      401 {object} response.Response "未登录"
// @Failure      409 {object} response.Response "库存并发冲突"
// @Router       /api/v1/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req dto.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数格式错误: "+err.Error())
		return
	}

	result, err := h.createOrder.Execute(c.Request.Context(), req.ToApp())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewOrderResponse(result))
}

// UpdateOrder 更新订单
// @Summary      更新订单
// @Description  按新旧明细的差值调整库存,失败时恢复原状
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string          true "订单ID"
// @Param        request body dto.OrderRequest true "订单信息"
// @Success      200 {object} response.Response{data=dto.OrderResponse} "更新成功"
// @Failure      400 {object} response.Response "校验失败"
// @Failure      404 {object} response.Response "订单不存在"
// @Failure      409 {object} response.Response "订单已被并发修改"
// @Router       /api/v1/orders/{id} [put]
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var req dto.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数格式错误: "+err.Error())
		return
	}

	result, err := h.updateOrder.Execute(c.Request.Context(), c.Param("id"), req.ToApp())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.NewOrderResponse(result))
}

// RemoveOrder 删除订单并归还库存
// @Summary      删除订单
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "订单ID"
// @Success      200 {object} response.Response "删除成功"
// @Failure      403 {object} response.Response "无权限"
// @Failure      404 {object} response.Response "订单不存在"
// @Failure      409 {object} response.Response "订单已被并发修改"
// @Router       /api/v1/orders/{id} [delete]
func (h *OrderHandler) RemoveOrder(c *gin.Context) {
	if err := h.removeOrder.Execute(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// GetOrder 订单详情
// @Summary      订单详情
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "订单ID"
// @Success      200 {object} response.Response{data=dto.OrderResponse}
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /api/v1/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	result, err := h.getOrder.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewOrderResponse(result))
}

// ListOrders 订单分页列表
// @Summary      订单列表
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        page          query int    false "页码" default(1)
// @Param        limit         query int    false "每页数量" default(10)
// @Param        sortField     query string false "排序字段" Enums(createdAt, updatedAt, total, totalItems)
// @Param        sortDirection query string false "排序方向" Enums(asc, desc)
// @Success      200 {object} response.Response{data=response.PageData{list=[]dto.OrderResponse}}
// @Failure      400 {object} response.Response "分页参数错误"
// @Router       /api/v1/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var q dto.OrderListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数格式错误: "+err.Error())
		return
	}

	page, err := h.listOrders.FindAll(c.Request.Context(), apporder.ListQuery{
		Page:          q.Page,
		Limit:         q.Limit,
		SortField:     q.SortField,
		SortDirection: q.SortDirection,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPage(c, dto.NewOrderResponses(page.Items), page.Total, page.Page, page.Limit)
}

// ListUserOrders 用户的全部订单
// @Summary      用户订单
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        userId path string true "用户ID"
// @Success      200 {object} response.Response{data=[]dto.OrderResponse}
// @Failure      404 {object} response.Response "用户不存在"
// @Router       /api/v1/users/{userId}/orders [get]
func (h *OrderHandler) ListUserOrders(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Param("userId")

	exists, err := h.references.UserExists(ctx, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !exists {
		response.Error(c, apperrors.ErrUserNotFound)
		return
	}

	orders, err := h.listOrders.FindByUserID(ctx, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewOrderResponses(orders))
}

// ClientReferences 客户引用检查,删除客户前调用
// @Summary      客户引用检查
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        clientId path string true "客户ID"
// @Success      200 {object} response.Response{data=dto.ClientReferenceResponse}
// @Router       /api/v1/clients/{clientId}/references [get]
func (h *OrderHandler) ClientReferences(c *gin.Context) {
	ctx := c.Request.Context()
	clientID := c.Param("clientId")

	exists, err := h.references.ClientExists(ctx, clientID)
	if err != nil {
		response.Error(c, err)
		return
	}

	result := &dto.ClientReferenceResponse{ClientID: clientID, Exists: exists}
	if exists {
		if result.HasOrders, err = h.references.HasOrdersForClient(ctx, clientID); err != nil {
			response.Error(c, err)
			return
		}
	}
	response.Success(c, result)
}
