package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/internal/workflow"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	{
		orders.POST("", middleware.RequireRole(workflow.RoleBuyer, workflow.RoleAdmin), h.CreateOrder)
		orders.GET("", middleware.RequireRole(workflow.RoleBuyer, workflow.RoleOperations, workflow.RoleManagement, workflow.RoleFinance, workflow.RoleAdmin), h.ListOrders)
		orders.GET("/:id", middleware.RequireRole(workflow.RoleBuyer, workflow.RoleOperations, workflow.RoleManagement, workflow.RoleFinance, workflow.RoleAdmin), h.GetOrder)
		orders.PUT("/:id/items", middleware.RequireRole(workflow.RoleBuyer, workflow.RoleAdmin), h.UpdateItems)
		orders.DELETE("/:id/items/:itemId", middleware.RequireRole(workflow.RoleBuyer, workflow.RoleAdmin), h.RemoveItem)
		orders.GET("/:id/audit", middleware.RequireRole(workflow.RoleBuyer, workflow.RoleOperations, workflow.RoleManagement, workflow.RoleFinance, workflow.RoleAdmin), h.GetAuditTrail)
	}
}

// CreateOrder creates a new purchase order in the initial draft state
// @Summary      Create purchase order
// @Description  Creates a purchase order awaiting the buyer's signature
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrderDTO  true  "Create Order Payload"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing actor identity"))
		return
	}

	var req service.CreateOrderDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListOrders returns a paginated list of purchase orders
// @Summary      List purchase orders
// @Description  Retrieves purchase orders, optionally filtered by state or requester
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        state         query     string  false  "Filter by workflow state"
// @Param        requested_by  query     string  false  "Filter by requester email"
// @Param        page          query     int     false  "Page number (default 1)"
// @Param        limit         query     int     false  "Number of items per page (default 20)"
// @Success      200           {object}  response.Response{data=object}
// @Failure      500           {object}  response.Response
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.OrderFilter{
		State:       c.Query("state"),
		RequestedBy: c.Query("requested_by"),
		Page:        params.Page,
		Limit:       params.Limit,
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	}))
}

// GetOrder returns a single purchase order with items, signatures and audit trail
// @Summary      Get purchase order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UpdateItems replaces the line items of an editable order
// @Summary      Update order items
// @Description  Replaces line items and recalculates totals; only editable orders accept changes
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Order ID"
// @Param        payload  body      service.UpdateItemsDTO  true  "Items Payload"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/items [put]
func (h *OrderHandler) UpdateItems(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing actor identity"))
		return
	}

	var req service.UpdateItemsDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.UpdateItems(c.Request.Context(), c.Param("id"), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// RemoveItem deletes a single line item from an editable order
// @Summary      Remove order item
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id      path      string  true  "Order ID"
// @Param        itemId  path      string  true  "Line Item ID"
// @Success      200     {object}  response.Response{data=service.OrderResponse}
// @Failure      409     {object}  response.Response
// @Router       /api/orders/{id}/items/{itemId} [delete]
func (h *OrderHandler) RemoveItem(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing actor identity"))
		return
	}

	order, err := h.orderService.RemoveItem(c.Request.Context(), c.Param("id"), c.Param("itemId"), actor)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// GetAuditTrail returns the chronological per-order audit log
// @Summary      Get order audit trail
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=[]service.AuditEntryResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id}/audit [get]
func (h *OrderHandler) GetAuditTrail(c *gin.Context) {
	trail, err := h.orderService.GetAuditTrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, trail))
}
