package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/internal/workflow"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type WorkflowHandler struct {
	workflowService service.WorkflowService
}

func NewWorkflowHandler(workflowService service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflowService: workflowService}
}

func (h *WorkflowHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	{
		// Role checks here are coarse: the engine enforces the exact
		// stage-to-role mapping and returns 403/409 on violations.
		orders.POST("/:id/sign", middleware.RequireRole(workflow.RoleBuyer, workflow.RoleOperations, workflow.RoleManagement, workflow.RoleAdmin), h.SignStage)
		orders.POST("/:id/reject", middleware.RequireRole(workflow.RoleBuyer, workflow.RoleOperations, workflow.RoleManagement, workflow.RoleFinance, workflow.RoleAdmin), h.Reject)
		orders.POST("/:id/payment", middleware.RequireRole(workflow.RoleFinance, workflow.RoleAdmin), h.RegisterPayment)
		orders.POST("/:id/resubmit", middleware.RequireRole(workflow.RoleBuyer, workflow.RoleAdmin), h.Resubmit)
	}
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type paymentRequest struct {
	InvoiceRef string `json:"invoice_ref"`
}

// SignStage applies the actor's signature to the stage the order is waiting on
// @Summary      Sign pending stage
// @Description  Signs the order's pending approval stage and advances the workflow
// @Tags         workflow
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/sign [post]
func (h *WorkflowHandler) SignStage(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing actor identity"))
		return
	}

	order, err := h.workflowService.SignStage(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// Reject moves a non-terminal order to the Rejected state
// @Summary      Reject order
// @Description  Rejects the order with a mandatory reason
// @Tags         workflow
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string         true  "Order ID"
// @Param        payload  body      rejectRequest  true  "Rejection Payload"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/reject [post]
func (h *WorkflowHandler) Reject(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing actor identity"))
		return
	}

	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.workflowService.Reject(c.Request.Context(), c.Param("id"), actor, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// RegisterPayment records the invoice reference and closes the workflow
// @Summary      Register payment
// @Description  Registers payment against a fully approved order and marks it Paid
// @Tags         workflow
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string          true  "Order ID"
// @Param        payload  body      paymentRequest  true  "Payment Payload"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/payment [post]
func (h *WorkflowHandler) RegisterPayment(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing actor identity"))
		return
	}

	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.workflowService.RegisterPayment(c.Request.Context(), c.Param("id"), actor, req.InvoiceRef)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// Resubmit returns an amended rejected order to the approval chain
// @Summary      Resubmit order
// @Description  Resubmits a rejected order after an approved amendment; re-enters at the operations stage
// @Tags         workflow
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/resubmit [post]
func (h *WorkflowHandler) Resubmit(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing actor identity"))
		return
	}

	order, err := h.workflowService.Resubmit(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
